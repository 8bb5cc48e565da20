package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"fitlog/internal/app"
	"fitlog/internal/config"
	"fitlog/internal/fitlog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readConfig loads the config file named by the application defaults.
func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Sync", "Import").
func newApp(cmd *cobra.Command, operation string) (*app.App, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewApp(cfg, operation, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase prompts on the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

func parseFileID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid file id %q", s)
	}
	return id, nil
}

func parseTimeFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

func timeString(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func printRecord(rec *fitlog.Record) {
	payload, err := rec.Payload.MarshalJSON()
	if err != nil {
		payload = []byte("<unencodable>")
	}
	fmt.Printf("#%d  file:%d  %s  %s  %s\n", rec.ID, rec.FileID, rec.Type, timeString(rec.Timestamp), payload)
}

var rootCmd = &cobra.Command{
	Use:   "fitlog",
	Short: "Activity tracker archive",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and database",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		libraryID := uuid.New().String()
		cfg := config.NewConfig(libraryID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if err := app.MigrateDatabase(cfg); err != nil {
			return err
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Library ID:  %s\n", libraryID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Device Root: %s\n", cfg.Device.Root)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Library ID:  %s\n", cfg.LibraryID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Device Root: %s\n", cfg.Device.Root)
		fmt.Printf("Transport:   %s\n", cfg.Transport.Type)
		fmt.Printf("Database:    %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:       %s (%s)\n", v.Name, v.Type)
		}
		for _, v := range cfg.Views {
			fmt.Printf("View:        %s\n", v.Name)
		}
		return nil
	},
}

var configVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage vault",
}

var configVaultCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify vault access and show the latest snapshot version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		version, err := app.CheckVault(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("vault check failed: %w", err)
		}
		if version == 0 {
			fmt.Println("Vault reachable, no snapshot yet.")
			return nil
		}
		fmt.Printf("Vault reachable, latest snapshot version %d\n", version)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage snapshot encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		again, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != again {
			return errors.New("passphrases do not match")
		}

		if err := app.KeysInit(cfg, passphrase); err != nil {
			return err
		}
		fmt.Printf("Keys written to %s\n", cfg.Encryption.PublicKeyPath)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the library database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		if err := app.MigrateDatabase(cfg); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the device, archive new files and import them",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Sync(cmd.Context())
		if result != nil && result.MirrorErr != nil {
			fmt.Printf("Mirror failed: %v\n", result.MirrorErr)
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		if result.Discover != nil {
			fmt.Printf("Archived %d new file(s), %d unchanged\n", result.Discover.Added, result.Discover.Unchanged)
		}
		printImport(result.Import)
		return nil
	},
}

func printImport(result *fitlog.ImportResult) {
	for _, f := range result.Failed {
		fmt.Printf("FAILED  %s: %v\n", f.Path, f.Err)
	}
	fmt.Printf("Imported %d file(s), %d failed\n", len(result.Imported), len(result.Failed))
}

// discover command
var discoverCmd = &cobra.Command{
	Use:   "discover [PATH]",
	Short: "Archive new files without importing them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Discover")
		if err != nil {
			return err
		}
		defer a.Close()

		var target string
		if len(args) > 0 {
			target = args[0]
		}

		result, err := a.Discover(target)
		if err != nil {
			return fmt.Errorf("discover failed: %w", err)
		}
		for _, p := range result.Failed {
			fmt.Printf("FAILED  %s\n", p)
		}
		fmt.Printf("Archived %d new file(s), %d unchanged\n", result.Added, result.Unchanged)
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import pending files",
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, _ := cmd.Flags().GetInt64("file")

		a, err := newApp(cmd, "Import")
		if err != nil {
			return err
		}
		defer a.Close()

		if fileID != 0 {
			n, err := a.ImportFile(fileID)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Printf("Imported %d record(s) from file %d\n", n, fileID)
			return nil
		}

		result, err := a.Import()
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		printImport(result)
		return nil
	},
}

// files command
var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List archived files",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListFiles")
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := a.ListFiles()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No files archived.")
			return nil
		}

		for _, f := range files {
			fmt.Println(f.String())
		}
		return nil
	},
}

// runView prints every file of a view with its merged fields.
func runView(cmd *cobra.Command, name string) error {
	showRecords, _ := cmd.Flags().GetBool("records")
	fileID, _ := cmd.Flags().GetInt64("file")

	a, err := newApp(cmd, "View")
	if err != nil {
		return err
	}
	defer a.Close()

	var views []*fitlog.DomainView
	if fileID != 0 {
		view, err := a.ViewForFile(name, fileID)
		if err != nil {
			return err
		}
		if view != nil {
			views = append(views, view)
		}
	} else {
		views, err = a.View(name)
		if err != nil {
			return err
		}
	}
	if len(views) == 0 {
		fmt.Printf("No files in view %s.\n", name)
		return nil
	}

	for _, v := range views {
		merged := fitlog.Merge(v)
		fmt.Printf("#%d  %s\n", merged.FileID, merged.Path)
		for _, f := range merged.Fields {
			fmt.Printf("    %-28s %-40s (%s)\n", f.Name, f.Value.String(), merged.Sources[f.Name])
		}
		for _, c := range merged.Conflicts {
			fmt.Printf("    conflict %s: kept %s from %s, ignored %s from %s\n",
				c.Field, c.Kept.String(), c.KeptFrom, c.Shadowed.String(), c.ShadowedFrom)
		}
		if showRecords {
			for _, rec := range v.Records {
				printRecord(rec)
			}
		}
	}
	return nil
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Show device files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(cmd, fitlog.DeviceView.Name)
	},
}

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "Show activity files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(cmd, fitlog.ActivityView.Name)
	},
}

var viewCmd = &cobra.Command{
	Use:   "view [NAME]",
	Short: "Show a configured view, or list views",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return runView(cmd, args[0])
		}

		a, err := newApp(cmd, "View")
		if err != nil {
			return err
		}
		defer a.Close()
		for _, name := range a.ViewNames() {
			fmt.Println(name)
		}
		return nil
	},
}

// records command
var recordsCmd = &cobra.Command{
	Use:   "records [TYPE]",
	Short: "Query records by type, or all records of one file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, _ := cmd.Flags().GetInt64("file")
		single, _ := cmd.Flags().GetBool("single")

		from, err := parseTimeFlag(cmd, "from")
		if err != nil {
			return err
		}
		to, err := parseTimeFlag(cmd, "to")
		if err != nil {
			return err
		}
		if single && fileID == 0 {
			return errors.New("--single requires --file")
		}
		var recordType string
		if len(args) > 0 {
			recordType = args[0]
		} else if fileID == 0 {
			return errors.New("a record type or --file is required")
		}

		a, err := newApp(cmd, "Records")
		if err != nil {
			return err
		}
		defer a.Close()

		var recs []*fitlog.Record
		switch {
		case recordType == "":
			recs, err = a.RecordsByFile(fileID)
		case single:
			rec, err := a.SingleRecord(fileID, recordType)
			if err != nil {
				return err
			}
			recs = []*fitlog.Record{rec}
		case fileID != 0:
			recs, err = a.Records(fileID, recordType)
		default:
			recs, err = a.RecordsAcrossFiles(recordType, fitlog.TimeRange{From: from, To: to})
		}
		if err != nil {
			return err
		}

		if len(recs) == 0 {
			fmt.Println("No records found.")
			return nil
		}
		for _, rec := range recs {
			printRecord(rec)
		}
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export FILE_ID TYPE",
	Short: "Export a time series as CSV",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		converters, _ := cmd.Flags().GetStringSlice("convert")
		degrees, _ := cmd.Flags().GetBool("degrees")
		if degrees {
			converters = append([]string{"degrees"}, converters...)
		}

		fileID, err := parseFileID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "Export")
		if err != nil {
			return err
		}
		defer a.Close()

		table, err := a.Export(fileID, args[1], converters)
		if err != nil {
			return err
		}

		w := csv.NewWriter(os.Stdout)
		if err := w.WriteAll(table.Records()); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			if run.FinishedAt.Valid {
				d := run.FinishedAt.Time.Sub(run.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-10s  %s  %-8s  %-10s  %s\n",
				run.ID,
				run.Operation,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Status,
				duration,
				run.Parameters,
			)
		}
		return nil
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage database snapshots",
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the local database with the latest vault snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := readConfig()
		if err != nil {
			return err
		}

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		version, err := app.RestoreSnapshot(cmd.Context(), cfg, passphrase, force)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Restored snapshot version %d\n", version)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configVaultCmd)
	configVaultCmd.AddCommand(configVaultCheckCmd)

	keysCmd.AddCommand(keysInitCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
	snapshotRestoreCmd.Flags().Bool("force", false, "Replace an existing database")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().Int64("file", 0, "Import only this file id")
	rootCmd.AddCommand(filesCmd)
	for _, c := range []*cobra.Command{devicesCmd, activitiesCmd, viewCmd} {
		c.Flags().Bool("records", false, "Also print each contributing record")
		c.Flags().Int64("file", 0, "Evaluate the view for one file id")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.Flags().Int64("file", 0, "Restrict to one file id")
	recordsCmd.Flags().String("from", "", "Earliest timestamp (RFC 3339)")
	recordsCmd.Flags().String("to", "", "Latest timestamp (RFC 3339)")
	recordsCmd.Flags().Bool("single", false, "Require exactly one record (needs --file)")
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().Bool("degrees", false, "Convert positions from semicircles to degrees")
	exportCmd.Flags().StringSlice("convert", nil, "Converters to apply: degrees, kmh")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(snapshotCmd)
}
