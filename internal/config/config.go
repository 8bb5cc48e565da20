package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for fitlog.
type Config struct {
	LibraryID  string           `toml:"library_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Device     DeviceConfig     `toml:"device"`
	Transport  TransportConfig  `toml:"transport"`
	Database   DatabaseConfig   `toml:"database"`
	Vaults     []VaultConfig    `toml:"vaults"`
	Encryption EncryptionConfig `toml:"encryption"`
	Views      []ViewConfig     `toml:"views"`
}

// DeviceConfig describes where the device tree is mirrored and which files
// of it are imported.
type DeviceConfig struct {
	Root       string   `toml:"root"`
	Subdir     string   `toml:"subdir,omitempty"`      // defaults to GARMIN
	Marker     string   `toml:"marker,omitempty"`      // defaults to GARMIN/DEVICE.FIT
	Suffix     string   `toml:"suffix,omitempty"`      // defaults to .FIT
	Ignore     []string `toml:"ignore,omitempty"`
	IgnoreFile string   `toml:"ignore_file,omitempty"` // one pattern per line, read at startup
}

// TransportConfig represents configuration for mirroring the device.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type TransportConfig struct {
	Type   string   `toml:"type"`             // "none" (default) or "rsync"
	Source string   `toml:"source,omitempty"` // rsync source, e.g. /media/watch or host:/mnt/watch
	Args   []string `toml:"args,omitempty"`   // extra rsync arguments
}

// EncryptionConfig holds paths to the age key pair used for snapshot encryption.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default), "none" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// VaultConfig represents configuration for a snapshot vault backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible stores such as minio
	// Static credentials; the default AWS chain is used when empty.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// DatabaseConfig represents configuration for the archive database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ViewConfig declares a correlation view in addition to the built-in ones.
type ViewConfig struct {
	Name               string   `toml:"name"`
	DesignatingType    string   `toml:"designating_type"`
	DiscriminatorField string   `toml:"discriminator_field"`
	DiscriminatorValue string   `toml:"discriminator_value"`
	Contributing       []string `toml:"contributing"`
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(libraryID, baseDir string) *Config {
	return &Config{
		LibraryID: libraryID,
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		Device: DeviceConfig{
			Root: filepath.Join(baseDir, "device"),
		},
		Transport: TransportConfig{Type: "none"},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "fitlog.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "fitlog.key"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
