package fitlog

// Settings holds the device layout the service works against.
type Settings struct {
	// ImportSuffix selects which archived files are decoded ("%"+suffix
	// match, case-insensitive for ASCII).
	ImportSuffix string

	// DeviceSubdir is the directory below the device root that discovery walks.
	DeviceSubdir string

	// DeviceMarker is a file, relative to the device root, whose presence
	// shows the device tree is available. Empty disables the check.
	DeviceMarker string
}

// DefaultSettings match the layout of a Garmin device mounted as mass storage.
func DefaultSettings() Settings {
	return Settings{
		ImportSuffix: ".FIT",
		DeviceSubdir: "GARMIN",
		DeviceMarker: "GARMIN/DEVICE.FIT",
	}
}

// Service is the orchestration layer that coordinates the archive, the
// decoder and the record store to perform the operations needed by the CLI.
type Service struct {
	database  Database
	decoder   Decoder
	fsmgr     FilesystemManager
	transport Transport
	logger    Logger
	clock     Clock
	settings  Settings
}

// NewService creates a new Service with the provided dependencies.
// transport may be nil when the device tree is already local.
func NewService(database Database, decoder Decoder, fsmgr FilesystemManager, transport Transport, logger Logger, clock Clock, settings Settings) *Service {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Service{
		database:  database,
		decoder:   decoder,
		fsmgr:     fsmgr,
		transport: transport,
		logger:    logger,
		clock:     clock,
		settings:  settings,
	}
}
