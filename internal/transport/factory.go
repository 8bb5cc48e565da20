package transport

import (
	"fmt"

	"fitlog/internal/config"
	"fitlog/internal/fitlog"
)

// NewTransportFromConfig creates a Transport based on the configuration type.
// root is the local device root the transport mirrors into.
func NewTransportFromConfig(cfg config.TransportConfig, root string, logger fitlog.Logger) (fitlog.Transport, error) {
	switch cfg.Type {
	case "none", "":
		return NoTransport{}, nil
	case "rsync":
		if cfg.Source == "" {
			return nil, fmt.Errorf("rsync transport requires source to be set")
		}
		if root == "" {
			return nil, fmt.Errorf("rsync transport requires a device root")
		}
		return NewRsyncTransport(cfg.Source, root, cfg.Args, logger), nil
	default:
		return nil, fmt.Errorf("unknown transport type: %q", cfg.Type)
	}
}
