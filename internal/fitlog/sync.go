package fitlog

import (
	"context"
	"fmt"
	"path/filepath"
)

// SyncResult summarizes a full mirror, discover and import run.
type SyncResult struct {
	MirrorErr error
	Discover  *DiscoverResult
	Import    *ImportResult
}

// Sync mirrors the device tree when a transport is configured, archives new
// files from the device subdirectory and imports everything pending.
//
// A transport failure is logged and the run continues against whatever is
// already local. A missing device marker skips discovery when the mirror
// failed and is an error otherwise.
func (s *Service) Sync(ctx context.Context, deviceRoot string) (*SyncResult, error) {
	result := &SyncResult{}

	if s.transport != nil {
		if err := s.transport.Mirror(ctx); err != nil {
			s.logger.Warn("mirroring device failed, continuing with local archive", "error", err)
			result.MirrorErr = err
		}
	}

	var err error
	switch {
	case s.deviceAvailable(deviceRoot):
		root, err := s.fsmgr.Resolve(filepath.Join(deviceRoot, s.settings.DeviceSubdir))
		if err != nil {
			return result, fmt.Errorf("resolving device directory: %w", err)
		}
		result.Discover, err = s.Discover(root)
		if err != nil {
			return result, err
		}
	case result.MirrorErr != nil:
		s.logger.Warn("device not available, skipping discovery", "root", deviceRoot)
	default:
		return result, fmt.Errorf("device not found at %s (missing %s)", deviceRoot, s.settings.DeviceMarker)
	}

	result.Import, err = s.ImportPending()
	if err != nil {
		return result, err
	}
	return result, nil
}

func (s *Service) deviceAvailable(deviceRoot string) bool {
	if deviceRoot == "" {
		return false
	}
	if s.settings.DeviceMarker == "" {
		return true
	}
	marker, err := s.fsmgr.Resolve(filepath.Join(deviceRoot, s.settings.DeviceMarker))
	return err == nil && !marker.IsDir()
}
