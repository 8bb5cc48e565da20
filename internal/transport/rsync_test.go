package transport

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"fitlog/internal/config"
)

func TestRsyncTransport_Command(t *testing.T) {
	tr := NewRsyncTransport("watch:/mnt/GARMIN", "/data/device/", []string{"--delete"}, nil)
	cmd := tr.Command(context.Background())

	want := []string{"rsync", "-a", "--delete", "watch:/mnt/GARMIN/", "/data/device/"}
	if !slices.Equal(cmd.Args, want) {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
}

func TestRsyncTransport_Mirror(t *testing.T) {
	t.Run("creates the root and succeeds", func(t *testing.T) {
		bin, err := exec.LookPath("true")
		if err != nil {
			t.Skip("true(1) not available")
		}
		root := filepath.Join(t.TempDir(), "device")
		tr := NewRsyncTransport("/media/watch", root, nil, nil)
		tr.binary = bin

		if err := tr.Mirror(context.Background()); err != nil {
			t.Fatalf("Mirror() error = %v", err)
		}
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			t.Errorf("device root not created: %v", err)
		}
	})

	t.Run("reports command failure", func(t *testing.T) {
		bin, err := exec.LookPath("false")
		if err != nil {
			t.Skip("false(1) not available")
		}
		tr := NewRsyncTransport("/media/watch", t.TempDir(), nil, nil)
		tr.binary = bin

		if err := tr.Mirror(context.Background()); err == nil {
			t.Error("Mirror() expected error")
		}
	})

	t.Run("reports missing binary", func(t *testing.T) {
		tr := NewRsyncTransport("/media/watch", t.TempDir(), nil, nil)
		tr.binary = filepath.Join(t.TempDir(), "no-rsync")

		if err := tr.Mirror(context.Background()); err == nil {
			t.Error("Mirror() expected error")
		}
	})
}

func TestNewTransportFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TransportConfig
		root    string
		wantErr bool
	}{
		{name: "default is none", cfg: config.TransportConfig{}},
		{name: "none", cfg: config.TransportConfig{Type: "none"}},
		{name: "rsync", cfg: config.TransportConfig{Type: "rsync", Source: "/media/watch"}, root: "/data/device"},
		{name: "rsync without source", cfg: config.TransportConfig{Type: "rsync"}, root: "/data/device", wantErr: true},
		{name: "rsync without root", cfg: config.TransportConfig{Type: "rsync", Source: "/media/watch"}, wantErr: true},
		{name: "unknown", cfg: config.TransportConfig{Type: "usb"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTransportFromConfig(tt.cfg, tt.root, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTransportFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got == nil {
				t.Error("NewTransportFromConfig() returned nil")
			}
		})
	}
}
