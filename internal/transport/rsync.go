package transport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"fitlog/internal/fitlog"
)

// RsyncTransport mirrors the device tree with `rsync -a <source>/ <root>/`.
// Without --delete in args, files removed from the device stay in the
// local mirror.
type RsyncTransport struct {
	binary string
	source string
	root   string
	args   []string
	logger fitlog.Logger
}

// NewRsyncTransport creates an rsync transport copying source into root.
func NewRsyncTransport(source, root string, args []string, logger fitlog.Logger) *RsyncTransport {
	if logger == nil {
		logger = fitlog.NewNopLogger()
	}
	return &RsyncTransport{
		binary: "rsync",
		source: source,
		root:   root,
		args:   args,
		logger: logger,
	}
}

// Command builds the rsync invocation.
func (t *RsyncTransport) Command(ctx context.Context) *exec.Cmd {
	args := append([]string{"-a"}, t.args...)
	args = append(args, withSlash(t.source), withSlash(t.root))
	return exec.CommandContext(ctx, t.binary, args...)
}

// Mirror runs rsync, creating the local root first.
func (t *RsyncTransport) Mirror(ctx context.Context) error {
	if err := os.MkdirAll(t.root, 0755); err != nil {
		return fmt.Errorf("creating device root: %w", err)
	}

	cmd := t.Command(ctx)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	t.logger.Debug("mirroring device", "source", t.source, "root", t.root)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("rsync from %s: %w: %s", t.source, err, strings.TrimSpace(out.String()))
	}
	return nil
}

func withSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

var _ fitlog.Transport = (*RsyncTransport)(nil)
