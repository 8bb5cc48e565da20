package transport

import (
	"context"

	"fitlog/internal/fitlog"
)

// NoTransport is used when the device root is the mounted device itself.
type NoTransport struct{}

func (NoTransport) Mirror(context.Context) error { return nil }

var _ fitlog.Transport = NoTransport{}
