package fitlog

import "context"

// Transport mirrors the remote device tree into the local device root.
// Afterwards the local tree is expected to be a byte-identical superset of
// the remote one; discovery does not verify this and relies on hashing.
type Transport interface {
	Mirror(ctx context.Context) error
}
