package encryption

import (
	"fmt"
	"io"

	"fitlog/internal/fitlog"
)

// PlainEncryptor stores snapshots unencrypted. It is selected with
// `type = "none"` for vaults that are already private.
type PlainEncryptor struct{}

var _ fitlog.Encryptor = PlainEncryptor{}

func (PlainEncryptor) Setup(string) error { return nil }

func (PlainEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying snapshot: %w", err)
	}
	return nil
}

func (PlainEncryptor) Unlock(string) (fitlog.DecryptionContext, error) {
	return plainDecryption{}, nil
}

func (PlainEncryptor) IsConfigured() bool { return true }

type plainDecryption struct{}

func (plainDecryption) Decrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying snapshot: %w", err)
	}
	return nil
}
