package fitlog

import "io"

// Encryptor protects database snapshots before they leave the machine.
// Encryption needs only the public key; decryption needs the passphrase
// that protects the private key.
type Encryptor interface {
	// Setup generates a key pair, stores the public key in plaintext and
	// encrypts the private key with passphrase. Called by `fitlog keys init`.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key. It fails on a wrong passphrase.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for one restore.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
