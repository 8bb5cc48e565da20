package encryption

import (
	"fmt"

	"fitlog/internal/config"
)

func configFor(typ string, keys bool) config.EncryptionConfig {
	cfg := config.EncryptionConfig{Type: typ}
	if keys {
		cfg.PublicKeyPath = "/keys/fitlog.pub"
		cfg.PrivateKeyPath = "/keys/fitlog.key"
	}
	return cfg
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
