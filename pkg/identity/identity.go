// Package identity loads or generates the long-lived secret material a
// NetTask agent and server need before they can run the registration
// handshake in pkg/session.
package identity

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/nettask/nettask/pkg/config"
)

// presharedSecretLen matches the AEAD key size the ecdhe package derives
// from it; 32 bytes gives HKDF ample input entropy regardless.
const presharedSecretLen = 32

// LoadOrGeneratePresharedSecret resolves the secret an agent and its server
// both need to hold out of band before a handshake can succeed: inline
// base64 in config, a file on disk, or (last resort) a freshly generated
// value logged so an operator can copy it into the peer's config.
func LoadOrGeneratePresharedSecret(c config.PresharedSecretConfig) ([]byte, error) {
	if s := strings.TrimSpace(c.PresharedSecret); s != "" {
		b, err := base64.RawURLEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("identity: decode identity.preshared_secret: %w", err)
		}
		return b, nil
	}

	if path := strings.TrimSpace(c.PresharedSecretFile); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("identity: read identity.preshared_secret_file: %w", err)
		}
		txt := strings.TrimSpace(string(raw))
		if b, err := base64.RawURLEncoding.DecodeString(txt); err == nil {
			return b, nil
		}
		return raw, nil
	}

	secret := make([]byte, presharedSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("identity: generate preshared secret: %w", err)
	}
	zap.L().Warn("generated a new preshared secret; persist it to both peers' identity.preshared_secret",
		zap.String("secret_b64", base64.RawURLEncoding.EncodeToString(secret)))
	return secret, nil
}
