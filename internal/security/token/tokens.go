// Package tokens genera secretos opacos y sus verificadores.
package tokens

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// ConnectSessionPrefix prefija los tokens de connect session.
const ConnectSessionPrefix = "nango_connect_session_"

// DefaultSecretBytes es la entropía de un secreto (256 bits).
const DefaultSecretBytes = 32

// hkdfInfo separa el uso de la clave derivada de otros usos de la misma master key.
const hkdfInfo = "nango/private-key-verifier/v1"

// GenerateSecret retorna prefix + hex(nBytes aleatorios). Cada llamada lee
// de crypto/rand; no hay estado compartido entre emisiones concurrentes.
func GenerateSecret(prefix string, nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = DefaultSecretBytes
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("tokens: read random: %w", err)
	}
	return prefix + hex.EncodeToString(b), nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding.
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Hasher calcula el verificador persistible de un secreto.
type Hasher struct {
	key []byte
}

// NewHasher deriva la clave de HMAC desde masterKey con HKDF-SHA256.
// Con masterKey vacía el verificador es un SHA-256 plano.
func NewHasher(masterKey string) (*Hasher, error) {
	masterKey = strings.TrimSpace(masterKey)
	if masterKey == "" {
		return &Hasher{}, nil
	}
	r := hkdf.New(sha256.New, []byte(masterKey), nil, []byte(hkdfInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("tokens: derive verifier key: %w", err)
	}
	return &Hasher{key: key}, nil
}

// Hash retorna el verificador (base64url sin padding).
func (h *Hasher) Hash(secret string) string {
	if h == nil || len(h.key) == 0 {
		return SHA256Base64URL(secret)
	}
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
