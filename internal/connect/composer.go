package connect

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dbMundada/nango/internal/credentials"
)

// SessionTokenParam es el query param que transporta el token en connect_link.
const SessionTokenParam = "session_token"

// ExpiresAtLayout es ISO-8601 en UTC con milisegundos.
const ExpiresAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Response es el payload de una sesión emitida.
type Response struct {
	Token       string `json:"token"`
	ConnectLink string `json:"connect_link"`
	ExpiresAt   string `json:"expires_at"`
}

// Compose arma la respuesta. expires_at sale de meta sin recalcular.
func Compose(baseURL, secret string, meta *credentials.Metadata) (Response, error) {
	if meta == nil {
		return Response{}, errors.New("connect: compose: missing credential metadata")
	}
	link, err := ConnectLink(baseURL, secret)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Token:       secret,
		ConnectLink: link,
		ExpiresAt:   FormatExpiresAt(meta.ExpiresAt),
	}, nil
}

// ConnectLink agrega el token como query param a baseURL.
func ConnectLink(baseURL, secret string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("connect: parse ui url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("connect: ui url %q is not absolute", baseURL)
	}
	q := u.Query()
	q.Set(SessionTokenParam, secret)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FormatExpiresAt formatea una expiración para la API.
func FormatExpiresAt(t time.Time) string {
	return t.UTC().Format(ExpiresAtLayout)
}
