// Package helpers tiene utilidades HTTP compartidas por los controllers.
package helpers

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
)

// MaxBodyBytes limita el body de los requests JSON.
const MaxBodyBytes = 1 << 20

// WriteJSON escribe una respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// IsJSON reporta si el Content-Type es JSON. Un request sin Content-Type
// se acepta.
func IsJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}

// LimitBody envuelve el body con un límite de MaxBodyBytes.
func LimitBody(w http.ResponseWriter, r *http.Request) io.ReadCloser {
	return http.MaxBytesReader(w, r.Body, MaxBodyBytes)
}
