// Package errors define el AppError de la API y cómo se escribe.
//
// Toda respuesta de error usa el envelope {"error": {...}}. La causa
// (AppError.Err) nunca se serializa; los 5xx se loguean con ella.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dbMundada/nango/internal/observability/logger"
)

type envelope struct {
	Error *AppError `json:"error"`
}

// WriteError escribe el error. Los 5xx se loguean con la causa usando el
// logger del request.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)

	if appErr.HTTPStatus >= 500 && r != nil {
		logger.From(r.Context()).Error("request failed",
			logger.Layer("http"),
			logger.String("code", appErr.Code),
			logger.Err(appErr.Err),
		)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(envelope{Error: appErr})
}
