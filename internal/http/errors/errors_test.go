package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_ServerErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/connect/sessions", nil)
	WriteError(rec, req, errors.New(`duplicate key value violates unique constraint "private_keys_hash_uniq"`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "private_keys")

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "server_error", body["error"]["code"])
}

func TestWriteError_WithErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, nil, ErrInvalidBody.WithErrors([]map[string]any{{"path": []any{"allowed_integrations", 0}}}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"invalid_body","errors":[{"path":["allowed_integrations",0]}]}}`, rec.Body.String())
}

func TestCopyOnWrite(t *testing.T) {
	e := ErrForbidden.WithMessage("nope")
	assert.Equal(t, "nope", e.Message)
	assert.NotEqual(t, "nope", ErrForbidden.Message)
}
