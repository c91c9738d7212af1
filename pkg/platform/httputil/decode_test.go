package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "clubid/pkg/domain-errors"
)

type plainRequest struct {
	Role string `json:"role"`
}

type preparedRequest struct {
	Role      string `json:"role"`
	sanitized bool
}

func (r *preparedRequest) Sanitize()  { r.sanitized = true; r.Role = strings.TrimSpace(r.Role) }
func (r *preparedRequest) Normalize() { r.Role = strings.ToLower(r.Role) }
func (r *preparedRequest) Validate() error {
	if r.Role == "" {
		return errors.New("role is required")
	}
	return nil
}

type domainValidated struct {
	ID string `json:"id"`
}

func (r *domainValidated) Validate() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	return nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDecodeJSON(t *testing.T) {
	t.Run("decodes body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"role":"coach"}`))
		w := httptest.NewRecorder()

		got, ok := DecodeJSON[plainRequest](w, r, discardLogger())
		require.True(t, ok)
		assert.Equal(t, "coach", got.Role)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{nope`))
		w := httptest.NewRecorder()

		got, ok := DecodeJSON[plainRequest](w, r, discardLogger())
		assert.False(t, ok)
		assert.Nil(t, got)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeError(t, w).Error)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		big := `{"role":"` + strings.Repeat("a", MaxBodySize) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(big))
		w := httptest.NewRecorder()

		_, ok := DecodeJSON[plainRequest](w, r, discardLogger())
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("runs sanitize normalize validate", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"role":"  COACH "}`))
		w := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[preparedRequest](w, r, discardLogger())
		require.True(t, ok)
		assert.True(t, got.sanitized)
		assert.Equal(t, "coach", got.Role)
	})

	t.Run("plain validation errors become validation_error", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"role":"   "}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[preparedRequest](w, r, discardLogger())
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "validation_error", resp.Error)
		assert.Contains(t, resp.ErrorDescription, "role is required")
	})

	t.Run("domain errors keep their code", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"id":""}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[domainValidated](w, r, discardLogger())
		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeError(t, w).Error)
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
	}{
		{dErrors.CodeNotFound, http.StatusNotFound},
		{dErrors.CodeValidation, http.StatusBadRequest},
		{dErrors.CodeConflict, http.StatusConflict},
		{dErrors.CodeInvalidState, http.StatusConflict},
		{dErrors.CodeForbidden, http.StatusForbidden},
		{dErrors.CodeUnauthorized, http.StatusUnauthorized},
		{dErrors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(tc.code, "message"))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, string(tc.code), decodeError(t, w).Error)
		})
	}

	t.Run("unknown errors hide their message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("pq: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, decodeError(t, w).ErrorDescription)
	})
}
