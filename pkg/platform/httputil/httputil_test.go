package httputil

import (
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

	dErrors "vouch/pkg/domain-errors"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "internal_error", body["error"])
		assert.NotContains(t, body, "error_description")
	})

	t.Run("plain error is treated as internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("connection reset"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, decodeBody(t, w), "error_description")
	})

	t.Run("wrapped domain error keeps its status", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := dErrors.New(dErrors.CodeSelfEndorsement, "cannot endorse yourself")
		WriteError(w, errors.Join(errors.New("context"), err))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "self_endorsement", body["error"])
		assert.Equal(t, "cannot endorse yourself", body["error_description"])
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeNotFound:           http.StatusNotFound,
		dErrors.CodeAlreadyExists:      http.StatusConflict,
		dErrors.CodeInvalidRating:      http.StatusUnprocessableEntity,
		dErrors.CodeUnknownIdentity:    http.StatusUnprocessableEntity,
		dErrors.CodeBadRequest:         http.StatusBadRequest,
		dErrors.CodeUnauthorized:       http.StatusUnauthorized,
		dErrors.CodeForbidden:          http.StatusForbidden,
		dErrors.CodeTimeout:            http.StatusGatewayTimeout,
		dErrors.CodeTransactionAborted: http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFor(code), string(code))
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Rating int `json:"rating"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":4}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, 4, dst.Rating)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":4,"extra":1}`))
	err := DecodeJSON(r, &dst)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

type ratingBody struct {
	Rating int `json:"rating"`
}

func (b *ratingBody) Validate() error {
	if b.Rating < 1 {
		return dErrors.New(dErrors.CodeInvalidRating, "rating must be at least 1")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":3}`))
		body, ok := DecodeAndPrepare[ratingBody](w, r, logger)
		require.True(t, ok)
		assert.Equal(t, 3, body.Rating)
	})

	t.Run("validation failure writes the error", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":0}`))
		_, ok := DecodeAndPrepare[ratingBody](w, r, logger)
		require.False(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "invalid_rating", decodeBody(t, w)["error"])
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		_, ok := DecodeAndPrepare[ratingBody](w, r, logger)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
