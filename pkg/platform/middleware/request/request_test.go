package request

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/pkg/requestcontext"
)

type recordingObserver struct {
	route, method, status string
}

func (o *recordingObserver) ObserveRequest(route, method, status string, _ time.Duration) {
	o.route, o.method, o.status = route, method, status
}

func TestRequestIDGeneratesAndEchoes(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "caller-id")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "caller-id", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", 500))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, strings.Repeat("x", 500), seen)
}

func TestLoggerUsesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	obs := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(Logger(slog.New(slog.NewTextHandler(&buf, nil)), obs))
	r.Get("/v1/identities/{holder}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/identities/0xabc", nil))

	assert.Equal(t, "/v1/identities/{holder}", obs.route)
	assert.Equal(t, http.MethodGet, obs.method)
	assert.Equal(t, "404", obs.status)
	assert.Contains(t, buf.String(), "route=/v1/identities/{holder}")
}
