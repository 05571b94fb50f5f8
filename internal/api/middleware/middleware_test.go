package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeypot-lab/internal/config"
	"honeypot-lab/pkg/logger"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetAPIKey(r.Context())))
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		method   string
		header   string
		value    string
		wantCode int
	}{
		{"valid key", "secret", http.MethodPost, "x-api-key", "secret", http.StatusOK},
		{"header is case-insensitive", "secret", http.MethodPost, "X-Api-Key", "secret", http.StatusOK},
		{"missing key", "secret", http.MethodPost, "", "", http.StatusUnauthorized},
		{"wrong key", "secret", http.MethodPost, "x-api-key", "guess", http.StatusUnauthorized},
		{"prefix of key", "secret", http.MethodPost, "x-api-key", "secre", http.StatusUnauthorized},
		{"unset key rejects all", "", http.MethodPost, "x-api-key", "", http.StatusUnauthorized},
		{"unset key rejects anything", "", http.MethodPost, "x-api-key", "anything", http.StatusUnauthorized},
		{"preflight passes", "secret", http.MethodOptions, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := APIKeyAuth("", tt.key)(http.HandlerFunc(okHandler))

			req := httptest.NewRequest(tt.method, "/honeypot", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusUnauthorized {
				var body map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, "Unauthorized", body["error"])
			}
		})
	}
}

func TestAPIKeyAuth_StoresKeyInContext(t *testing.T) {
	h := APIKeyAuth("x-token", "secret")(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("x-token", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "secret", rec.Body.String())
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/honeypot", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRecoverer_AbortHandlerPropagates(t *testing.T) {
	h := Recoverer(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRateLimiter_DisabledWithoutCache(t *testing.T) {
	h := RateLimiter(nil, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}, logger.NewNop())(http.HandlerFunc(okHandler))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestGetClientID(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"host and port", "10.0.0.7:5555", "ip:10.0.0.7"},
		{"bare host", "10.0.0.8", "ip:10.0.0.8"},
		{"ipv6", "[::1]:1234", "ip:::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := APIKeyAuth("", "secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(getClientID(r)))
			}))

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			req.Header.Set("x-api-key", "secret")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}
