package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"no trusted proxies ignores header", nil, "203.0.113.9:5000", map[string]string{"X-Real-IP": "10.9.9.9"}, "203.0.113.9"},
		{"trusted proxy real ip", []string{"10.0.0.0/8"}, "10.0.0.2:443", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"trusted single address", []string{"127.0.0.1"}, "127.0.0.1:80", map[string]string{"X-Forwarded-For": "198.51.100.8, 10.0.0.1"}, "198.51.100.8"},
		{"untrusted source", []string{"10.0.0.0/8"}, "192.0.2.1:1", map[string]string{"X-Real-IP": "198.51.100.7"}, "192.0.2.1"},
		{"garbage header kept out", []string{"10.0.0.0/8"}, "10.1.1.1:1", map[string]string{"X-Real-IP": "not-an-ip"}, "10.1.1.1"},
		{"invalid entry skipped", []string{"bogus", "10.0.0.0/8"}, "10.1.1.1:1", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientIP(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("client ip = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	open := APIKeyAuth(false, nil)(ok)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("disabled auth: status = %d", rec.Code)
	}

	locked := APIKeyAuth(true, nil)(ok)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "anything")
	rec = httptest.NewRecorder()
	locked.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("no keys configured: status = %d, want 403", rec.Code)
	}
}
