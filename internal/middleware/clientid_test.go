package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"forwarded first hop", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, "203.0.113.7"},
		{"real ip", "10.0.0.1:1234", map[string]string{"X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"cloudflare", "10.0.0.1:1234", map[string]string{"CF-Connecting-IP": "192.0.2.9"}, "192.0.2.9"},
		{"remote addr", "192.0.2.1:5555", nil, "192.0.2.1"},
		{"remote addr ipv6", "[2001:db8::1]:443", nil, "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotIP, gotSession string
			h := ClientIdentifier(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotIP = GetClientIP(r.Context())
				gotSession = GetClientSession(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/waitlist", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, gotIP)
			assert.Len(t, gotSession, 32)
		})
	}
}

func TestGetClientIP_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "unknown", GetClientIP(req.Context()))
	assert.Equal(t, "unknown", GetClientSession(req.Context()))
}

func TestClientIdentifier_SessionStableAcrossRequests(t *testing.T) {
	var sessions []string
	h := ClientIdentifier(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessions = append(sessions, GetClientSession(r.Context()))
	}))

	for _, ua := range []string{"Mozilla/5.0", "Mozilla/5.0", "curl/8.0"} {
		req := httptest.NewRequest(http.MethodPost, "/api/waitlist", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		req.Header.Set("User-Agent", ua)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, sessions[0], sessions[1])
	assert.NotEqual(t, sessions[0], sessions[2])
}

func TestWithClient(t *testing.T) {
	ctx := WithClient(httptest.NewRequest(http.MethodGet, "/", nil).Context(), Client{IP: "192.0.2.10", Session: "abc"})
	assert.Equal(t, "192.0.2.10", GetClientIP(ctx))
	assert.Equal(t, "abc", GetClientSession(ctx))
}
