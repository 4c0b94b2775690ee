package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

type contextKey struct{}

// Client identifies the sender of a request. IP keys the rate limiter,
// Session correlates abuse warnings across addresses behind one proxy.
type Client struct {
	IP      string
	Session string
}

const unknownClient = "unknown"

// ClientIdentifier resolves the Client of every request and stores it in the
// request context.
func ClientIdentifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ctx := WithClient(r.Context(), Client{
			IP:      ip,
			Session: fingerprint(r, ip),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithClient returns a copy of ctx carrying c.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// clientIP prefers the first forwarded hop, then X-Real-IP, then Cloudflare,
// then the peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	for _, h := range []string{"X-Real-IP", "CF-Connecting-IP"} {
		if ip := strings.TrimSpace(r.Header.Get(h)); ip != "" {
			return ip
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return unknownClient
}

// fingerprint hashes the headers a signup form sends on every request.
func fingerprint(r *http.Request, ip string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		ip,
		r.Header.Get("User-Agent"),
		r.Header.Get("Accept-Language"),
	}, "|")))
	return hex.EncodeToString(sum[:16])
}

func clientFrom(ctx context.Context) (Client, bool) {
	c, ok := ctx.Value(contextKey{}).(Client)
	return c, ok
}

// GetClientIP returns the client IP stored by ClientIdentifier.
func GetClientIP(ctx context.Context) string {
	if c, ok := clientFrom(ctx); ok && c.IP != "" {
		return c.IP
	}
	return unknownClient
}

// GetClientSession returns the session fingerprint stored by ClientIdentifier.
func GetClientSession(ctx context.Context) string {
	if c, ok := clientFrom(ctx); ok && c.Session != "" {
		return c.Session
	}
	return unknownClient
}
