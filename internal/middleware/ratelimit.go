package middleware

import (
	"encoding/base64"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/ratelimit"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
)

const rateLimitMessage = "Too many requests, please try again later."

// RateLimit counts requests per client key and answers 429 once the window is
// exhausted. Paths in exempt are never counted. If the limiter errors the request
// is let through.
func RateLimit(limiter ratelimit.Limiter, logger *utils.Logger, exempt ...string) Middleware {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || skip[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Allow(r.Context(), ClientKey(r))
			if err != nil {
				logger.Warn("Rate limiter unavailable, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			resetSeconds := int(math.Ceil(time.Until(decision.Reset).Seconds()))
			if resetSeconds < 0 {
				resetSeconds = 0
			}
			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(resetSeconds))

			if !decision.Allowed {
				h.Set("Retry-After", strconv.Itoa(resetSeconds))
				writeError(w, http.StatusTooManyRequests, rateLimitMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey identifies a client by IP address plus a short user-agent fingerprint.
// The IP is the last X-Forwarded-For hop when present, as set by one trusted proxy.
func ClientKey(r *http.Request) string {
	userAgent := r.UserAgent()
	if userAgent == "" {
		userAgent = "unknown"
	}
	fingerprint := base64.StdEncoding.EncodeToString([]byte(userAgent))
	if len(fingerprint) > 10 {
		fingerprint = fingerprint[:10]
	}
	return clientIP(r) + ":" + fingerprint
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(hops[len(hops)-1]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
