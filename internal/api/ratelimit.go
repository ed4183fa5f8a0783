package api

import (
	"net"
	"net/http"

	"github.com/echomapapp/echomap-server/internal/http/response"
	"github.com/echomapapp/echomap-server/internal/ratelimit"
)

// Recommendation endpoints fan out to the LLM and catalog search, so
// they get a tighter per-client budget than the rest of the API.
const (
	recommendRPS   = 0.5
	recommendBurst = 3
)

// rateLimitRecommend throttles a handler per client IP.
func (s *Server) rateLimitRecommend(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// RealIP middleware has already resolved proxy headers.
		if !s.recommendLimiter.Allow(clientIP(r)) {
			response.Error(w, http.StatusTooManyRequests, "rate_limited",
				"too many recommendation requests, slow down", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newRecommendLimiter() *ratelimit.KeyedRateLimiter {
	return ratelimit.New(recommendRPS, recommendBurst)
}

// clientIP strips the ephemeral port from RemoteAddr so every connection
// from the same address shares one bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
