package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/time/rate"
)

type contextKey string

// userIDKey carries the authenticated user's id through the request context
const userIDKey contextKey = "userID"

// userIDFromContext returns the authenticated user's id set by requireAuth
func userIDFromContext(ctx context.Context) pgtype.UUID {
	id, _ := ctx.Value(userIDKey).(pgtype.UUID)
	return id
}

// requireAuth validates the bearer token and injects the user id into the
// request context
func (s *Service) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Missing authorization header", http.StatusUnauthorized)
			return
		}

		userID, err := s.validateToken(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// requireAdmin is requireAuth plus a role check
func (s *Service) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := userIDFromContext(ctx)

		user, err := s.db.UserFindById(ctx, userID)
		if err != nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}
		if user.Role != "admin" {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}

		next(w, r)
	})
}

// withCORS adds CORS headers and answers preflight requests
func (s *Service) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies the global per-client request limit
func (s *Service) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAILimit applies the stricter per-user limit for generation endpoints.
// Must run inside requireAuth so the user id is available.
func (s *Service) withAILimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromContext(r.Context())
		if !s.aiLimiter.allow(uuid.UUID(userID.Bytes).String()) {
			http.Error(w, "Too many generation requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientLimiter keeps a token bucket per client key
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perMin   int
}

func newClientLimiter(perMin int) *clientLimiter {
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		perMin:   perMin,
	}
}

func (c *clientLimiter) allow(key string) bool {
	if c.perMin <= 0 {
		return true
	}

	c.mu.Lock()
	limiter, ok := c.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(c.perMin)/60.0), c.perMin)
		c.limiters[key] = limiter
	}
	c.mu.Unlock()

	return limiter.Allow()
}

// clientIP extracts the client address for rate limiting
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if i := strings.IndexByte(forwarded, ','); i >= 0 {
			return strings.TrimSpace(forwarded[:i])
		}
		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
