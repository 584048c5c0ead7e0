// Package middleware holds the HTTP middleware for the REST surface.
package middleware

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kyle-mirich/church-fathers-reader/pkg/auth"
	"github.com/kyle-mirich/church-fathers-reader/pkg/common"
)

// Authenticator resolves the reader identity for each request. A bearer
// token is verified against the configured secret; outside production a
// bare session id via the X-Session-ID header or the sessionId query
// parameter is accepted instead, which is how the frontend runs before any
// real login exists.
type Authenticator struct {
	validator    *auth.TokenValidator
	allowSession bool
	ipLimiter    auth.RateLimiter
	userLimiter  auth.RateLimiter
	logger       *zap.Logger
}

func NewAuthenticator(validator *auth.TokenValidator, allowSession bool, ipLimiter, userLimiter auth.RateLimiter, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		validator:    validator,
		allowSession: allowSession,
		ipLimiter:    ipLimiter,
		userLimiter:  userLimiter,
		logger:       logger,
	}
}

// Middleware authenticates the request and stores the reader id in the
// request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allowed, _ := a.ipLimiter.Allow(r.Context(), clientIP(r)); !allowed {
			common.RespondError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "rate limit exceeded")
			return
		}

		userID, ok := a.resolveIdentity(r)
		if !ok {
			common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
			return
		}

		if allowed, _ := a.userLimiter.Allow(r.Context(), userID); !allowed {
			common.RespondError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "rate limit exceeded")
			return
		}

		ctx := common.EnrichContext(r.Context(), userID, common.ExtractRequestID(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) resolveIdentity(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimPrefix(header, "Bearer ")
		userID, err := a.validator.Validate(token)
		if err != nil {
			a.logger.Debug("token rejected", zap.Error(err))
			return "", false
		}
		return userID, true
	}

	if a.allowSession {
		if id := r.Header.Get("X-Session-ID"); id != "" {
			return id, true
		}
		if id := r.URL.Query().Get("sessionId"); id != "" {
			return id, true
		}
	}
	return "", false
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
