package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kyle-mirich/church-fathers-reader/pkg/common"
)

// Logger returns middleware that writes one access-log line per request,
// carrying the request id so handler logs can be correlated with it. Server
// failures are raised to error level.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("remoteAddr", r.RemoteAddr),
			}
			if reqID := requestID(r); reqID != "" {
				fields = append(fields, zap.String("requestId", reqID))
			}
			if userID, ok := common.GetUserID(r.Context()); ok {
				fields = append(fields, zap.String("userId", userID))
			}

			switch {
			case ww.Status() >= http.StatusInternalServerError:
				logger.Error("request completed", fields...)
			case ww.Status() >= http.StatusBadRequest:
				logger.Warn("request completed", fields...)
			default:
				logger.Info("request completed", fields...)
			}
		})
	}
}

// requestID prefers the id placed in the context by chi's RequestID
// middleware and falls back to the client-supplied header.
func requestID(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
