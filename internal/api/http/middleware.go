package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"rentacar-backend/internal/config"
	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/security"
)

type contextKey string

const claimsKey contextKey = "claims"

// Caller is the authenticated user of a request.
type Caller struct {
	UserID string
	Role   domain.UserRole
}

func (c Caller) IsAdmin() bool {
	return c.Role == domain.UserRoleAdmin
}

// CallerFromContext returns the caller injected by AuthMiddleware.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(claimsKey).(Caller)
	return c, ok
}

// AuthMiddleware validates bearer tokens according to the security level of
// the matched route.
type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.SecurityAccess
		if route := mux.CurrentRoute(r); route != nil {
			level = config.GetSecurityLevel(route.GetName())
		}

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := extractToken(r)
		if !ok {
			writeError(w, r, domain.Unauthorized("authorization token is not provided"))
			return
		}
		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			writeError(w, r, domain.Unauthorized("invalid token: %v", err))
			return
		}

		caller := Caller{UserID: claims.UserID, Role: domain.UserRole(claims.Role)}
		if level == config.SecurityAdmin && !caller.IsAdmin() {
			writeError(w, r, domain.Forbidden("admin role required"))
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, caller)
		ctx = logger.ContextWith(ctx, "user_id", caller.UserID, "role", caller.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:]), true
	}
	return "", false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

const requestIDHeader = "X-Request-ID"

// loggingMiddleware tags the request with an id and logs one line per request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := logger.ContextWith(r.Context(), "request_id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		logger.InfoContext(ctx, "HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

// recoveryMiddleware turns handler panics into 500 responses.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.ErrorContext(r.Context(), "Handler panicked", "method", r.Method, "path", r.URL.Path, "panic", p)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: string(domain.KindInternal)})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
