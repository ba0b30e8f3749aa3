package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	sharedutils "github.com/clubworks/mms-backend/shared/utils"
	"github.com/clubworks/mms-backend/v1/models"
	authutils "github.com/clubworks/mms-backend/v1/utils"
)

// TokenParser validates a token string and returns the staff identity it
// carries. StaffService implements it.
type TokenParser interface {
	ParseToken(tokenString string) (*models.AuthenticatedStaff, error)
}

// StaffAuthMiddleware authenticates staff requests via Bearer tokens.
type StaffAuthMiddleware struct {
	parser    TokenParser
	skipPaths []string
}

// NewStaffAuthMiddleware creates the middleware. skipPaths are matched by
// prefix and bypass authentication (health, metrics, login).
func NewStaffAuthMiddleware(parser TokenParser, skipPaths []string) *StaffAuthMiddleware {
	return &StaffAuthMiddleware{parser: parser, skipPaths: skipPaths}
}

// Authenticate validates the Bearer token and stores the staff identity in
// the request context.
func (m *StaffAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := authutils.ExtractBearerToken(r)
		if err != nil {
			slog.Warn("Failed to extract bearer token", "error", err, "path", r.URL.Path, "method", r.Method)
			sharedutils.RespondWithError(w, http.StatusUnauthorized, "Invalid or missing authorization header")
			return
		}

		staff, err := m.parser.ParseToken(tokenString)
		if err != nil {
			slog.Warn("Token validation failed", "error", err, "path", r.URL.Path, "method", r.Method)
			sharedutils.RespondWithError(w, http.StatusUnauthorized, "Invalid access token")
			return
		}

		if staff.IsTokenExpired() {
			slog.Warn("Token is expired", "expiry", staff.ExpiresAt, "username", staff.Username)
			sharedutils.RespondWithError(w, http.StatusUnauthorized, "Access token has expired")
			return
		}

		ctx := authutils.SetAuthenticatedStaff(r.Context(), staff)

		slog.Debug("Staff authenticated",
			"staffId", staff.StaffID,
			"username", staff.Username,
			"path", r.URL.Path,
			"method", r.Method)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSuperuser wraps a handler so only superusers reach it. Apply after
// Authenticate.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		staff, err := authutils.RequireSuperuser(r)
		if err != nil {
			slog.Warn("Superuser check failed", "error", err, "path", r.URL.Path)
			sharedutils.RespondWithError(w, http.StatusForbidden, "Superuser privileges required")
			return
		}
		slog.Debug("Superuser access", "staffId", staff.StaffID, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (m *StaffAuthMiddleware) shouldSkipAuth(path string) bool {
	for _, skip := range m.skipPaths {
		if path == skip || strings.HasPrefix(path, skip+"/") {
			return true
		}
	}
	return false
}
