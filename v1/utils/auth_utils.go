package utils

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/clubworks/mms-backend/v1/models"
)

// AuthContextKey is the key used to store authentication context in request context
type AuthContextKey string

const (
	// AuthContextKeyStaff holds the authenticated staff identity.
	AuthContextKeyStaff AuthContextKey = "authenticated_staff"
)

// ExtractBearerToken extracts the Bearer token from the Authorization header.
// It returns an error if the header is missing, does not use the Bearer
// scheme, or carries an empty token.
func ExtractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("authorization header must start with 'Bearer '")
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", fmt.Errorf("bearer token is empty")
	}

	return token, nil
}

// SetAuthenticatedStaff sets the authenticated staff identity in the context
func SetAuthenticatedStaff(ctx context.Context, staff *models.AuthenticatedStaff) context.Context {
	return context.WithValue(ctx, AuthContextKeyStaff, staff)
}

// GetAuthenticatedStaff retrieves the authenticated staff identity from the context
func GetAuthenticatedStaff(ctx context.Context) (*models.AuthenticatedStaff, error) {
	staff, ok := ctx.Value(AuthContextKeyStaff).(*models.AuthenticatedStaff)
	if !ok || staff == nil {
		return nil, fmt.Errorf("no authenticated staff found in context")
	}
	return staff, nil
}

// RequireStaff returns the authenticated staff or an error when the request
// is unauthenticated.
func RequireStaff(r *http.Request) (*models.AuthenticatedStaff, error) {
	return GetAuthenticatedStaff(r.Context())
}

// RequireSuperuser returns the authenticated staff only when they hold the
// superuser flag.
func RequireSuperuser(r *http.Request) (*models.AuthenticatedStaff, error) {
	staff, err := RequireStaff(r)
	if err != nil {
		return nil, err
	}
	if !staff.IsSuperuser {
		return nil, fmt.Errorf("superuser privileges required")
	}
	return staff, nil
}

// GetRequestIP extracts the client IP address from the request
func GetRequestIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if r.RemoteAddr != "" {
		// RemoteAddr is "IP:port"
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			return r.RemoteAddr[:idx]
		}
		return r.RemoteAddr
	}

	return "unknown"
}
