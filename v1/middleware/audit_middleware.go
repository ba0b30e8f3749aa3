package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	redisclient "github.com/clubworks/mms-backend/redisclient"
	"github.com/clubworks/mms-backend/v1/models"
	authutils "github.com/clubworks/mms-backend/v1/utils"
)

// AuditLogger records who changed what. Every write operation produces a
// structured log line; when redis is configured the event is also published
// to an audit stream for downstream consumers.
type AuditLogger struct {
	redis  *redisclient.RedisClient
	stream string
}

// NewAuditLogger creates an audit logger. redis may be nil, in which case
// events only go to the structured log.
func NewAuditLogger(redis *redisclient.RedisClient, stream string) *AuditLogger {
	if stream == "" {
		stream = "mms:audit"
	}
	return &AuditLogger{redis: redis, stream: stream}
}

// LogAudit records an audit event for a request. Read operations are
// skipped; only writes change state worth auditing.
func (a *AuditLogger) LogAudit(r *http.Request, resource models.ResourceType, resourceID string, status models.AuditStatus) {
	if !isWriteOperation(r.Method) {
		return
	}

	action := determineEventAction(r.Method)
	if action == "" {
		return
	}

	actor := "anonymous"
	if staff, err := authutils.GetAuthenticatedStaff(r.Context()); err == nil {
		actor = staff.Username
	}
	clientIP := authutils.GetRequestIP(r)
	timestamp := time.Now().UTC().Format(time.RFC3339)

	slog.Info("Audit event",
		"action", action,
		"resource", resource,
		"resourceId", resourceID,
		"status", status,
		"actor", actor,
		"ip", clientIP,
		"path", r.URL.Path)

	if a.redis == nil {
		return
	}

	// Fire-and-forget with a background context: the request context may be
	// cancelled before the publish completes.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		_, err := a.redis.PublishAuditEvent(ctx, a.stream, map[string]interface{}{
			"timestamp":  timestamp,
			"action":     action,
			"resource":   string(resource),
			"resourceId": resourceID,
			"status":     string(status),
			"actor":      actor,
			"ip":         clientIP,
		})
		if err != nil {
			slog.Warn("Failed to publish audit event", "error", err)
		}
	}()
}

// Helper functions
func isWriteOperation(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch || method == http.MethodDelete
}

func determineEventAction(method string) string {
	switch method {
	case http.MethodPost:
		return "CREATE"
	case http.MethodPut, http.MethodPatch:
		return "UPDATE"
	case http.MethodDelete:
		return "DELETE"
	default:
		return ""
	}
}
