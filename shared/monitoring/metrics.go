package monitoring

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	initOnce sync.Once
	initErr  error
)

var (
	// routesMu protects routes and routeTemplates
	routesMu sync.RWMutex
	// routes is a set of static routes preserved as-is
	routes = make(map[string]bool)
	// routeTemplates holds templates like "/api/v1/members/:id/badges" that
	// are matched against incoming paths
	routeTemplates = make([]string, 0)
)

// Business event actions recorded by the services.
const (
	EventMemberCreated     = "member_created"
	EventMemberDeactivated = "member_deactivated"
	EventAttendanceMarked  = "attendance_marked"
	EventPaymentRecorded   = "payment_recorded"
	EventBadgeAwarded      = "badge_awarded"
	EventSweepExecuted     = "sweep_executed"
	EventStaffLogin        = "staff_login"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// ensureInitialized sets up OpenTelemetry with default config on first use.
// Observability can be disabled via ENABLE_OBSERVABILITY=false.
func ensureInitialized() {
	initOnce.Do(func() {
		if !getEnvBoolOrDefault("ENABLE_OBSERVABILITY", true) {
			slog.Info("Observability disabled via environment variable, skipping initialization")
			initErr = errors.New("observability disabled via environment variable")
			return
		}

		serviceName := os.Getenv("SERVICE_NAME")
		if serviceName == "" {
			serviceName = "mms-backend"
		}

		initErr = Initialize(DefaultConfig(serviceName))
		if initErr != nil {
			slog.Error("Failed to initialize OpenTelemetry metrics, metrics will be disabled",
				"error", initErr,
				"service", serviceName)
		}
	})
}

// IsInitialized returns true if metrics have been successfully initialized.
func IsInitialized() bool {
	ensureInitialized()
	return initErr == nil
}

// RegisterRoutes registers routes for normalization. Static routes are kept
// as-is; templates with :id or {id} placeholders match dynamic segments.
// Call during service initialization.
func RegisterRoutes(routesList []string) {
	routesMu.Lock()
	defer routesMu.Unlock()

	for _, route := range routesList {
		normalizedRoute := strings.ReplaceAll(route, "{id}", ":id")

		if strings.Contains(normalizedRoute, ":id") {
			routeTemplates = append(routeTemplates, normalizedRoute)
		} else {
			routes[route] = true
		}
	}
}

// Handler returns the metrics HTTP handler
func Handler() http.Handler {
	ensureInitialized()
	return otelHandler()
}

// HTTPMetricsMiddleware wraps an HTTP handler to record request metrics
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	ensureInitialized()
	return otelHTTPMetricsMiddleware(next)
}

// RecordStoreCall records a datastore (postgres, redis) call
func RecordStoreCall(target, operation string, duration time.Duration, err error) {
	ensureInitialized()
	otelRecordStoreCall(target, operation, duration, err)
}

// RecordBusinessEvent records a business event
func RecordBusinessEvent(action, outcome string) {
	ensureInitialized()
	otelRecordBusinessEvent(action, outcome)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizeRoute maps a request path to a registered route or template so
// metric cardinality stays bounded. Unrecognized paths with ID-looking
// segments get :id substituted; everything else becomes "unknown".
func normalizeRoute(path string) string {
	if path == "" || path == "/" {
		return "/"
	}

	parts := strings.Split(path, "/")
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return "/"
	}

	fullPath := "/" + strings.Join(parts, "/")

	routesMu.RLock()
	defer routesMu.RUnlock()
	if routes[fullPath] {
		return fullPath
	}

	for _, template := range routeTemplates {
		if matchesTemplate(template, parts) {
			return template
		}
	}

	// Fallback: substitute ID-looking segments of unregistered routes
	if len(parts) >= 2 && len(parts) <= 6 {
		normalized := make([]string, len(parts))
		copy(normalized, parts)
		idFound := false
		for i, part := range parts {
			if i < 2 && len(part) <= 3 {
				continue // skip api/v1 prefix segments
			}
			if looksLikeID(part) && !isCommonPathWord(part) {
				normalized[i] = ":id"
				idFound = true
			}
		}
		if idFound {
			return "/" + strings.Join(normalized, "/")
		}
	}

	return "unknown"
}

// matchesTemplate checks if path segments match a route template.
func matchesTemplate(template string, pathParts []string) bool {
	templateParts := strings.Split(template, "/")
	if len(templateParts) > 0 && templateParts[0] == "" {
		templateParts = templateParts[1:]
	}

	if len(pathParts) != len(templateParts) {
		return false
	}

	for i := 0; i < len(pathParts); i++ {
		if templateParts[i] == ":id" {
			continue
		}
		if pathParts[i] != templateParts[i] {
			return false
		}
	}

	return true
}

// looksLikeID checks if a segment looks like a dynamic identifier
func looksLikeID(s string) bool {
	if s == "" {
		return false
	}

	// UUID-like
	if len(s) == 36 && strings.Count(s, "-") == 4 {
		return true
	}
	// prefixed IDs like "pay_abc123" or "M-0042"
	if (strings.Contains(s, "_") || strings.Contains(s, "-")) && strings.ContainsAny(s, "0123456789") {
		return true
	}

	allNumeric := true
	for _, r := range s {
		if r < '0' || r > '9' {
			allNumeric = false
			break
		}
	}
	if allNumeric {
		return true
	}

	// short alphanumeric member IDs like "AB012"
	if len(s) >= 4 {
		alphanumeric := true
		for _, r := range s {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
				alphanumeric = false
				break
			}
		}
		if alphanumeric && strings.ContainsAny(s, "0123456789") {
			return true
		}
	}

	return false
}

// isCommonPathWord filters path vocabulary that should never be treated as an ID.
func isCommonPathWord(word string) bool {
	if len(word) <= 2 {
		return true
	}
	commonWords := map[string]bool{
		"api": true, "v1": true,
		"members": true, "member": true, "meetings": true, "meeting": true,
		"attendance": true, "payments": true, "payment": true,
		"badges": true, "badge": true, "engagement": true,
		"dashboard": true, "reports": true, "exports": true,
		"staff": true, "auth": true, "login": true, "register": true,
		"bulk": true, "heatmap": true, "statistics": true, "sweep": true,
		"lifecycle": true, "search": true, "healthz": true, "metrics": true,
	}
	return commonWords[strings.ToLower(word)]
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	value = strings.ToLower(strings.TrimSpace(value))
	return value == "true" || value == "1" || value == "yes" || value == "on"
}
