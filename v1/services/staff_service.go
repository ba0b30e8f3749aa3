package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/clubworks/mms-backend/config"
	"github.com/clubworks/mms-backend/pkg/errors"
	redisclient "github.com/clubworks/mms-backend/redisclient"
	"github.com/clubworks/mms-backend/shared/monitoring"
	"github.com/clubworks/mms-backend/v1/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// StaffService manages staff accounts and authentication. Repeated failed
// logins lock the account for a cooling-off period; the failure counters
// live in redis when available so the lockout holds across instances.
type StaffService struct {
	db    *gorm.DB
	cfg   config.AuthConfig
	redis *redisclient.RedisClient

	mu       sync.Mutex
	failures map[string]*failureWindow
}

// failureWindow is the in-memory fallback for failed-login tracking.
type failureWindow struct {
	count     int64
	expiresAt time.Time
}

// NewStaffService creates a new staff service. redis may be nil.
func NewStaffService(db *gorm.DB, cfg config.AuthConfig, redis *redisclient.RedisClient) *StaffService {
	if cfg.MaxLoginFailures < 1 {
		cfg.MaxLoginFailures = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 8 * time.Hour
	}
	return &StaffService{
		db:       db,
		cfg:      cfg,
		redis:    redis,
		failures: make(map[string]*failureWindow),
	}
}

// Register creates a staff account.
func (s *StaffService) Register(req *models.CreateStaffRequest) (*models.StaffResponse, error) {
	fieldErrs := make(map[string]string)
	username := strings.TrimSpace(strings.ToLower(req.Username))
	if username == "" {
		fieldErrs["username"] = "username is required"
	}
	if len(req.Password) < 8 {
		fieldErrs["password"] = "password must be at least 8 characters"
	}
	if strings.TrimSpace(req.Email) != "" && !strings.Contains(req.Email, "@") {
		fieldErrs["email"] = "email is invalid"
	}
	if len(fieldErrs) > 0 {
		return nil, errors.FieldValidationError(fieldErrs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.InternalErrorWithCause("failed to hash password", err)
	}

	staff := models.StaffUser{
		StaffID:      "stf_" + uuid.New().String(),
		Username:     username,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		IsSuperuser:  req.IsSuperuser,
		IsActive:     true,
	}
	if err := s.db.Create(&staff).Error; err != nil {
		apiErr := errors.HandleDatabaseError(err, "staff account", "register staff")
		if apiErr.Type == errors.ErrorTypeConflict {
			return nil, errors.ConflictError(fmt.Sprintf("username %s is taken", username))
		}
		return nil, apiErr
	}

	slog.Info("Staff account created", "staffId", staff.StaffID, "username", staff.Username)
	resp := toStaffResponse(&staff)
	return &resp, nil
}

// Login verifies credentials and issues a signed token. Failures count
// toward the lockout regardless of whether the username exists, so probing
// is as expensive as guessing.
func (s *StaffService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	username := strings.TrimSpace(strings.ToLower(req.Username))
	if username == "" || req.Password == "" {
		return nil, errors.ValidationError("MISSING_CREDENTIALS", "username and password are required")
	}

	if locked, retryAfter := s.isLocked(ctx, username); locked {
		monitoring.RecordBusinessEvent(monitoring.EventStaffLogin, monitoring.OutcomeFailure)
		return nil, errors.AccountLockedError(retryAfter)
	}

	var staff models.StaffUser
	err := s.db.First(&staff, "username = ?", username).Error
	if err == gorm.ErrRecordNotFound {
		s.recordFailure(ctx, username)
		monitoring.RecordBusinessEvent(monitoring.EventStaffLogin, monitoring.OutcomeFailure)
		return nil, errors.UnauthorizedError("invalid credentials")
	}
	if err != nil {
		return nil, errors.DatabaseError("load staff account", err)
	}

	if !staff.IsActive {
		monitoring.RecordBusinessEvent(monitoring.EventStaffLogin, monitoring.OutcomeFailure)
		return nil, errors.ForbiddenError("account is disabled")
	}

	if bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)) != nil {
		s.recordFailure(ctx, username)
		monitoring.RecordBusinessEvent(monitoring.EventStaffLogin, monitoring.OutcomeFailure)
		return nil, errors.UnauthorizedError("invalid credentials")
	}

	s.clearFailures(ctx, username)

	expiresAt := time.Now().Add(s.cfg.TokenTTL)
	token, err := s.issueToken(&staff, expiresAt)
	if err != nil {
		return nil, errors.InternalErrorWithCause("failed to issue token", err)
	}

	slog.Info("Staff login", "staffId", staff.StaffID, "username", staff.Username)
	monitoring.RecordBusinessEvent(monitoring.EventStaffLogin, monitoring.OutcomeSuccess)

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		Staff:     toStaffResponse(&staff),
	}, nil
}

// ParseToken validates a token and returns the authenticated staff identity.
// An unconfigured secret rejects every token; otherwise anything HMAC-signed
// with the empty key would verify.
func (s *StaffService) ParseToken(tokenString string) (*models.AuthenticatedStaff, error) {
	if s.cfg.JWTSecret == "" {
		return nil, errors.UnauthorizedError("invalid or expired token")
	}
	claims := &models.StaffClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.UnauthorizedError("invalid or expired token")
	}

	auth := &models.AuthenticatedStaff{
		StaffID:     claims.Subject,
		Username:    claims.Username,
		IsSuperuser: claims.IsSuperuser,
	}
	if claims.ExpiresAt != nil {
		auth.ExpiresAt = claims.ExpiresAt.Time
	}
	return auth, nil
}

// ChangePassword verifies the current password and sets a new one.
func (s *StaffService) ChangePassword(staffID string, req *models.ChangePasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return errors.FieldValidationError(map[string]string{"newPassword": "password must be at least 8 characters"})
	}

	var staff models.StaffUser
	if err := s.db.First(&staff, "staff_id = ?", staffID).Error; err != nil {
		return errors.HandleDatabaseError(err, "staff account", "change password")
	}

	if bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return errors.UnauthorizedError("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.InternalErrorWithCause("failed to hash password", err)
	}

	if err := s.db.Model(&staff).Update("password_hash", string(hash)).Error; err != nil {
		return errors.DatabaseError("change password", err)
	}

	slog.Info("Staff password changed", "staffId", staffID)
	return nil
}

// GetStaff retrieves a staff account by ID
func (s *StaffService) GetStaff(staffID string) (*models.StaffResponse, error) {
	var staff models.StaffUser
	if err := s.db.First(&staff, "staff_id = ?", staffID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "staff account", "get staff")
	}
	resp := toStaffResponse(&staff)
	return &resp, nil
}

// ListStaff returns all staff accounts.
func (s *StaffService) ListStaff() ([]models.StaffResponse, error) {
	var staff []models.StaffUser
	if err := s.db.Order("username").Find(&staff).Error; err != nil {
		return nil, errors.DatabaseError("list staff", err)
	}
	responses := make([]models.StaffResponse, 0, len(staff))
	for i := range staff {
		responses = append(responses, toStaffResponse(&staff[i]))
	}
	return responses, nil
}

// UpdateStaff edits a staff account.
func (s *StaffService) UpdateStaff(staffID string, req *models.UpdateStaffRequest) (*models.StaffResponse, error) {
	var staff models.StaffUser
	if err := s.db.First(&staff, "staff_id = ?", staffID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "staff account", "update staff")
	}

	if req.FirstName != nil {
		staff.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		staff.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		staff.Email = strings.TrimSpace(*req.Email)
	}
	if req.IsSuperuser != nil {
		staff.IsSuperuser = *req.IsSuperuser
	}
	if req.IsActive != nil {
		staff.IsActive = *req.IsActive
	}

	if err := s.db.Save(&staff).Error; err != nil {
		return nil, errors.DatabaseError("update staff", err)
	}

	slog.Info("Staff account updated", "staffId", staffID)
	resp := toStaffResponse(&staff)
	return &resp, nil
}

// DeleteStaff removes a staff account.
func (s *StaffService) DeleteStaff(staffID string) error {
	result := s.db.Delete(&models.StaffUser{}, "staff_id = ?", staffID)
	if result.Error != nil {
		return errors.DatabaseError("delete staff", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundError("staff account")
	}
	slog.Info("Staff account deleted", "staffId", staffID)
	return nil
}

// issueToken signs an HS256 token for the staff account.
func (s *StaffService) issueToken(staff *models.StaffUser, expiresAt time.Time) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret is not configured")
	}
	claims := models.StaffClaims{
		Username:    staff.Username,
		IsSuperuser: staff.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.StaffID,
			Issuer:    "mms-backend",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func lockoutKey(username string) string {
	return "login-failures:" + username
}

// isLocked reports whether the account has hit the failure limit, and how
// long until the window expires.
func (s *StaffService) isLocked(ctx context.Context, username string) (bool, time.Duration) {
	if s.redis != nil {
		count, err := s.redis.GetCount(ctx, lockoutKey(username))
		if err != nil {
			slog.Warn("Lockout check failed, allowing attempt", "error", err)
			return false, 0
		}
		if count >= int64(s.cfg.MaxLoginFailures) {
			ttl, _ := s.redis.TTL(ctx, lockoutKey(username))
			return true, ttl
		}
		return false, 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	window, ok := s.failures[username]
	if !ok || time.Now().After(window.expiresAt) {
		return false, 0
	}
	if window.count >= int64(s.cfg.MaxLoginFailures) {
		return true, time.Until(window.expiresAt)
	}
	return false, 0
}

// recordFailure bumps the failure counter; the window starts at the first
// miss.
func (s *StaffService) recordFailure(ctx context.Context, username string) {
	if s.redis != nil {
		if _, err := s.redis.IncrementWithTTL(ctx, lockoutKey(username), s.cfg.LockoutDuration); err != nil {
			slog.Warn("Failed to record login failure", "error", err)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	window, ok := s.failures[username]
	if !ok || time.Now().After(window.expiresAt) {
		s.failures[username] = &failureWindow{
			count:     1,
			expiresAt: time.Now().Add(s.cfg.LockoutDuration),
		}
		return
	}
	window.count++
}

// clearFailures resets the counter after a successful login.
func (s *StaffService) clearFailures(ctx context.Context, username string) {
	if s.redis != nil {
		if err := s.redis.Delete(ctx, lockoutKey(username)); err != nil {
			slog.Warn("Failed to clear login failures", "error", err)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, username)
}

// toStaffResponse converts a staff model to its API representation
func toStaffResponse(staff *models.StaffUser) models.StaffResponse {
	return models.StaffResponse{
		StaffID:     staff.StaffID,
		Username:    staff.Username,
		FirstName:   staff.FirstName,
		LastName:    staff.LastName,
		Email:       staff.Email,
		IsSuperuser: staff.IsSuperuser,
		IsActive:    staff.IsActive,
		CreatedAt:   staff.CreatedAt.Format(time.RFC3339),
	}
}
