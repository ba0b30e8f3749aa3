package services

import (
	"context"
	"testing"
	"time"

	"github.com/clubworks/mms-backend/config"
	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/v1/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStaffService(t *testing.T) (*StaffService, *gorm.DB) {
	t.Helper()
	db := SetupSQLiteTestDB(t)
	cfg := config.AuthConfig{
		JWTSecret:        "test-secret",
		TokenTTL:         time.Hour,
		MaxLoginFailures: 3,
		LockoutDuration:  time.Minute,
	}
	return NewStaffService(db, cfg, nil), db
}

func registerTestStaff(t *testing.T, svc *StaffService, username string, superuser bool) *models.StaffResponse {
	t.Helper()
	resp, err := svc.Register(&models.CreateStaffRequest{
		Username:    username,
		Password:    "correct-horse",
		FirstName:   "Test",
		LastName:    "Staff",
		Email:       username + "@club.example",
		IsSuperuser: superuser,
	})
	require.NoError(t, err)
	return resp
}

func TestRegister_NormalizesUsername(t *testing.T) {
	svc, _ := newTestStaffService(t)

	resp, err := svc.Register(&models.CreateStaffRequest{
		Username: "  Admin ",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.Username)
	assert.True(t, resp.IsActive)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestStaffService(t)

	_, err := svc.Register(&models.CreateStaffRequest{
		Username: "",
		Password: "short",
		Email:    "not-an-email",
	})
	require.Error(t, err)

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Contains(t, apiErr.Fields, "username")
	assert.Contains(t, apiErr.Fields, "password")
	assert.Contains(t, apiErr.Fields, "email")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestStaffService(t)

	registerTestStaff(t, svc, "admin", false)

	_, err := svc.Register(&models.CreateStaffRequest{
		Username: "ADMIN",
		Password: "correct-horse",
	})
	require.Error(t, err)

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeConflict, apiErr.Type)
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestStaffService(t)
	registerTestStaff(t, svc, "admin", true)

	resp, err := svc.Login(context.Background(), &models.LoginRequest{
		Username: "Admin",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.Staff.Username)

	auth, err := svc.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Staff.StaffID, auth.StaffID)
	assert.Equal(t, "admin", auth.Username)
	assert.True(t, auth.IsSuperuser)
	assert.False(t, auth.IsTokenExpired())
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestStaffService(t)
	registerTestStaff(t, svc, "admin", false)

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Username: "admin",
		Password: "wrong",
	})
	require.Error(t, err)

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeUnauthorized, apiErr.Type)
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	svc, _ := newTestStaffService(t)
	registerTestStaff(t, svc, "admin", false)

	bad := &models.LoginRequest{Username: "admin", Password: "wrong"}
	for i := 0; i < 3; i++ {
		_, err := svc.Login(context.Background(), bad)
		require.Error(t, err)
	}

	// Even the correct password is refused while locked.
	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Username: "admin",
		Password: "correct-horse",
	})
	require.Error(t, err)

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeLocked, apiErr.Type)
}

func TestLogin_UnknownUsernameCountsTowardLockout(t *testing.T) {
	svc, _ := newTestStaffService(t)

	bad := &models.LoginRequest{Username: "ghost", Password: "whatever"}
	for i := 0; i < 3; i++ {
		_, err := svc.Login(context.Background(), bad)
		require.Error(t, err)
	}

	_, err := svc.Login(context.Background(), bad)
	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeLocked, apiErr.Type)
}

func TestLogin_SuccessClearsFailureCount(t *testing.T) {
	svc, _ := newTestStaffService(t)
	registerTestStaff(t, svc, "admin", false)

	bad := &models.LoginRequest{Username: "admin", Password: "wrong"}
	good := &models.LoginRequest{Username: "admin", Password: "correct-horse"}

	for i := 0; i < 2; i++ {
		_, err := svc.Login(context.Background(), bad)
		require.Error(t, err)
	}
	_, err := svc.Login(context.Background(), good)
	require.NoError(t, err)

	// The counter restarted: two more misses stay under the limit.
	for i := 0; i < 2; i++ {
		_, err := svc.Login(context.Background(), bad)
		require.Error(t, err)
	}
	_, err = svc.Login(context.Background(), good)
	assert.NoError(t, err)
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc, db := newTestStaffService(t)
	staff := registerTestStaff(t, svc, "admin", false)

	require.NoError(t, db.Model(&models.StaffUser{}).
		Where("staff_id = ?", staff.StaffID).
		Update("is_active", false).Error)

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Username: "admin",
		Password: "correct-horse",
	})
	require.Error(t, err)

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeForbidden, apiErr.Type)
}

func TestParseToken_RejectsGarbageAndWrongKey(t *testing.T) {
	svc, _ := newTestStaffService(t)

	_, err := svc.ParseToken("not.a.token")
	assert.Error(t, err)

	other := NewStaffService(nil, config.AuthConfig{JWTSecret: "other-secret"}, nil)
	registerTestStaff(t, svc, "admin", false)
	resp, err := svc.Login(context.Background(), &models.LoginRequest{
		Username: "admin",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = other.ParseToken(resp.Token)
	assert.Error(t, err, "a token signed with a different secret is rejected")
}

func TestParseToken_RejectsEverythingWithoutSecret(t *testing.T) {
	svc := NewStaffService(nil, config.AuthConfig{}, nil)

	// HMAC with an empty key is still a valid signature, so a secretless
	// service must not verify anything at all.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, models.StaffClaims{
		Username:    "attacker",
		IsSuperuser: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "stf_attacker",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte(""))
	require.NoError(t, err)

	_, err = svc.ParseToken(signed)
	require.Error(t, err)

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeUnauthorized, apiErr.Type)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestStaffService(t)
	staff := registerTestStaff(t, svc, "admin", false)

	err := svc.ChangePassword(staff.StaffID, &models.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "brand-new-password",
	})
	require.Error(t, err)

	err = svc.ChangePassword(staff.StaffID, &models.ChangePasswordRequest{
		CurrentPassword: "correct-horse",
		NewPassword:     "brand-new-password",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &models.LoginRequest{
		Username: "admin",
		Password: "brand-new-password",
	})
	assert.NoError(t, err)
}

func TestDeleteStaff(t *testing.T) {
	svc, _ := newTestStaffService(t)
	staff := registerTestStaff(t, svc, "admin", false)

	require.NoError(t, svc.DeleteStaff(staff.StaffID))

	err := svc.DeleteStaff(staff.StaffID)
	require.Error(t, err)
	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeNotFound, apiErr.Type)
}
