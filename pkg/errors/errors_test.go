package errors

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestHandleDatabaseError(t *testing.T) {
	assert.Nil(t, HandleDatabaseError(nil, "member", "get"))

	apiErr := HandleDatabaseError(gorm.ErrRecordNotFound, "member", "get")
	require.NotNil(t, apiErr)
	assert.Equal(t, ErrorTypeNotFound, apiErr.Type)
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatus)
	assert.Equal(t, "member not found", apiErr.Message)

	apiErr = HandleDatabaseError(gorm.ErrDuplicatedKey, "member", "create")
	require.NotNil(t, apiErr)
	assert.Equal(t, ErrorTypeConflict, apiErr.Type)
	assert.Equal(t, http.StatusConflict, apiErr.HTTPStatus)

	// sqlite reports unique violations as plain errors.
	apiErr = HandleDatabaseError(fmt.Errorf("UNIQUE constraint failed: members.member_id"), "member", "create")
	require.NotNil(t, apiErr)
	assert.Equal(t, ErrorTypeConflict, apiErr.Type)

	apiErr = HandleDatabaseError(fmt.Errorf("connection refused"), "member", "list")
	require.NotNil(t, apiErr)
	assert.Equal(t, ErrorTypeDatabase, apiErr.Type)
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatus)
}

func TestFieldValidationError(t *testing.T) {
	apiErr := FieldValidationError(map[string]string{
		"memberId": "member ID is required",
		"role":     "unknown role",
	})
	assert.Equal(t, ErrorTypeValidation, apiErr.Type)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	assert.Len(t, apiErr.Fields, 2)
}

func TestAPIError_ErrorAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	apiErr := InternalErrorWithCause("something broke", cause)
	assert.Contains(t, apiErr.Error(), "something broke")
	assert.Equal(t, cause, apiErr.Unwrap())
}

func TestGetAPIError(t *testing.T) {
	apiErr := NotFoundError("meeting")
	wrapped := fmt.Errorf("loading dashboard: %w", apiErr)

	got := GetAPIError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrorTypeNotFound, got.Type)

	assert.Nil(t, GetAPIError(fmt.Errorf("plain error")))
	assert.True(t, IsAPIError(wrapped))
	assert.False(t, IsAPIError(fmt.Errorf("plain error")))
}

func TestAccountLockedError(t *testing.T) {
	apiErr := AccountLockedError(90 * time.Second)
	assert.Equal(t, ErrorTypeLocked, apiErr.Type)
	assert.Equal(t, http.StatusForbidden, apiErr.HTTPStatus)
	assert.Contains(t, apiErr.Message, "2 minutes")
}

func TestRoleConflictError(t *testing.T) {
	apiErr := RoleConflictError("PRESIDENT", "MEM001")
	assert.Equal(t, ErrorTypeConflict, apiErr.Type)
	assert.Equal(t, "ROLE_TAKEN", apiErr.Code)
	assert.Contains(t, apiErr.Message, "MEM001")
}
