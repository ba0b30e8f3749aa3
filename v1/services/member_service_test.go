package services

import (
	"testing"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateMember_Success(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	resp, err := svc.CreateMember(&models.CreateMemberRequest{
		MemberID:  "mem001",
		Initials:  "A.B.",
		FirstName: "Amara",
		LastName:  "Perera",
		Role:      string(models.RolePresident),
		JoinedAt:  strPtr("2024-02-01"),
	})
	require.NoError(t, err)

	assert.Equal(t, "MEM001", resp.MemberID, "member IDs are stored uppercase")
	assert.Equal(t, string(models.RolePresident), resp.Role)
	assert.True(t, resp.IsActive)
	assert.Equal(t, "2024-02-01", resp.JoinedAt)
}

func TestCreateMember_CollectsAllFieldErrors(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	_, err := svc.CreateMember(&models.CreateMemberRequest{
		MemberID:  "",
		FirstName: "",
		LastName:  "",
		Role:      "EMPEROR",
	})
	require.Error(t, err)

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeValidation, apiErr.Type)
	assert.Contains(t, apiErr.Fields, "memberId")
	assert.Contains(t, apiErr.Fields, "firstName")
	assert.Contains(t, apiErr.Fields, "lastName")
	assert.Contains(t, apiErr.Fields, "role")
}

func TestCreateMember_DuplicateID(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	req := &models.CreateMemberRequest{
		MemberID:  "MEM001",
		FirstName: "Amara",
		LastName:  "Perera",
	}
	_, err := svc.CreateMember(req)
	require.NoError(t, err)

	_, err = svc.CreateMember(req)
	require.Error(t, err)

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeConflict, apiErr.Type)
}

func TestCreateMember_ExclusiveRoleConflict(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	seedMember(t, db, "MEM001", models.RolePresident)

	_, err := svc.CreateMember(&models.CreateMemberRequest{
		MemberID:  "MEM002",
		FirstName: "Second",
		LastName:  "President",
		Role:      string(models.RolePresident),
	})
	require.Error(t, err)

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeConflict, apiErr.Type)

	// Nothing was persisted.
	var count int64
	require.NoError(t, db.Model(&models.Member{}).Where("member_id = ?", "MEM002").Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateMember_RoleReleasedByInactiveHolder(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	holder := seedMember(t, db, "MEM001", models.RolePresident)
	require.NoError(t, db.Model(holder).Update("is_active", false).Error)

	_, err := svc.CreateMember(&models.CreateMemberRequest{
		MemberID:  "MEM002",
		FirstName: "New",
		LastName:  "President",
		Role:      string(models.RolePresident),
	})
	assert.NoError(t, err, "a deactivated holder releases the role")
}

func TestCreateMember_CommitteeRoleUnrestricted(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	for _, id := range []string{"MEM001", "MEM002", "MEM003"} {
		_, err := svc.CreateMember(&models.CreateMemberRequest{
			MemberID:  id,
			FirstName: "Committee",
			LastName:  id,
			Role:      string(models.RoleCommittee),
		})
		require.NoError(t, err)
	}
}

func TestUpdateMember_SelfResaveIsNotAConflict(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	seedMember(t, db, "MEM001", models.RoleSecretary)

	resp, err := svc.UpdateMember("MEM001", &models.UpdateMemberRequest{
		Role:  strPtr(string(models.RoleSecretary)),
		Phone: strPtr("0771234567"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0771234567", resp.Phone)
	assert.Equal(t, string(models.RoleSecretary), resp.Role)
}

func TestUpdateMember_ReactivationRechecksRole(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	former := seedMember(t, db, "MEM001", models.RolePresident)
	require.NoError(t, db.Model(former).Update("is_active", false).Error)
	seedMember(t, db, "MEM002", models.RolePresident)

	active := true
	_, err := svc.UpdateMember("MEM001", &models.UpdateMemberRequest{IsActive: &active})
	require.Error(t, err, "reactivating a former holder must not seat two presidents")

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeConflict, apiErr.Type)

	var count int64
	require.NoError(t, db.Model(&models.Member{}).
		Where("role = ? AND is_active = ?", models.RolePresident, true).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpdateMember_RoleConflictLeavesMemberUnchanged(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	seedMember(t, db, "MEM001", models.RoleTreasury)
	seedMember(t, db, "MEM002", models.RoleNone)

	_, err := svc.UpdateMember("MEM002", &models.UpdateMemberRequest{
		Role:      strPtr(string(models.RoleTreasury)),
		FirstName: strPtr("Changed"),
	})
	require.Error(t, err)

	var member models.Member
	require.NoError(t, db.First(&member, "member_id = ?", "MEM002").Error)
	assert.Equal(t, models.RoleNone, member.Role)
	assert.NotEqual(t, "Changed", member.FirstName, "the conflict must abort the whole update")
}

func TestUpdateMember_NotFound(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	_, err := svc.UpdateMember("NOPE", &models.UpdateMemberRequest{})
	require.Error(t, err)

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeNotFound, apiErr.Type)
}

func TestDeleteMember_RemovesDependentRecords(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	seedMember(t, db, "MEM001", models.RoleNone)
	m := seedMeeting(t, db, timeMustParse(t, "2025-06-20"), 100)
	seedAttendance(t, db, "MEM001", m.MeetingID, true, true)
	seedPayment(t, db, "MEM001", 100, timeMustParse(t, "2025-06-20"))

	require.NoError(t, svc.DeleteMember("MEM001"))

	var attendance, payments, members int64
	require.NoError(t, db.Model(&models.AttendanceRecord{}).Where("member_id = ?", "MEM001").Count(&attendance).Error)
	require.NoError(t, db.Model(&models.Payment{}).Where("member_id = ?", "MEM001").Count(&payments).Error)
	require.NoError(t, db.Model(&models.Member{}).Where("member_id = ?", "MEM001").Count(&members).Error)
	assert.Zero(t, attendance)
	assert.Zero(t, payments)
	assert.Zero(t, members)
}

func TestListMembers_SearchAndFilters(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	seedMember(t, db, "MEM001", models.RolePresident)
	seedMember(t, db, "MEM002", models.RoleNone)
	inactive := seedMember(t, db, "MEM003", models.RoleNone)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	all, err := svc.ListMembers(&models.MemberFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalCount)

	active := true
	filtered, err := svc.ListMembers(&models.MemberFilter{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, int64(2), filtered.TotalCount)

	byRole, err := svc.ListMembers(&models.MemberFilter{Role: models.RolePresident})
	require.NoError(t, err)
	require.Len(t, byRole.Members, 1)
	assert.Equal(t, "MEM001", byRole.Members[0].MemberID)

	// Free-text search matches the member ID case-insensitively.
	searched, err := svc.ListMembers(&models.MemberFilter{Query: "mem002"})
	require.NoError(t, err)
	require.Len(t, searched.Members, 1)
	assert.Equal(t, "MEM002", searched.Members[0].MemberID)
}

func TestListMembers_Pagination(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewMemberService(db)

	for _, id := range []string{"MEM001", "MEM002", "MEM003", "MEM004", "MEM005"} {
		seedMember(t, db, id, models.RoleNone)
	}

	page, err := svc.ListMembers(&models.MemberFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(5), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Members, 2)
	assert.Equal(t, "MEM003", page.Members[0].MemberID)
	assert.Equal(t, "MEM004", page.Members[1].MemberID)
}
