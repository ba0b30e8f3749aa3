package services

import (
	"testing"
	"time"

	"github.com/clubworks/mms-backend/config"
	"github.com/clubworks/mms-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBadgeConfig() config.BadgeConfig {
	return config.BadgeConfig{
		PerfectAttendanceMinMeetings: 5,
		PaymentChampionThreshold:     20,
		FoundingYear:                 2023,
		VeteranTenureYears:           2,
	}
}

func awardedTypes(badges []models.BadgeResponse) []string {
	types := make([]string, 0, len(badges))
	for _, b := range badges {
		types = append(types, b.BadgeType)
	}
	return types
}

func TestEvaluate_PerfectAttendanceNeedsMinimumSample(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewBadgeService(db, testBadgeConfig())

	member := seedMember(t, db, "MEM001", models.RoleNone)
	require.NoError(t, db.Model(member).Update("joined_at", time.Now().AddDate(0, -1, 0)).Error)

	meetings := seedMeetings(t, db, 3, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	for _, m := range meetings {
		seedAttendance(t, db, "MEM001", m.MeetingID, true, true)
	}

	awarded, err := svc.Evaluate("MEM001")
	require.NoError(t, err)
	assert.NotContains(t, awardedTypes(awarded), string(models.BadgePerfectAttendance))

	// Two more fully attended meetings push the sample to the minimum.
	more := []*models.Meeting{
		seedMeeting(t, db, time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC), 100),
		seedMeeting(t, db, time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC), 100),
	}
	for _, m := range more {
		seedAttendance(t, db, "MEM001", m.MeetingID, true, true)
	}

	awarded, err = svc.Evaluate("MEM001")
	require.NoError(t, err)
	assert.Contains(t, awardedTypes(awarded), string(models.BadgePerfectAttendance))
}

func TestEvaluate_StreakTenSupersedesFive(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewBadgeService(db, testBadgeConfig())

	seedMember(t, db, "MEM001", models.RoleNone)
	meetings := seedMeetings(t, db, 10, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	for _, m := range meetings {
		seedAttendance(t, db, "MEM001", m.MeetingID, true, true)
	}

	awarded, err := svc.Evaluate("MEM001")
	require.NoError(t, err)

	types := awardedTypes(awarded)
	assert.Contains(t, types, string(models.BadgeAttendanceStreak10))
	assert.NotContains(t, types, string(models.BadgeAttendanceStreak5))
}

func TestEvaluate_FiveStreakBeforeTen(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewBadgeService(db, testBadgeConfig())

	seedMember(t, db, "MEM001", models.RoleNone)
	meetings := seedMeetings(t, db, 6, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	// Absent at the oldest meeting, present at the newest five.
	for i, m := range meetings {
		seedAttendance(t, db, "MEM001", m.MeetingID, i > 0, true)
	}

	awarded, err := svc.Evaluate("MEM001")
	require.NoError(t, err)

	types := awardedTypes(awarded)
	assert.Contains(t, types, string(models.BadgeAttendanceStreak5))
	assert.NotContains(t, types, string(models.BadgeAttendanceStreak10))
}

func TestEvaluate_Idempotent(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewBadgeService(db, testBadgeConfig())

	seedMember(t, db, "MEM001", models.RolePresident)
	meetings := seedMeetings(t, db, 5, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	for _, m := range meetings {
		seedAttendance(t, db, "MEM001", m.MeetingID, true, true)
	}

	first, err := svc.Evaluate("MEM001")
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := svc.Evaluate("MEM001")
	require.NoError(t, err)
	assert.Empty(t, second, "re-evaluation must not award duplicates")

	var count int64
	require.NoError(t, db.Model(&models.Badge{}).Where("member_id = ?", "MEM001").Count(&count).Error)
	assert.Equal(t, int64(len(first)), count)
}

func TestEvaluate_ActiveMemberWithoutAttendance(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewBadgeService(db, testBadgeConfig())

	member := seedMember(t, db, "MEM001", models.RoleNone)
	require.NoError(t, db.Model(member).Update("joined_at", time.Now().AddDate(0, -1, 0)).Error)

	meetings := seedMeetings(t, db, 5, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	seedAttendance(t, db, "MEM001", meetings[0].MeetingID, false, false)

	// Being on the active roster is enough for the active-member badge,
	// attendance or not. Everything else stays out of reach.
	awarded, err := svc.Evaluate("MEM001")
	require.NoError(t, err)
	assert.Equal(t, []string{string(models.BadgeActiveMember)}, awardedTypes(awarded))
}

func TestEvaluate_DeactivatedMemberEarnsNothing(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewBadgeService(db, testBadgeConfig())

	member := seedMember(t, db, "MEM001", models.RoleNone)
	require.NoError(t, db.Model(member).Update("joined_at", time.Now().AddDate(0, -1, 0)).Error)
	require.NoError(t, db.Model(member).Update("is_active", false).Error)

	seedMeetings(t, db, 5, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))

	awarded, err := svc.Evaluate("MEM001")
	require.NoError(t, err)
	assert.Empty(t, awarded)
}

func TestEvaluate_DescriptionsSnapshotCounts(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	cfg := testBadgeConfig()
	cfg.PaymentChampionThreshold = 5
	svc := NewBadgeService(db, cfg)

	member := seedMember(t, db, "MEM001", models.RoleNone)
	require.NoError(t, db.Model(member).Update("joined_at", time.Now().AddDate(0, -1, 0)).Error)

	meetings := seedMeetings(t, db, 5, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	for _, m := range meetings {
		seedAttendance(t, db, "MEM001", m.MeetingID, true, true)
	}

	awarded, err := svc.Evaluate("MEM001")
	require.NoError(t, err)

	descriptions := make(map[string]string, len(awarded))
	for _, b := range awarded {
		descriptions[b.BadgeType] = b.Description
	}
	assert.Equal(t, "Attended all 5 meetings", descriptions[string(models.BadgePerfectAttendance)])
	assert.Equal(t, "Paid fees for 5 meetings", descriptions[string(models.BadgePaymentChampion)])
}

func TestEvaluate_RoleBadges(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewBadgeService(db, testBadgeConfig())

	seedMember(t, db, "MEM001", models.RolePresident)
	seedMember(t, db, "MEM002", models.RoleCommittee)

	awarded, err := svc.Evaluate("MEM001")
	require.NoError(t, err)
	assert.Contains(t, awardedTypes(awarded), string(models.BadgeLeader))

	awarded, err = svc.Evaluate("MEM002")
	require.NoError(t, err)
	assert.Contains(t, awardedTypes(awarded), string(models.BadgeCommittee))
	assert.NotContains(t, awardedTypes(awarded), string(models.BadgeLeader))
}

func TestEvaluate_TenureBadges(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewBadgeService(db, testBadgeConfig())

	member := seedMember(t, db, "MEM001", models.RoleNone)
	require.NoError(t, db.Model(member).
		Update("joined_at", time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)).Error)

	awarded, err := svc.Evaluate("MEM001")
	require.NoError(t, err)

	types := awardedTypes(awarded)
	assert.Contains(t, types, string(models.BadgeFoundingMember))
	assert.Contains(t, types, string(models.BadgeVeteranMember))
}

func TestEvaluate_UnknownMember(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewBadgeService(db, testBadgeConfig())

	_, err := svc.Evaluate("NOPE")
	assert.Error(t, err)
}

func TestGetMemberBadges_GroupsByCategory(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewBadgeService(db, testBadgeConfig())

	seedMember(t, db, "MEM001", models.RolePresident)
	meetings := seedMeetings(t, db, 5, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	for _, m := range meetings {
		seedAttendance(t, db, "MEM001", m.MeetingID, true, true)
	}

	_, err := svc.Evaluate("MEM001")
	require.NoError(t, err)

	summary, err := svc.GetMemberBadges("MEM001")
	require.NoError(t, err)

	assert.Equal(t, "MEM001", summary.MemberID)
	assert.Equal(t, len(summary.Badges), summary.Total)
	assert.NotEmpty(t, summary.ByCategory)

	grouped := 0
	for _, badges := range summary.ByCategory {
		grouped += len(badges)
	}
	assert.Equal(t, summary.Total, grouped)
}

func TestEvaluateAll_CoversActiveMembers(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewBadgeService(db, testBadgeConfig())

	seedMember(t, db, "MEM001", models.RolePresident)
	inactive := seedMember(t, db, "MEM002", models.RoleSecretary)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	total, err := svc.EvaluateAll()
	require.NoError(t, err)
	assert.Greater(t, total, 0)

	var count int64
	require.NoError(t, db.Model(&models.Badge{}).Where("member_id = ?", "MEM002").Count(&count).Error)
	assert.Zero(t, count, "inactive members are not evaluated")
}
