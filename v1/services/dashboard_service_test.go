package services

import (
	"testing"
	"time"

	"github.com/clubworks/mms-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDashboardService(t *testing.T) (*DashboardService, *gorm.DB) {
	t.Helper()
	db := SetupSQLiteTestDB(t)
	svc := NewDashboardService(db, NewEngagementService(db), NewRecommendationService(db))
	return svc, db
}

func TestSummary_Counts(t *testing.T) {
	svc, db := newTestDashboardService(t)

	seedMember(t, db, "MEM001", models.RolePresident)
	seedMember(t, db, "MEM002", models.RoleNone)
	inactive := seedMember(t, db, "MEM003", models.RoleNone)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	meeting := seedMeeting(t, db, time.Now().UTC().AddDate(0, 0, -3), 10)
	seedAttendance(t, db, "MEM001", meeting.MeetingID, true, true)
	seedAttendance(t, db, "MEM002", meeting.MeetingID, false, false)

	seedPayment(t, db, "MEM001", 40, time.Now().UTC().AddDate(0, 0, -2))

	resp, err := svc.Summary()
	require.NoError(t, err)

	assert.Equal(t, int64(3), resp.TotalMembers)
	assert.Equal(t, int64(2), resp.ActiveMembers)
	assert.Equal(t, int64(1), resp.InactiveMembers)
	assert.Equal(t, int64(1), resp.TotalMeetings)
	assert.InDelta(t, 50.0, resp.AttendanceRate, 0.01)
	assert.Equal(t, 40.0, resp.TotalCollected)
	assert.Equal(t, 40.0, resp.CollectedThisYear)
}

func TestSummary_TopPerformersRanked(t *testing.T) {
	svc, db := newTestDashboardService(t)

	seedMember(t, db, "MEM001", models.RolePresident)
	seedMember(t, db, "MEM002", models.RoleNone)

	meeting := seedMeeting(t, db, time.Now().UTC().AddDate(0, 0, -7), 10)
	seedAttendance(t, db, "MEM001", meeting.MeetingID, true, true)
	seedAttendance(t, db, "MEM002", meeting.MeetingID, false, false)

	resp, err := svc.Summary()
	require.NoError(t, err)

	require.Len(t, resp.TopPerformers, 2)
	assert.Equal(t, "MEM001", resp.TopPerformers[0].MemberID)
	assert.Greater(t, resp.TopPerformers[0].Score, resp.TopPerformers[1].Score)
	assert.NotEmpty(t, resp.TopPerformers[0].Grade)
}

func TestSummary_EmptyDatabase(t *testing.T) {
	svc, _ := newTestDashboardService(t)

	resp, err := svc.Summary()
	require.NoError(t, err)
	assert.Zero(t, resp.TotalMembers)
	assert.Zero(t, resp.AttendanceRate)
	assert.Empty(t, resp.TopPerformers)
}
