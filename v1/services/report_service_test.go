package services

import (
	"testing"
	"time"

	"github.com/clubworks/mms-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuickStats_YearToDate(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewReportService(db)

	seedMember(t, db, "MEM001", models.RoleNone)
	seedMember(t, db, "MEM002", models.RoleNone)
	// Joined this year, so counted as a new member.
	require.NoError(t, db.Model(&models.Member{}).
		Where("member_id = ?", "MEM002").
		Update("joined_at", time.Now().UTC().AddDate(0, 0, -10)).Error)

	thisYear := seedMeeting(t, db, time.Now().UTC().AddDate(0, 0, -7), 10)
	// Previous year, excluded from every year-to-date figure.
	lastYear := seedMeeting(t, db, time.Now().UTC().AddDate(-1, 0, 0), 10)

	seedAttendance(t, db, "MEM001", thisYear.MeetingID, true, false)
	seedAttendance(t, db, "MEM002", thisYear.MeetingID, false, false)
	seedAttendance(t, db, "MEM001", lastYear.MeetingID, true, true)

	seedPayment(t, db, "MEM001", 25, time.Now().UTC().AddDate(0, 0, -3))
	seedPayment(t, db, "MEM001", 99, time.Now().UTC().AddDate(-1, 0, 0))

	stats, err := svc.QuickStats()
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.ActiveMembers)
	assert.Equal(t, int64(1), stats.NewMembersThisYear)
	assert.Equal(t, int64(1), stats.MeetingsThisYear)
	assert.InDelta(t, 50.0, stats.AvgAttendanceRate, 0.01)
	assert.Equal(t, 25.0, stats.FeesCollectedYear)
	assert.Equal(t, int64(1), stats.OutstandingPayers)
}

func TestQuickStats_EmptyDatabase(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewReportService(db)

	stats, err := svc.QuickStats()
	require.NoError(t, err)
	assert.Zero(t, stats.ActiveMembers)
	assert.Zero(t, stats.AvgAttendanceRate)
	assert.Zero(t, stats.FeesCollectedYear)
}

func TestHeatmap_GridShape(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewReportService(db)

	seedMember(t, db, "MEM001", models.RoleNone)
	seedMember(t, db, "MEM002", models.RoleNone)
	first := seedMeeting(t, db, timeMustParse(t, "2025-01-10"), 10)
	second := seedMeeting(t, db, timeMustParse(t, "2025-01-17"), 10)

	seedAttendance(t, db, "MEM001", first.MeetingID, true, true)
	seedAttendance(t, db, "MEM001", second.MeetingID, true, false)
	seedAttendance(t, db, "MEM002", first.MeetingID, false, false)

	resp, err := svc.Heatmap(nil, nil)
	require.NoError(t, err)

	// Chronological columns, one row per active member.
	require.Len(t, resp.Meetings, 2)
	assert.Equal(t, "2025-01-10", resp.Meetings[0].MeetingDate)
	require.Len(t, resp.Rows, 2)

	row := resp.Rows[0]
	assert.Equal(t, "MEM001", row.MemberID)
	require.Len(t, row.Cells, 2)
	assert.True(t, row.Cells[0].Present)
	assert.True(t, row.Cells[0].FeePaid)
	assert.False(t, row.Cells[1].FeePaid)
	assert.Equal(t, 2, row.PresentCount)
	assert.InDelta(t, 100.0, row.Rate, 0.01)

	// Missing records render as absent cells.
	assert.Equal(t, 0, resp.Rows[1].PresentCount)
	assert.InDelta(t, 0.0, resp.Rows[1].Rate, 0.01)
}

func TestHeatmap_DateRange(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewReportService(db)

	seedMember(t, db, "MEM001", models.RoleNone)
	seedMeeting(t, db, timeMustParse(t, "2025-01-10"), 10)
	seedMeeting(t, db, timeMustParse(t, "2025-02-10"), 10)
	seedMeeting(t, db, timeMustParse(t, "2025-03-10"), 10)

	from, to := "2025-02-01", "2025-02-28"
	resp, err := svc.Heatmap(&from, &to)
	require.NoError(t, err)
	require.Len(t, resp.Meetings, 1)
	assert.Equal(t, "2025-02-10", resp.Meetings[0].MeetingDate)

	bad := "02-2025"
	_, err = svc.Heatmap(&bad, nil)
	require.Error(t, err)
}

func TestHeatmap_DefaultsToNewestTwelve(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewReportService(db)

	seedMember(t, db, "MEM001", models.RoleNone)
	meetings := seedMeetings(t, db, 15, timeMustParse(t, "2025-06-27"))

	resp, err := svc.Heatmap(nil, nil)
	require.NoError(t, err)
	require.Len(t, resp.Meetings, 12)
	// Oldest of the retained window comes first.
	assert.Equal(t, meetings[3].MeetingID, resp.Meetings[0].MeetingID)
	assert.Equal(t, meetings[14].MeetingID, resp.Meetings[11].MeetingID)
}
