package services

import (
	"testing"
	"time"

	"github.com/clubworks/mms-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_FullMarks(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewEngagementService(db)

	seedMember(t, db, "MEM001", models.RolePresident)
	// Recent meetings, all attended and paid.
	for i := 0; i < 4; i++ {
		m := seedMeeting(t, db, time.Now().AddDate(0, 0, -7*(i+1)), 100)
		seedAttendance(t, db, "MEM001", m.MeetingID, true, true)
	}

	score, err := svc.Score("MEM001")
	require.NoError(t, err)

	assert.InDelta(t, 40.0, score.Breakdown.Attendance, 0.001)
	assert.InDelta(t, 30.0, score.Breakdown.Payment, 0.001)
	assert.InDelta(t, 20.0, score.Breakdown.Recent, 0.001)
	assert.InDelta(t, 10.0, score.Breakdown.Leadership, 0.001)
	assert.InDelta(t, 100.0, score.Score, 0.001)
	assert.Equal(t, "A+", score.Grade)
}

func TestScore_NoMeetings(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewEngagementService(db)

	seedMember(t, db, "MEM001", models.RoleNone)

	score, err := svc.Score("MEM001")
	require.NoError(t, err)

	// Every ratio has a zero denominator and scores zero.
	assert.Zero(t, score.Breakdown.Attendance)
	assert.Zero(t, score.Breakdown.Payment)
	assert.Zero(t, score.Breakdown.Recent)
	assert.Zero(t, score.Score)
	assert.Equal(t, "F", score.Grade)
}

func TestScore_PaymentRatioUsesAttendedMeetingsOnly(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewEngagementService(db)

	seedMember(t, db, "MEM001", models.RoleNone)

	// Old meetings only, so the recent component stays out of the way.
	old := time.Now().AddDate(0, -6, 0)
	m1 := seedMeeting(t, db, old, 100)
	m2 := seedMeeting(t, db, old.AddDate(0, 0, 7), 100)
	m3 := seedMeeting(t, db, old.AddDate(0, 0, 14), 100)
	m4 := seedMeeting(t, db, old.AddDate(0, 0, 21), 100)

	seedAttendance(t, db, "MEM001", m1.MeetingID, true, true)
	seedAttendance(t, db, "MEM001", m2.MeetingID, true, false)
	seedAttendance(t, db, "MEM001", m3.MeetingID, false, false)
	_ = m4 // no record at all, counts as an absence

	score, err := svc.Score("MEM001")
	require.NoError(t, err)

	// Present at 2 of 4 meetings, paid at 1 of the 2 attended.
	assert.InDelta(t, 20.0, score.Breakdown.Attendance, 0.001)
	assert.InDelta(t, 15.0, score.Breakdown.Payment, 0.001)
	assert.Zero(t, score.Breakdown.Recent)
	assert.InDelta(t, 35.0, score.Score, 0.001)
	assert.Equal(t, "F", score.Grade)
}

func TestScore_MemberAbsentEverywhere(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewEngagementService(db)

	seedMember(t, db, "MEM001", models.RoleCommittee)
	m := seedMeeting(t, db, time.Now().AddDate(0, 0, -7), 100)
	seedAttendance(t, db, "MEM001", m.MeetingID, false, false)

	score, err := svc.Score("MEM001")
	require.NoError(t, err)

	assert.Zero(t, score.Breakdown.Attendance)
	// Zero attended meetings means the payment ratio denominator is zero.
	assert.Zero(t, score.Breakdown.Payment)
	assert.InDelta(t, 5.0, score.Breakdown.Leadership, 0.001)
	assert.InDelta(t, 5.0, score.Score, 0.001)
}

func TestScore_UnknownMember(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewEngagementService(db)

	_, err := svc.Score("NOPE")
	assert.Error(t, err)
}

func TestGradeFor(t *testing.T) {
	cases := []struct {
		score float64
		grade string
	}{
		{95, "A+"},
		{90, "A+"},
		{85, "A"},
		{80, "A"},
		{75, "B"},
		{65, "C"},
		{55, "D"},
		{49.9, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.grade, gradeFor(tc.score), "score %v", tc.score)
	}
}

func TestCappedRatio(t *testing.T) {
	assert.Zero(t, cappedRatio(5, 0, 40))
	assert.Zero(t, cappedRatio(0, 10, 40))
	assert.InDelta(t, 20.0, cappedRatio(5, 10, 40), 0.001)
	assert.InDelta(t, 40.0, cappedRatio(10, 10, 40), 0.001)
	// Never exceeds the cap even with a ratio above one.
	assert.InDelta(t, 40.0, cappedRatio(12, 10, 40), 0.001)
}
