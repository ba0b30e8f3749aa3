package services

import (
	"context"
	"testing"
	"time"

	"github.com/clubworks/mms-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_DeactivatesFullyAbsentMembers(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewLifecycleService(db, AlwaysRun{}, 3)

	newest := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	meetings := seedMeetings(t, db, 3, newest)

	seedMember(t, db, "MEM001", models.RoleNone) // absent from everything
	seedMember(t, db, "MEM002", models.RoleNone) // present at the newest meeting
	seedMember(t, db, "MEM003", models.RoleNone) // present only at the oldest

	seedAttendance(t, db, "MEM002", meetings[2].MeetingID, true, true)
	seedAttendance(t, db, "MEM003", meetings[0].MeetingID, true, false)
	// MEM001 has a recorded absence, which counts the same as no record.
	seedAttendance(t, db, "MEM001", meetings[2].MeetingID, false, false)

	result, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.DeactivatedCount)
	assert.Equal(t, []string{"MEM001"}, result.DeactivatedIDs)

	var member models.Member
	require.NoError(t, db.First(&member, "member_id = ?", "MEM001").Error)
	assert.False(t, member.IsActive)

	// MEM003 was present at the oldest of the three meetings, so the
	// consecutive-miss streak from the newest meeting is only two.
	member = models.Member{}
	require.NoError(t, db.First(&member, "member_id = ?", "MEM003").Error)
	assert.True(t, member.IsActive)
}

func TestSweep_NotEnoughMeetings(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewLifecycleService(db, AlwaysRun{}, 3)

	seedMeetings(t, db, 2, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	seedMember(t, db, "MEM001", models.RoleNone)

	result, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 0, result.DeactivatedCount)
	assert.Equal(t, "not enough meetings to evaluate (need 3, have 2)", result.Message)

	var member models.Member
	require.NoError(t, db.First(&member, "member_id = ?", "MEM001").Error)
	assert.True(t, member.IsActive)
}

func TestSweep_Idempotent(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewLifecycleService(db, AlwaysRun{}, 3)

	seedMeetings(t, db, 3, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	seedMember(t, db, "MEM001", models.RoleNone)

	first, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.DeactivatedCount)

	// Already-deactivated members are not counted again.
	second, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.DeactivatedCount)
}

func TestSweep_DryRunLeavesMembersActive(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewLifecycleService(db, AlwaysRun{}, 3)

	seedMeetings(t, db, 3, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	seedMember(t, db, "MEM001", models.RoleNone)

	result, err := svc.Sweep(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, []string{"MEM001"}, result.DeactivatedIDs)

	var member models.Member
	require.NoError(t, db.First(&member, "member_id = ?", "MEM001").Error)
	assert.True(t, member.IsActive)
}

func TestSweep_IgnoresInactiveMembers(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewLifecycleService(db, AlwaysRun{}, 3)

	seedMeetings(t, db, 3, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	member := seedMember(t, db, "MEM001", models.RoleNone)
	require.NoError(t, db.Model(member).Update("is_active", false).Error)

	result, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, result.DeactivatedIDs)
}

func TestSweepTriggered_CooldownSuppression(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewLifecycleService(db, NewTimedGate(time.Hour), 3)

	first, err := svc.SweepTriggered(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "sweep suppressed by cooldown", first.Message)

	second, err := svc.SweepTriggered(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sweep suppressed by cooldown", second.Message)
	assert.Equal(t, 0, second.DeactivatedCount)
}

func TestTimedGate_AllowsAfterInterval(t *testing.T) {
	gate := NewTimedGate(10 * time.Millisecond)
	ctx := context.Background()

	assert.True(t, gate.ShouldRun(ctx, "k"))
	assert.False(t, gate.ShouldRun(ctx, "k"))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, gate.ShouldRun(ctx, "k"))

	// Independent keys do not share cooldowns.
	assert.True(t, gate.ShouldRun(ctx, "other"))
}
