package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clubworks/mms-backend/pkg/errors"
	redisclient "github.com/clubworks/mms-backend/redisclient"
	"github.com/clubworks/mms-backend/shared/monitoring"
	"github.com/clubworks/mms-backend/v1/models"
	"gorm.io/gorm"
)

// RunGate decides whether a triggered sweep should actually run. It exists
// so rapid attendance writes do not each pay for a full sweep; explicit
// sweeps bypass it with AlwaysRun.
type RunGate interface {
	ShouldRun(ctx context.Context, key string) bool
}

// AlwaysRun is a RunGate that never suppresses a sweep.
type AlwaysRun struct{}

// ShouldRun always returns true
func (AlwaysRun) ShouldRun(context.Context, string) bool { return true }

// TimedGate is an in-memory RunGate that allows one run per key per interval.
type TimedGate struct {
	mu       sync.Mutex
	interval time.Duration
	lastRun  map[string]time.Time
}

// NewTimedGate creates a TimedGate with the given cooldown interval.
func NewTimedGate(interval time.Duration) *TimedGate {
	return &TimedGate{
		interval: interval,
		lastRun:  make(map[string]time.Time),
	}
}

// ShouldRun reports whether the cooldown for key has elapsed, and if so
// restarts it.
func (g *TimedGate) ShouldRun(_ context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if last, ok := g.lastRun[key]; ok && now.Sub(last) < g.interval {
		return false
	}
	g.lastRun[key] = now
	return true
}

// RedisGate is a RunGate backed by a redis SETNX cooldown so the suppression
// window is shared across instances.
type RedisGate struct {
	client   *redisclient.RedisClient
	interval time.Duration
}

// NewRedisGate creates a RedisGate with the given cooldown interval.
func NewRedisGate(client *redisclient.RedisClient, interval time.Duration) *RedisGate {
	return &RedisGate{client: client, interval: interval}
}

// ShouldRun acquires the shared cooldown slot. Redis failures fail open so
// a broken cache never blocks the sweep entirely.
func (g *RedisGate) ShouldRun(ctx context.Context, key string) bool {
	start := time.Now()
	ok, err := g.client.AcquireCooldown(ctx, "cooldown:"+key, g.interval)
	monitoring.RecordStoreCall("redis", "setnx", time.Since(start), err)
	if err != nil {
		slog.Warn("Cooldown check failed, allowing run", "key", key, "error", err)
		return true
	}
	return ok
}

// LifecycleService deactivates members who have missed recent meetings.
type LifecycleService struct {
	db     *gorm.DB
	gate   RunGate
	misses int
}

// NewLifecycleService creates a lifecycle service. misses is how many
// consecutive recent meetings a member must have missed to be deactivated.
func NewLifecycleService(db *gorm.DB, gate RunGate, misses int) *LifecycleService {
	if gate == nil {
		gate = AlwaysRun{}
	}
	if misses < 1 {
		misses = 3
	}
	return &LifecycleService{db: db, gate: gate, misses: misses}
}

// SweepTriggered runs the sweep unless the gate suppresses it. Used from
// attendance writes.
func (s *LifecycleService) SweepTriggered(ctx context.Context) (*models.SweepResult, error) {
	if !s.gate.ShouldRun(ctx, "lifecycle-sweep") {
		monitoring.RecordBusinessEvent(monitoring.EventSweepExecuted, monitoring.OutcomeSkipped)
		return &models.SweepResult{
			DeactivatedIDs: []string{},
			Message:        "sweep suppressed by cooldown",
		}, nil
	}
	return s.Sweep(ctx, false)
}

// Sweep walks each active member's attendance over the newest meetings,
// newest first, and deactivates members absent from all of them. A member
// with any presence among those meetings is untouched; so is everyone when
// fewer meetings exist than the threshold requires. Members already
// deactivated stay deactivated, so repeat sweeps are no-ops. With dryRun the
// candidates are reported but nobody is deactivated.
func (s *LifecycleService) Sweep(ctx context.Context, dryRun bool) (*models.SweepResult, error) {
	var meetings []models.Meeting
	if err := s.db.WithContext(ctx).
		Order("meeting_date DESC").
		Limit(s.misses).
		Find(&meetings).Error; err != nil {
		return nil, errors.DatabaseError("load recent meetings", err)
	}

	if len(meetings) < s.misses {
		return &models.SweepResult{
			DeactivatedIDs: []string{},
			Message:        fmt.Sprintf("not enough meetings to evaluate (need %d, have %d)", s.misses, len(meetings)),
		}, nil
	}

	meetingIDs := make([]uint, 0, len(meetings))
	for _, m := range meetings {
		meetingIDs = append(meetingIDs, m.MeetingID)
	}

	var activeMembers []models.Member
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&activeMembers).Error; err != nil {
		return nil, errors.DatabaseError("load active members", err)
	}

	// One query for all relevant attendance, bucketed per member.
	var records []models.AttendanceRecord
	if err := s.db.WithContext(ctx).
		Where("meeting_id IN ?", meetingIDs).
		Find(&records).Error; err != nil {
		return nil, errors.DatabaseError("load attendance records", err)
	}

	presence := make(map[string]map[uint]bool)
	for _, rec := range records {
		if presence[rec.MemberID] == nil {
			presence[rec.MemberID] = make(map[uint]bool)
		}
		presence[rec.MemberID][rec.MeetingID] = rec.Present
	}

	toDeactivate := make([]string, 0)
	for _, member := range activeMembers {
		missed := 0
		for _, meeting := range meetings {
			// Walk newest to oldest. Any presence breaks the streak.
			if presence[member.MemberID][meeting.MeetingID] {
				break
			}
			missed++
		}
		if missed == s.misses {
			toDeactivate = append(toDeactivate, member.MemberID)
		}
	}

	if dryRun {
		return &models.SweepResult{
			DeactivatedCount: len(toDeactivate),
			DeactivatedIDs:   toDeactivate,
			DryRun:           true,
			Message:          fmt.Sprintf("dry run: %d members would be deactivated", len(toDeactivate)),
		}, nil
	}

	if len(toDeactivate) > 0 {
		if err := s.db.WithContext(ctx).
			Model(&models.Member{}).
			Where("member_id IN ?", toDeactivate).
			Update("is_active", false).Error; err != nil {
			return nil, errors.DatabaseError("deactivate members", err)
		}
		for range toDeactivate {
			monitoring.RecordBusinessEvent(monitoring.EventMemberDeactivated, monitoring.OutcomeSuccess)
		}
		slog.Info("Inactivity sweep deactivated members",
			"count", len(toDeactivate),
			"memberIds", toDeactivate,
			"threshold", s.misses)
	}

	monitoring.RecordBusinessEvent(monitoring.EventSweepExecuted, monitoring.OutcomeSuccess)
	return &models.SweepResult{
		DeactivatedCount: len(toDeactivate),
		DeactivatedIDs:   toDeactivate,
		Message:          fmt.Sprintf("deactivated %d members after %d consecutive absences", len(toDeactivate), s.misses),
	}, nil
}
