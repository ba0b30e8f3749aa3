package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/clubworks/mms-backend/config"
	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/shared/monitoring"
	"github.com/clubworks/mms-backend/v1/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BadgeService awards achievement badges based on attendance, payment,
// tenure and role. Awarding is additive and idempotent; a badge once earned
// is never revoked, and re-evaluating a member never duplicates one.
type BadgeService struct {
	db  *gorm.DB
	cfg config.BadgeConfig
}

// NewBadgeService creates a new badge service
func NewBadgeService(db *gorm.DB, cfg config.BadgeConfig) *BadgeService {
	if cfg.PerfectAttendanceMinMeetings < 1 {
		cfg.PerfectAttendanceMinMeetings = 5
	}
	if cfg.PaymentChampionThreshold < 1 {
		cfg.PaymentChampionThreshold = 20
	}
	if cfg.VeteranTenureYears < 1 {
		cfg.VeteranTenureYears = 2
	}
	return &BadgeService{db: db, cfg: cfg}
}

// memberStats is the per-member aggregate the rules are evaluated against.
type memberStats struct {
	totalMeetings int
	presentCount  int
	paidCount     int
	streak        int
}

// Evaluate runs every badge rule for one member and persists any newly
// earned badges. It returns only the badges awarded by this call.
func (s *BadgeService) Evaluate(memberID string) ([]models.BadgeResponse, error) {
	var member models.Member
	if err := s.db.First(&member, "member_id = ?", memberID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "member", "evaluate badges")
	}

	stats, err := s.collectStats(memberID)
	if err != nil {
		return nil, err
	}

	existing, err := s.heldBadges(memberID)
	if err != nil {
		return nil, err
	}

	candidates := s.earnedBadges(&member, stats, existing)

	awarded := make([]models.BadgeResponse, 0, len(candidates))
	for _, badgeType := range candidates {
		if existing[badgeType] {
			continue
		}
		badge := models.Badge{
			BadgeID:     "bdg_" + uuid.New().String(),
			MemberID:    memberID,
			BadgeType:   badgeType,
			Description: badgeDescription(badgeType, s.cfg, &member, stats),
			EarnedAt:    time.Now().UTC(),
		}
		if err := s.db.Create(&badge).Error; err != nil {
			// A concurrent evaluation may have inserted the same badge.
			if apiErr := errors.HandleDatabaseError(err, "badge", "award badge"); apiErr.Type == errors.ErrorTypeConflict {
				continue
			}
			return nil, errors.DatabaseError("award badge", err)
		}
		slog.Info("Badge awarded", "memberId", memberID, "badge", badgeType)
		monitoring.RecordBusinessEvent(monitoring.EventBadgeAwarded, monitoring.OutcomeSuccess)
		awarded = append(awarded, toBadgeResponse(&badge))
	}

	return awarded, nil
}

// EvaluateAll runs badge evaluation for every active member and reports how
// many badges were awarded in total.
func (s *BadgeService) EvaluateAll() (int, error) {
	var memberIDs []string
	if err := s.db.Model(&models.Member{}).
		Where("is_active = ?", true).
		Pluck("member_id", &memberIDs).Error; err != nil {
		return 0, errors.DatabaseError("list active members", err)
	}

	total := 0
	for _, id := range memberIDs {
		awarded, err := s.Evaluate(id)
		if err != nil {
			slog.Warn("Badge evaluation failed for member", "memberId", id, "error", err)
			continue
		}
		total += len(awarded)
	}
	return total, nil
}

// GetMemberBadges returns a member's badges grouped by category.
func (s *BadgeService) GetMemberBadges(memberID string) (*models.BadgeSummary, error) {
	var member models.Member
	if err := s.db.First(&member, "member_id = ?", memberID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "member", "get badges")
	}

	var badges []models.Badge
	if err := s.db.Where("member_id = ?", memberID).
		Order("earned_at").
		Find(&badges).Error; err != nil {
		return nil, errors.DatabaseError("list badges", err)
	}

	summary := &models.BadgeSummary{
		MemberID:   memberID,
		Total:      len(badges),
		Badges:     make([]models.BadgeResponse, 0, len(badges)),
		ByCategory: make(map[string][]models.BadgeResponse),
	}
	for i := range badges {
		resp := toBadgeResponse(&badges[i])
		summary.Badges = append(summary.Badges, resp)
		category := string(badges[i].BadgeType.Category())
		summary.ByCategory[category] = append(summary.ByCategory[category], resp)
	}
	return summary, nil
}

// collectStats aggregates a member's attendance history. The streak counts
// consecutive presences from the newest meeting backwards; a meeting with no
// record counts as an absence.
func (s *BadgeService) collectStats(memberID string) (*memberStats, error) {
	var meetings []models.Meeting
	if err := s.db.Order("meeting_date DESC").Find(&meetings).Error; err != nil {
		return nil, errors.DatabaseError("load meetings", err)
	}

	var records []models.AttendanceRecord
	if err := s.db.Where("member_id = ?", memberID).Find(&records).Error; err != nil {
		return nil, errors.DatabaseError("load attendance", err)
	}

	byMeeting := make(map[uint]models.AttendanceRecord, len(records))
	for _, rec := range records {
		byMeeting[rec.MeetingID] = rec
	}

	stats := &memberStats{totalMeetings: len(meetings)}
	for _, rec := range records {
		if rec.Present {
			stats.presentCount++
		}
		if rec.FeePaid {
			stats.paidCount++
		}
	}

	for _, meeting := range meetings {
		rec, ok := byMeeting[meeting.MeetingID]
		if !ok || !rec.Present {
			break
		}
		stats.streak++
	}

	return stats, nil
}

// heldBadges returns the set of badge types the member already has.
func (s *BadgeService) heldBadges(memberID string) (map[models.BadgeType]bool, error) {
	var badges []models.Badge
	if err := s.db.Where("member_id = ?", memberID).Find(&badges).Error; err != nil {
		return nil, errors.DatabaseError("load badges", err)
	}
	held := make(map[models.BadgeType]bool, len(badges))
	for _, b := range badges {
		held[b.BadgeType] = true
	}
	return held, nil
}

// earnedBadges applies every rule family and returns the badge types the
// member currently qualifies for.
func (s *BadgeService) earnedBadges(member *models.Member, stats *memberStats, held map[models.BadgeType]bool) []models.BadgeType {
	var earned []models.BadgeType

	// Attendance rules. Perfect attendance needs a minimum sample so a
	// member who attended their only meeting is not decorated yet.
	if stats.totalMeetings >= s.cfg.PerfectAttendanceMinMeetings &&
		stats.presentCount == stats.totalMeetings && stats.totalMeetings > 0 {
		earned = append(earned, models.BadgePerfectAttendance)
	}
	// The 10-streak supersedes the 5-streak: once a member reaches ten, the
	// five-streak badge is no longer awarded (already-held copies remain).
	if stats.streak >= 10 {
		earned = append(earned, models.BadgeAttendanceStreak10)
	} else if stats.streak >= 5 && !held[models.BadgeAttendanceStreak10] {
		earned = append(earned, models.BadgeAttendanceStreak5)
	}

	// Payment rules
	if stats.presentCount > 0 && stats.paidCount == stats.presentCount {
		earned = append(earned, models.BadgeAlwaysPaid)
	}
	if stats.paidCount >= s.cfg.PaymentChampionThreshold {
		earned = append(earned, models.BadgePaymentChampion)
	}

	// Tenure rules
	if member.JoinedAt.Year() == s.cfg.FoundingYear {
		earned = append(earned, models.BadgeFoundingMember)
	}
	if time.Since(member.JoinedAt) >= time.Duration(s.cfg.VeteranTenureYears)*365*24*time.Hour {
		earned = append(earned, models.BadgeVeteranMember)
	}
	if member.IsActive {
		earned = append(earned, models.BadgeActiveMember)
	}

	// Role rules
	if member.Role.IsLeadership() {
		earned = append(earned, models.BadgeLeader)
	}
	if member.Role.IsCommittee() {
		earned = append(earned, models.BadgeCommittee)
	}

	return earned
}

// badgeDescription renders the human description stored with each badge.
// Count-bearing descriptions snapshot the ledger values at award time; they
// are never rewritten afterwards.
func badgeDescription(t models.BadgeType, cfg config.BadgeConfig, member *models.Member, stats *memberStats) string {
	switch t {
	case models.BadgePerfectAttendance:
		return fmt.Sprintf("Attended all %d meetings", stats.totalMeetings)
	case models.BadgeAttendanceStreak5:
		return "Attended 5 meetings in a row"
	case models.BadgeAttendanceStreak10:
		return "Attended 10 meetings in a row"
	case models.BadgeAlwaysPaid:
		return "Paid the fee at every attended meeting"
	case models.BadgePaymentChampion:
		return fmt.Sprintf("Paid fees for %d meetings", stats.paidCount)
	case models.BadgeFoundingMember:
		return fmt.Sprintf("Joined during the founding year %d", cfg.FoundingYear)
	case models.BadgeVeteranMember:
		years := int(time.Since(member.JoinedAt).Hours() / (24 * 365))
		return fmt.Sprintf("Member for %d years", years)
	case models.BadgeActiveMember:
		return "Active member"
	case models.BadgeLeader:
		return "Leadership role: " + member.Role.Display()
	case models.BadgeCommittee:
		return "Serves on the committee"
	default:
		return string(t)
	}
}

// toBadgeResponse converts a badge model to its API representation
func toBadgeResponse(b *models.Badge) models.BadgeResponse {
	return models.BadgeResponse{
		BadgeID:     b.BadgeID,
		MemberID:    b.MemberID,
		BadgeType:   string(b.BadgeType),
		Category:    string(b.BadgeType.Category()),
		Description: b.Description,
		EarnedAt:    b.EarnedAt.Format(time.RFC3339),
	}
}
