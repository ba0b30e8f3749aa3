package services

import (
	"time"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/v1/models"
	"gorm.io/gorm"
)

// Engagement score component caps. The four components sum to 100.
const (
	attendanceCap = 40.0
	paymentCap    = 30.0
	recentCap     = 20.0
	recentWindow  = 90 * 24 * time.Hour
)

// EngagementService computes composite engagement scores.
type EngagementService struct {
	db *gorm.DB
}

// NewEngagementService creates a new engagement service
func NewEngagementService(db *gorm.DB) *EngagementService {
	return &EngagementService{db: db}
}

// Score rates a member out of 100: overall attendance is worth 40, fee
// payment at attended meetings 30, attendance within the last 90 days 20,
// and the role bonus up to 10. Every ratio with a zero denominator scores
// that component as 0.
func (s *EngagementService) Score(memberID string) (*models.EngagementScore, error) {
	var member models.Member
	if err := s.db.First(&member, "member_id = ?", memberID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "member", "score engagement")
	}

	var meetings []models.Meeting
	if err := s.db.Order("meeting_date DESC").Find(&meetings).Error; err != nil {
		return nil, errors.DatabaseError("load meetings", err)
	}

	var records []models.AttendanceRecord
	if err := s.db.Where("member_id = ?", memberID).Find(&records).Error; err != nil {
		return nil, errors.DatabaseError("load attendance", err)
	}

	byMeeting := make(map[uint]models.AttendanceRecord, len(records))
	presentCount, paidAtAttended := 0, 0
	for _, rec := range records {
		byMeeting[rec.MeetingID] = rec
		if rec.Present {
			presentCount++
			if rec.FeePaid {
				paidAtAttended++
			}
		}
	}

	cutoff := time.Now().Add(-recentWindow)
	recentTotal, recentPresent := 0, 0
	for _, meeting := range meetings {
		if meeting.MeetingDate.Before(cutoff) {
			continue
		}
		recentTotal++
		if byMeeting[meeting.MeetingID].Present {
			recentPresent++
		}
	}

	breakdown := models.ScoreBreakdown{
		Attendance: cappedRatio(presentCount, len(meetings), attendanceCap),
		Payment:    cappedRatio(paidAtAttended, presentCount, paymentCap),
		Recent:     cappedRatio(recentPresent, recentTotal, recentCap),
		Leadership: member.Role.Bonus(),
	}

	score := breakdown.Attendance + breakdown.Payment + breakdown.Recent + breakdown.Leadership
	return &models.EngagementScore{
		MemberID:  memberID,
		Score:     score,
		Grade:     gradeFor(score),
		Breakdown: breakdown,
	}, nil
}

// cappedRatio scales num/den onto [0, cap]. A zero denominator scores 0.
func cappedRatio(num, den int, cap float64) float64 {
	if den <= 0 {
		return 0
	}
	value := float64(num) / float64(den) * cap
	if value > cap {
		return cap
	}
	return value
}

// gradeFor maps a score to a letter grade.
func gradeFor(score float64) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}
