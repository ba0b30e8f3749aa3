package services

import (
	"fmt"
	"time"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/v1/models"
	"gorm.io/gorm"
)

// Recommendation priorities, highest first on the dashboard.
const (
	priorityHigh   = "high"
	priorityMedium = "medium"
	priorityLow    = "low"
)

// RecommendationService derives actionable suggestions from the current
// state of members, meetings and fees.
type RecommendationService struct {
	db *gorm.DB
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(db *gorm.DB) *RecommendationService {
	return &RecommendationService{db: db}
}

// Recommendations inspects the club state and returns suggestions ordered
// by priority.
func (s *RecommendationService) Recommendations() ([]models.Recommendation, error) {
	var recs []models.Recommendation

	atRisk, err := s.membersAtRisk()
	if err != nil {
		return nil, err
	}
	if atRisk > 0 {
		recs = append(recs, models.Recommendation{
			Type:     "member_retention",
			Title:    "Members at risk of deactivation",
			Message:  fmt.Sprintf("%d active members have missed the last two meetings", atRisk),
			Action:   "Reach out before the next meeting",
			Priority: priorityHigh,
		})
	}

	unpaid, err := s.unpaidAttendees()
	if err != nil {
		return nil, err
	}
	if unpaid > 0 {
		recs = append(recs, models.Recommendation{
			Type:     "fee_collection",
			Title:    "Outstanding meeting fees",
			Message:  fmt.Sprintf("%d attendance records from the last month have unpaid fees", unpaid),
			Action:   "Follow up on fee collection",
			Priority: priorityMedium,
		})
	}

	staleDays, err := s.daysSinceLastMeeting()
	if err != nil {
		return nil, err
	}
	if staleDays > 30 {
		recs = append(recs, models.Recommendation{
			Type:     "scheduling",
			Title:    "No recent meetings",
			Message:  fmt.Sprintf("the last meeting was %d days ago", staleDays),
			Action:   "Schedule the next meeting",
			Priority: priorityMedium,
		})
	}

	var inactive int64
	if err := s.db.Model(&models.Member{}).
		Where("is_active = ?", false).
		Count(&inactive).Error; err != nil {
		return nil, errors.DatabaseError("count inactive members", err)
	}
	if inactive > 0 {
		recs = append(recs, models.Recommendation{
			Type:     "reactivation",
			Title:    "Inactive members",
			Message:  fmt.Sprintf("%d members are currently inactive", inactive),
			Action:   "Review the inactive list for members worth re-engaging",
			Priority: priorityLow,
		})
	}

	return recs, nil
}

// membersAtRisk counts active members absent from the two newest meetings,
// i.e. one more absence away from the sweeper's default threshold.
func (s *RecommendationService) membersAtRisk() (int, error) {
	var meetings []models.Meeting
	if err := s.db.Order("meeting_date DESC").Limit(2).Find(&meetings).Error; err != nil {
		return 0, errors.DatabaseError("load recent meetings", err)
	}
	if len(meetings) < 2 {
		return 0, nil
	}

	meetingIDs := []uint{meetings[0].MeetingID, meetings[1].MeetingID}

	var activeMembers []models.Member
	if err := s.db.Where("is_active = ?", true).Find(&activeMembers).Error; err != nil {
		return 0, errors.DatabaseError("load active members", err)
	}

	var records []models.AttendanceRecord
	if err := s.db.Where("meeting_id IN ?", meetingIDs).Find(&records).Error; err != nil {
		return 0, errors.DatabaseError("load attendance", err)
	}

	present := make(map[string]bool)
	for _, rec := range records {
		if rec.Present {
			present[rec.MemberID] = true
		}
	}

	atRisk := 0
	for _, member := range activeMembers {
		if !present[member.MemberID] {
			atRisk++
		}
	}
	return atRisk, nil
}

// unpaidAttendees counts attended-but-unpaid records from the last month.
func (s *RecommendationService) unpaidAttendees() (int64, error) {
	cutoff := time.Now().AddDate(0, -1, 0)
	var count int64
	err := s.db.Model(&models.AttendanceRecord{}).
		Joins("JOIN meetings ON meetings.meeting_id = attendance_records.meeting_id").
		Where("attendance_records.present = ? AND attendance_records.fee_paid = ?", true, false).
		Where("meetings.meeting_date >= ?", cutoff).
		Count(&count).Error
	if err != nil {
		return 0, errors.DatabaseError("count unpaid attendance", err)
	}
	return count, nil
}

// daysSinceLastMeeting returns days since the newest meeting, 0 when no
// meetings exist.
func (s *RecommendationService) daysSinceLastMeeting() (int, error) {
	var meeting models.Meeting
	err := s.db.Order("meeting_date DESC").First(&meeting).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, errors.DatabaseError("load last meeting", err)
	}
	return int(time.Since(meeting.MeetingDate).Hours() / 24), nil
}
