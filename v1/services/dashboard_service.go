package services

import (
	"log/slog"
	"sort"
	"time"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/v1/models"
	"gorm.io/gorm"
)

// DashboardService aggregates the headline figures for the admin dashboard.
type DashboardService struct {
	db              *gorm.DB
	engagement      *EngagementService
	recommendations *RecommendationService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB, engagement *EngagementService, recommendations *RecommendationService) *DashboardService {
	return &DashboardService{
		db:              db,
		engagement:      engagement,
		recommendations: recommendations,
	}
}

// Summary computes the dashboard in one pass: member and meeting counts,
// the overall attendance rate, collections, the engagement leaderboard and
// the current recommendations.
func (s *DashboardService) Summary() (*models.DashboardResponse, error) {
	resp := &models.DashboardResponse{
		TopPerformers:   []models.TopPerformer{},
		Recommendations: []models.Recommendation{},
	}

	if err := s.db.Model(&models.Member{}).Count(&resp.TotalMembers).Error; err != nil {
		return nil, errors.DatabaseError("count members", err)
	}
	if err := s.db.Model(&models.Member{}).
		Where("is_active = ?", true).
		Count(&resp.ActiveMembers).Error; err != nil {
		return nil, errors.DatabaseError("count active members", err)
	}
	resp.InactiveMembers = resp.TotalMembers - resp.ActiveMembers

	if err := s.db.Model(&models.Meeting{}).Count(&resp.TotalMeetings).Error; err != nil {
		return nil, errors.DatabaseError("count meetings", err)
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if err := s.db.Model(&models.Meeting{}).
		Where("meeting_date >= ?", monthStart).
		Count(&resp.MeetingsThisMonth).Error; err != nil {
		return nil, errors.DatabaseError("count meetings this month", err)
	}

	var totalRecords, presentRecords int64
	if err := s.db.Model(&models.AttendanceRecord{}).Count(&totalRecords).Error; err != nil {
		return nil, errors.DatabaseError("count attendance", err)
	}
	if err := s.db.Model(&models.AttendanceRecord{}).
		Where("present = ?", true).
		Count(&presentRecords).Error; err != nil {
		return nil, errors.DatabaseError("count presences", err)
	}
	if totalRecords > 0 {
		resp.AttendanceRate = float64(presentRecords) / float64(totalRecords) * 100
	}

	if err := s.db.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&resp.TotalCollected).Error; err != nil {
		return nil, errors.DatabaseError("sum payments", err)
	}
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if err := s.db.Model(&models.Payment{}).
		Where("paid_at >= ?", yearStart).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&resp.CollectedThisYear).Error; err != nil {
		return nil, errors.DatabaseError("sum payments this year", err)
	}

	if err := s.db.Model(&models.Badge{}).Count(&resp.BadgesAwarded).Error; err != nil {
		return nil, errors.DatabaseError("count badges", err)
	}

	performers, err := s.topPerformers(5)
	if err != nil {
		return nil, err
	}
	resp.TopPerformers = performers

	recs, err := s.recommendations.Recommendations()
	if err != nil {
		// The dashboard is still useful without suggestions.
		slog.Warn("Failed to compute recommendations", "error", err)
	} else {
		resp.Recommendations = recs
	}

	return resp, nil
}

// topPerformers scores every active member and returns the top n.
func (s *DashboardService) topPerformers(n int) ([]models.TopPerformer, error) {
	var members []models.Member
	if err := s.db.Where("is_active = ?", true).Find(&members).Error; err != nil {
		return nil, errors.DatabaseError("load active members", err)
	}

	performers := make([]models.TopPerformer, 0, len(members))
	for _, member := range members {
		score, err := s.engagement.Score(member.MemberID)
		if err != nil {
			slog.Warn("Engagement scoring failed", "memberId", member.MemberID, "error", err)
			continue
		}
		performers = append(performers, models.TopPerformer{
			MemberID: member.MemberID,
			Name:     member.FullName(),
			Role:     member.Role.Display(),
			Score:    score.Score,
			Grade:    score.Grade,
		})
	}

	sort.Slice(performers, func(i, j int) bool {
		return performers[i].Score > performers[j].Score
	})
	if len(performers) > n {
		performers = performers[:n]
	}
	return performers, nil
}
