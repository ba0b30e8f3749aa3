package services

import (
	"log/slog"
	"time"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/shared/utils"
	"github.com/clubworks/mms-backend/v1/models"
	"gorm.io/gorm"
)

// MeetingService handles meeting-related operations
type MeetingService struct {
	db *gorm.DB
}

// NewMeetingService creates a new meeting service
func NewMeetingService(db *gorm.DB) *MeetingService {
	return &MeetingService{db: db}
}

// CreateMeeting schedules a meeting. Meeting dates are unique, so a second
// meeting on the same date is reported as a conflict.
func (s *MeetingService) CreateMeeting(req *models.CreateMeetingRequest) (*models.MeetingResponse, error) {
	if req.MeetingDate == "" {
		return nil, errors.FieldValidationError(map[string]string{"meetingDate": "meeting date is required"})
	}
	date, err := utils.ParseDate(req.MeetingDate)
	if err != nil {
		return nil, errors.FieldValidationError(map[string]string{"meetingDate": err.Error()})
	}
	if req.Fee < 0 {
		return nil, errors.FieldValidationError(map[string]string{"fee": "fee cannot be negative"})
	}

	meeting := models.Meeting{
		MeetingDate: date,
		Fee:         req.Fee,
	}
	if err := s.db.Create(&meeting).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "meeting", "create meeting")
	}

	slog.Info("Meeting created", "meetingId", meeting.MeetingID, "date", req.MeetingDate)
	resp := toMeetingResponse(&meeting)
	return &resp, nil
}

// GetMeeting retrieves a meeting by ID
func (s *MeetingService) GetMeeting(meetingID uint) (*models.MeetingResponse, error) {
	var meeting models.Meeting
	if err := s.db.First(&meeting, "meeting_id = ?", meetingID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "meeting", "get meeting")
	}
	resp := toMeetingResponse(&meeting)
	return &resp, nil
}

// ListMeetings returns meetings newest first, optionally bounded by date.
func (s *MeetingService) ListMeetings(from, to *string) ([]models.MeetingResponse, error) {
	query := s.db.Model(&models.Meeting{})
	if from != nil && *from != "" {
		fromDate, err := utils.ParseDate(*from)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"from": err.Error()})
		}
		query = query.Where("meeting_date >= ?", fromDate)
	}
	if to != nil && *to != "" {
		toDate, err := utils.ParseDate(*to)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"to": err.Error()})
		}
		query = query.Where("meeting_date <= ?", toDate.Add(24*time.Hour))
	}

	var meetings []models.Meeting
	if err := query.Order("meeting_date DESC").Find(&meetings).Error; err != nil {
		return nil, errors.DatabaseError("list meetings", err)
	}

	responses := make([]models.MeetingResponse, 0, len(meetings))
	for i := range meetings {
		responses = append(responses, toMeetingResponse(&meetings[i]))
	}
	return responses, nil
}

// UpdateMeeting edits a meeting's date or fee.
func (s *MeetingService) UpdateMeeting(meetingID uint, req *models.UpdateMeetingRequest) (*models.MeetingResponse, error) {
	var meeting models.Meeting
	if err := s.db.First(&meeting, "meeting_id = ?", meetingID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "meeting", "update meeting")
	}

	if req.MeetingDate != nil {
		date, err := utils.ParseDate(*req.MeetingDate)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"meetingDate": err.Error()})
		}
		meeting.MeetingDate = date
	}
	if req.Fee != nil {
		if *req.Fee < 0 {
			return nil, errors.FieldValidationError(map[string]string{"fee": "fee cannot be negative"})
		}
		meeting.Fee = *req.Fee
	}

	if err := s.db.Save(&meeting).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "meeting", "update meeting")
	}

	slog.Info("Meeting updated", "meetingId", meeting.MeetingID)
	resp := toMeetingResponse(&meeting)
	return &resp, nil
}

// DeleteMeeting removes a meeting and its attendance records.
func (s *MeetingService) DeleteMeeting(meetingID uint) error {
	var meeting models.Meeting
	if err := s.db.First(&meeting, "meeting_id = ?", meetingID).Error; err != nil {
		return errors.HandleDatabaseError(err, "meeting", "delete meeting")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&models.AttendanceRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&meeting).Error
	})
	if err != nil {
		return errors.DatabaseError("delete meeting", err)
	}

	slog.Info("Meeting deleted", "meetingId", meetingID)
	return nil
}

// toMeetingResponse converts a meeting model to its API representation
func toMeetingResponse(m *models.Meeting) models.MeetingResponse {
	return models.MeetingResponse{
		MeetingID:   m.MeetingID,
		MeetingDate: utils.FormatDate(m.MeetingDate),
		Fee:         m.Fee,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   m.UpdatedAt.Format(time.RFC3339),
	}
}
