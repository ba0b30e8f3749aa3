package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/shared/monitoring"
	"github.com/clubworks/mms-backend/shared/utils"
	"github.com/clubworks/mms-backend/v1/models"
	"gorm.io/gorm"
)

// AttendanceService records who attended which meeting and whether they paid
// the meeting fee. Every successful write triggers the gated inactivity
// sweep and a badge re-evaluation for the affected members.
type AttendanceService struct {
	db        *gorm.DB
	lifecycle *LifecycleService
	badges    *BadgeService
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(db *gorm.DB, lifecycle *LifecycleService, badges *BadgeService) *AttendanceService {
	return &AttendanceService{db: db, lifecycle: lifecycle, badges: badges}
}

// Mark records attendance for one member at one meeting. Presence and fee
// payment are independent: a member can pay without attending. Marking the
// same member and meeting twice is a conflict; use Update to change a record.
func (s *AttendanceService) Mark(ctx context.Context, req *models.MarkAttendanceRequest) (*models.AttendanceResponse, error) {
	var member models.Member
	if err := s.db.First(&member, "member_id = ?", req.MemberID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "member", "mark attendance")
	}
	var meeting models.Meeting
	if err := s.db.First(&meeting, "meeting_id = ?", req.MeetingID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "meeting", "mark attendance")
	}

	record := models.AttendanceRecord{
		MemberID:  req.MemberID,
		MeetingID: req.MeetingID,
		Present:   req.Present,
		FeePaid:   req.FeePaid,
	}
	if err := s.db.Create(&record).Error; err != nil {
		apiErr := errors.HandleDatabaseError(err, "attendance record", "mark attendance")
		if apiErr.Type == errors.ErrorTypeConflict {
			return nil, errors.ConflictError(fmt.Sprintf(
				"attendance for member %s at meeting %d is already recorded", req.MemberID, req.MeetingID))
		}
		return nil, apiErr
	}

	slog.Info("Attendance marked",
		"memberId", req.MemberID,
		"meetingId", req.MeetingID,
		"present", req.Present,
		"feePaid", req.FeePaid)
	monitoring.RecordBusinessEvent(monitoring.EventAttendanceMarked, monitoring.OutcomeSuccess)

	s.afterWrite(ctx, req.MemberID)

	record.Member = &member
	record.Meeting = &meeting
	resp := toAttendanceResponse(&record)
	return &resp, nil
}

// BulkMark records attendance for many members of one meeting. Existing
// records are updated in place rather than rejected, so a sheet can be
// re-submitted after corrections.
func (s *AttendanceService) BulkMark(ctx context.Context, req *models.BulkAttendanceRequest) (*models.BulkAttendanceResult, error) {
	var meeting models.Meeting
	if err := s.db.First(&meeting, "meeting_id = ?", req.MeetingID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "meeting", "bulk mark attendance")
	}
	if len(req.Entries) == 0 {
		return nil, errors.ValidationError("EMPTY_BULK_REQUEST", "at least one entry is required")
	}

	result := &models.BulkAttendanceResult{}
	touched := make([]string, 0, len(req.Entries))

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range req.Entries {
			var member models.Member
			if err := tx.First(&member, "member_id = ?", entry.MemberID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					result.Skipped++
					result.Errors = append(result.Errors, fmt.Sprintf("member %s not found", entry.MemberID))
					continue
				}
				return err
			}

			var existing models.AttendanceRecord
			err := tx.Where("member_id = ? AND meeting_id = ?", entry.MemberID, req.MeetingID).
				First(&existing).Error
			switch {
			case err == nil:
				existing.Present = entry.Present
				existing.FeePaid = entry.FeePaid
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				result.Updated++
			case err == gorm.ErrRecordNotFound:
				record := models.AttendanceRecord{
					MemberID:  entry.MemberID,
					MeetingID: req.MeetingID,
					Present:   entry.Present,
					FeePaid:   entry.FeePaid,
				}
				if err := tx.Create(&record).Error; err != nil {
					return err
				}
				result.Created++
			default:
				return err
			}
			touched = append(touched, entry.MemberID)
		}
		return nil
	})
	if err != nil {
		return nil, errors.DatabaseError("bulk mark attendance", err)
	}

	slog.Info("Bulk attendance recorded",
		"meetingId", req.MeetingID,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped)
	monitoring.RecordBusinessEvent(monitoring.EventAttendanceMarked, monitoring.OutcomeSuccess)

	s.afterWrite(ctx, touched...)
	return result, nil
}

// MarkAllPresent records every active member as present (and paid) for a
// meeting, a shortcut for small clubs where absence is the exception.
func (s *AttendanceService) MarkAllPresent(ctx context.Context, meetingID uint, feePaid bool) (*models.BulkAttendanceResult, error) {
	var memberIDs []string
	if err := s.db.Model(&models.Member{}).
		Where("is_active = ?", true).
		Pluck("member_id", &memberIDs).Error; err != nil {
		return nil, errors.DatabaseError("list active members", err)
	}

	entries := make([]models.BulkAttendanceEntry, 0, len(memberIDs))
	for _, id := range memberIDs {
		entries = append(entries, models.BulkAttendanceEntry{
			MemberID: id,
			Present:  true,
			FeePaid:  feePaid,
		})
	}

	return s.BulkMark(ctx, &models.BulkAttendanceRequest{
		MeetingID: meetingID,
		Entries:   entries,
	})
}

// Update edits an existing attendance record.
func (s *AttendanceService) Update(ctx context.Context, attendanceID uint, req *models.UpdateAttendanceRequest) (*models.AttendanceResponse, error) {
	var record models.AttendanceRecord
	if err := s.db.Preload("Member").Preload("Meeting").
		First(&record, "attendance_id = ?", attendanceID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "attendance record", "update attendance")
	}

	if req.Present != nil {
		record.Present = *req.Present
	}
	if req.FeePaid != nil {
		record.FeePaid = *req.FeePaid
	}

	if err := s.db.Save(&record).Error; err != nil {
		return nil, errors.DatabaseError("update attendance", err)
	}

	slog.Info("Attendance updated", "attendanceId", attendanceID)
	s.afterWrite(ctx, record.MemberID)

	resp := toAttendanceResponse(&record)
	return &resp, nil
}

// Delete removes an attendance record.
func (s *AttendanceService) Delete(attendanceID uint) error {
	result := s.db.Delete(&models.AttendanceRecord{}, "attendance_id = ?", attendanceID)
	if result.Error != nil {
		return errors.DatabaseError("delete attendance", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundError("attendance record")
	}
	slog.Info("Attendance deleted", "attendanceId", attendanceID)
	return nil
}

// ListForMeeting returns all attendance records of one meeting.
func (s *AttendanceService) ListForMeeting(meetingID uint) ([]models.AttendanceResponse, error) {
	var meeting models.Meeting
	if err := s.db.First(&meeting, "meeting_id = ?", meetingID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "meeting", "list attendance")
	}

	var records []models.AttendanceRecord
	if err := s.db.Preload("Member").Preload("Meeting").
		Where("meeting_id = ?", meetingID).
		Order("member_id").
		Find(&records).Error; err != nil {
		return nil, errors.DatabaseError("list attendance", err)
	}

	responses := make([]models.AttendanceResponse, 0, len(records))
	for i := range records {
		responses = append(responses, toAttendanceResponse(&records[i]))
	}
	return responses, nil
}

// ListForMember returns a member's attendance history, newest meeting first.
func (s *AttendanceService) ListForMember(memberID string) ([]models.AttendanceResponse, error) {
	var member models.Member
	if err := s.db.First(&member, "member_id = ?", memberID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "member", "list attendance")
	}

	var records []models.AttendanceRecord
	if err := s.db.Preload("Member").Preload("Meeting").
		Joins("JOIN meetings ON meetings.meeting_id = attendance_records.meeting_id").
		Where("attendance_records.member_id = ?", memberID).
		Order("meetings.meeting_date DESC").
		Find(&records).Error; err != nil {
		return nil, errors.DatabaseError("list attendance", err)
	}

	responses := make([]models.AttendanceResponse, 0, len(records))
	for i := range records {
		responses = append(responses, toAttendanceResponse(&records[i]))
	}
	return responses, nil
}

// afterWrite runs the gated sweep and re-evaluates badges for the members
// whose records changed. Failures are logged, never surfaced: attendance
// writes must not fail because a follow-up computation did.
func (s *AttendanceService) afterWrite(ctx context.Context, memberIDs ...string) {
	if s.lifecycle != nil {
		if _, err := s.lifecycle.SweepTriggered(ctx); err != nil {
			slog.Warn("Triggered sweep failed", "error", err)
		}
	}
	if s.badges != nil {
		for _, id := range memberIDs {
			if _, err := s.badges.Evaluate(id); err != nil {
				slog.Warn("Badge evaluation failed", "memberId", id, "error", err)
			}
		}
	}
}

// toAttendanceResponse converts an attendance record to its API representation
func toAttendanceResponse(rec *models.AttendanceRecord) models.AttendanceResponse {
	resp := models.AttendanceResponse{
		AttendanceID: rec.AttendanceID,
		MemberID:     rec.MemberID,
		MeetingID:    rec.MeetingID,
		Present:      rec.Present,
		FeePaid:      rec.FeePaid,
		CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    rec.UpdatedAt.Format(time.RFC3339),
	}
	if rec.Member != nil {
		resp.MemberName = rec.Member.FullName()
	}
	if rec.Meeting != nil {
		resp.MeetingDate = utils.FormatDate(rec.Meeting.MeetingDate)
	}
	return resp
}
