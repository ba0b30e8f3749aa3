package services

import (
	"time"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/shared/utils"
	"github.com/clubworks/mms-backend/v1/models"
	"gorm.io/gorm"
)

// ReportService produces the condensed reports backing the reports views.
type ReportService struct {
	db *gorm.DB
}

// NewReportService creates a new report service
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// QuickStats computes the year-to-date figures for the reports landing view.
func (s *ReportService) QuickStats() (*models.QuickStats, error) {
	stats := &models.QuickStats{}
	now := time.Now().UTC()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	if err := s.db.Model(&models.Member{}).
		Where("is_active = ?", true).
		Count(&stats.ActiveMembers).Error; err != nil {
		return nil, errors.DatabaseError("count active members", err)
	}
	if err := s.db.Model(&models.Member{}).
		Where("joined_at >= ?", yearStart).
		Count(&stats.NewMembersThisYear).Error; err != nil {
		return nil, errors.DatabaseError("count new members", err)
	}
	if err := s.db.Model(&models.Meeting{}).
		Where("meeting_date >= ?", yearStart).
		Count(&stats.MeetingsThisYear).Error; err != nil {
		return nil, errors.DatabaseError("count meetings", err)
	}

	var totalRecords, presentRecords int64
	if err := s.db.Model(&models.AttendanceRecord{}).
		Joins("JOIN meetings ON meetings.meeting_id = attendance_records.meeting_id").
		Where("meetings.meeting_date >= ?", yearStart).
		Count(&totalRecords).Error; err != nil {
		return nil, errors.DatabaseError("count attendance", err)
	}
	if err := s.db.Model(&models.AttendanceRecord{}).
		Joins("JOIN meetings ON meetings.meeting_id = attendance_records.meeting_id").
		Where("meetings.meeting_date >= ? AND attendance_records.present = ?", yearStart, true).
		Count(&presentRecords).Error; err != nil {
		return nil, errors.DatabaseError("count presences", err)
	}
	if totalRecords > 0 {
		stats.AvgAttendanceRate = float64(presentRecords) / float64(totalRecords) * 100
	}

	if err := s.db.Model(&models.Payment{}).
		Where("paid_at >= ?", yearStart).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.FeesCollectedYear).Error; err != nil {
		return nil, errors.DatabaseError("sum payments", err)
	}

	// Members who attended this year but still owe a meeting fee.
	if err := s.db.Model(&models.AttendanceRecord{}).
		Joins("JOIN meetings ON meetings.meeting_id = attendance_records.meeting_id").
		Where("meetings.meeting_date >= ?", yearStart).
		Where("attendance_records.present = ? AND attendance_records.fee_paid = ?", true, false).
		Distinct("attendance_records.member_id").
		Count(&stats.OutstandingPayers).Error; err != nil {
		return nil, errors.DatabaseError("count outstanding payers", err)
	}

	return stats, nil
}

// Heatmap builds the member-by-meeting attendance grid for a date range.
// When no range is given it covers the newest 12 meetings.
func (s *ReportService) Heatmap(from, to *string) (*models.HeatmapResponse, error) {
	query := s.db.Model(&models.Meeting{})
	ranged := false
	if from != nil && *from != "" {
		fromDate, err := utils.ParseDate(*from)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"from": err.Error()})
		}
		query = query.Where("meeting_date >= ?", fromDate)
		ranged = true
	}
	if to != nil && *to != "" {
		toDate, err := utils.ParseDate(*to)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"to": err.Error()})
		}
		query = query.Where("meeting_date <= ?", toDate.Add(24*time.Hour))
		ranged = true
	}

	var meetings []models.Meeting
	if ranged {
		if err := query.Order("meeting_date").Find(&meetings).Error; err != nil {
			return nil, errors.DatabaseError("load meetings", err)
		}
	} else {
		if err := query.Order("meeting_date DESC").Limit(12).Find(&meetings).Error; err != nil {
			return nil, errors.DatabaseError("load meetings", err)
		}
		// Flip back to chronological order for the grid.
		for i, j := 0, len(meetings)-1; i < j; i, j = i+1, j-1 {
			meetings[i], meetings[j] = meetings[j], meetings[i]
		}
	}

	var members []models.Member
	if err := s.db.Where("is_active = ?", true).
		Order("member_id").
		Find(&members).Error; err != nil {
		return nil, errors.DatabaseError("load members", err)
	}

	meetingIDs := make([]uint, 0, len(meetings))
	for _, m := range meetings {
		meetingIDs = append(meetingIDs, m.MeetingID)
	}

	recordIndex := make(map[string]map[uint]models.AttendanceRecord)
	if len(meetingIDs) > 0 {
		var records []models.AttendanceRecord
		if err := s.db.Where("meeting_id IN ?", meetingIDs).Find(&records).Error; err != nil {
			return nil, errors.DatabaseError("load attendance", err)
		}
		for _, rec := range records {
			if recordIndex[rec.MemberID] == nil {
				recordIndex[rec.MemberID] = make(map[uint]models.AttendanceRecord)
			}
			recordIndex[rec.MemberID][rec.MeetingID] = rec
		}
	}

	resp := &models.HeatmapResponse{
		Meetings: make([]models.MeetingResponse, 0, len(meetings)),
		Rows:     make([]models.HeatmapMemberRow, 0, len(members)),
	}
	for i := range meetings {
		resp.Meetings = append(resp.Meetings, toMeetingResponse(&meetings[i]))
	}

	for _, member := range members {
		row := models.HeatmapMemberRow{
			MemberID: member.MemberID,
			Name:     member.FullName(),
			Cells:    make([]models.HeatmapCell, 0, len(meetings)),
		}
		for _, meeting := range meetings {
			rec := recordIndex[member.MemberID][meeting.MeetingID]
			cell := models.HeatmapCell{
				MemberID:    member.MemberID,
				MeetingID:   meeting.MeetingID,
				MeetingDate: utils.FormatDate(meeting.MeetingDate),
				Present:     rec.Present,
				FeePaid:     rec.FeePaid,
			}
			if cell.Present {
				row.PresentCount++
			}
			if cell.FeePaid {
				row.PaidCount++
			}
			row.Cells = append(row.Cells, cell)
		}
		if len(meetings) > 0 {
			row.Rate = float64(row.PresentCount) / float64(len(meetings)) * 100
		}
		resp.Rows = append(resp.Rows, row)
	}

	return resp, nil
}
