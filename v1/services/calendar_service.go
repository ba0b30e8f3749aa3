package services

import (
	"strconv"
	"time"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/shared/utils"
	"github.com/clubworks/mms-backend/v1/models"
	"gorm.io/gorm"
)

// CalendarService builds the month view of meetings and public holidays.
type CalendarService struct {
	db *gorm.DB
}

// NewCalendarService creates a new calendar service
func NewCalendarService(db *gorm.DB) *CalendarService {
	return &CalendarService{db: db}
}

// MonthGrid assembles the calendar for one month: a Monday-first week grid
// with the month's meetings and holidays placed on their days, per-meeting
// attendance tallies, and the next ten upcoming holidays. Missing parameters
// default to the current month.
func (s *CalendarService) MonthGrid(yearParam, monthParam *string) (*models.CalendarResponse, error) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())

	fieldErrs := make(map[string]string)
	if yearParam != nil && *yearParam != "" {
		y, err := strconv.Atoi(*yearParam)
		if err != nil || y < 1900 || y > 9999 {
			fieldErrs["year"] = "year must be a four-digit number"
		} else {
			year = y
		}
	}
	if monthParam != nil && *monthParam != "" {
		m, err := strconv.Atoi(*monthParam)
		if err != nil || m < 1 || m > 12 {
			fieldErrs["month"] = "month must be between 1 and 12"
		} else {
			month = m
		}
	}
	if len(fieldErrs) > 0 {
		return nil, errors.FieldValidationError(fieldErrs)
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	var meetings []models.Meeting
	if err := s.db.
		Where("meeting_date >= ? AND meeting_date < ?", monthStart, nextMonth).
		Order("meeting_date").
		Find(&meetings).Error; err != nil {
		return nil, errors.DatabaseError("load meetings", err)
	}

	meetingResponses := make([]models.MeetingResponse, 0, len(meetings))
	meetingsByDay := make(map[int][]models.MeetingResponse)
	stats := make([]models.CalendarMeetingStats, 0, len(meetings))
	for i := range meetings {
		resp := toMeetingResponse(&meetings[i])
		meetingResponses = append(meetingResponses, resp)
		day := meetings[i].MeetingDate.Day()
		meetingsByDay[day] = append(meetingsByDay[day], resp)

		stat, err := s.meetingStats(meetings[i].MeetingID)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	monthHolidays := make([]models.Holiday, 0, 4)
	holidaysByDay := make(map[int][]models.Holiday)
	for _, h := range publicHolidays(year) {
		if h.date.Month() != time.Month(month) {
			continue
		}
		resp := h.toResponse()
		monthHolidays = append(monthHolidays, resp)
		holidaysByDay[h.date.Day()] = append(holidaysByDay[h.date.Day()], resp)
	}

	resp := &models.CalendarResponse{
		Year:             year,
		Month:            month,
		MonthName:        monthStart.Month().String(),
		Weeks:            buildMonthWeeks(year, time.Month(month), now, meetingsByDay, holidaysByDay),
		Meetings:         meetingResponses,
		MeetingStats:     stats,
		MonthHolidays:    monthHolidays,
		UpcomingHolidays: upcomingHolidays(10, now),
		PrevYear:         year,
		PrevMonth:        month - 1,
		NextYear:         year,
		NextMonth:        month + 1,
	}
	if month == 1 {
		resp.PrevYear, resp.PrevMonth = year-1, 12
	}
	if month == 12 {
		resp.NextYear, resp.NextMonth = year+1, 1
	}
	return resp, nil
}

func (s *CalendarService) meetingStats(meetingID uint) (models.CalendarMeetingStats, error) {
	stat := models.CalendarMeetingStats{MeetingID: meetingID}
	if err := s.db.Model(&models.AttendanceRecord{}).
		Where("meeting_id = ?", meetingID).
		Count(&stat.Total).Error; err != nil {
		return stat, errors.DatabaseError("count attendance", err)
	}
	if err := s.db.Model(&models.AttendanceRecord{}).
		Where("meeting_id = ? AND present = ?", meetingID, true).
		Count(&stat.Present).Error; err != nil {
		return stat, errors.DatabaseError("count presences", err)
	}
	if err := s.db.Model(&models.AttendanceRecord{}).
		Where("meeting_id = ? AND fee_paid = ?", meetingID, true).
		Count(&stat.Paid).Error; err != nil {
		return stat, errors.DatabaseError("count fee payments", err)
	}
	return stat, nil
}

// buildMonthWeeks lays the month out as Monday-first weeks. Cells outside
// the month are nil.
func buildMonthWeeks(year int, month time.Month, today time.Time, meetingsByDay map[int][]models.MeetingResponse, holidaysByDay map[int][]models.Holiday) [][]*models.CalendarDay {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := monthStart.AddDate(0, 1, -1).Day()
	offset := (int(monthStart.Weekday()) + 6) % 7

	var weeks [][]*models.CalendarDay
	week := make([]*models.CalendarDay, 0, 7)
	for i := 0; i < offset; i++ {
		week = append(week, nil)
	}
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		week = append(week, &models.CalendarDay{
			Date:     utils.FormatDate(date),
			Day:      day,
			IsToday:  date.Year() == today.Year() && date.YearDay() == today.YearDay(),
			Meetings: meetingsByDay[day],
			Holidays: holidaysByDay[day],
		})
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]*models.CalendarDay, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, nil)
		}
		weeks = append(weeks, week)
	}
	return weeks
}
