package services

import (
	"testing"
	"time"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthGrid_PlacesMeetingsAndHolidays(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewCalendarService(db)

	seedMember(t, db, "MEM001", models.RoleNone)
	seedMember(t, db, "MEM002", models.RoleNone)
	meeting := seedMeeting(t, db, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), 100)
	seedAttendance(t, db, "MEM001", meeting.MeetingID, true, true)
	seedAttendance(t, db, "MEM002", meeting.MeetingID, false, false)
	// Outside May, must not appear.
	seedMeeting(t, db, time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC), 100)

	grid, err := svc.MonthGrid(strPtr("2025"), strPtr("5"))
	require.NoError(t, err)

	assert.Equal(t, 2025, grid.Year)
	assert.Equal(t, 5, grid.Month)
	assert.Equal(t, "May", grid.MonthName)
	require.Len(t, grid.Meetings, 1)
	assert.Equal(t, meeting.MeetingID, grid.Meetings[0].MeetingID)

	require.Len(t, grid.MeetingStats, 1)
	assert.EqualValues(t, 2, grid.MeetingStats[0].Total)
	assert.EqualValues(t, 1, grid.MeetingStats[0].Present)
	assert.EqualValues(t, 1, grid.MeetingStats[0].Paid)

	// May Day is fixed, so it lands on the first regardless of year.
	names := make([]string, 0, len(grid.MonthHolidays))
	for _, h := range grid.MonthHolidays {
		names = append(names, h.Name)
	}
	assert.Contains(t, names, "May Day")

	var tenth *models.CalendarDay
	for _, week := range grid.Weeks {
		for _, day := range week {
			if day != nil && day.Day == 10 {
				tenth = day
			}
		}
	}
	require.NotNil(t, tenth)
	assert.Equal(t, "2025-05-10", tenth.Date)
	require.Len(t, tenth.Meetings, 1)
	assert.Equal(t, meeting.MeetingID, tenth.Meetings[0].MeetingID)
	require.NotEmpty(t, tenth.Holidays)
	assert.Equal(t, "Vesak Full Moon Poya Day", tenth.Holidays[0].Name)
}

func TestMonthGrid_WeekShape(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewCalendarService(db)

	// May 2025 starts on a Thursday and ends on a Saturday.
	grid, err := svc.MonthGrid(strPtr("2025"), strPtr("5"))
	require.NoError(t, err)

	require.Len(t, grid.Weeks, 5)
	for _, week := range grid.Weeks {
		assert.Len(t, week, 7)
	}
	for i := 0; i < 3; i++ {
		assert.Nil(t, grid.Weeks[0][i])
	}
	require.NotNil(t, grid.Weeks[0][3])
	assert.Equal(t, 1, grid.Weeks[0][3].Day)
	require.NotNil(t, grid.Weeks[4][5])
	assert.Equal(t, 31, grid.Weeks[4][5].Day)
	assert.Nil(t, grid.Weeks[4][6])
}

func TestMonthGrid_YearBoundaryNavigation(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewCalendarService(db)

	jan, err := svc.MonthGrid(strPtr("2025"), strPtr("1"))
	require.NoError(t, err)
	assert.Equal(t, 2024, jan.PrevYear)
	assert.Equal(t, 12, jan.PrevMonth)
	assert.Equal(t, 2025, jan.NextYear)
	assert.Equal(t, 2, jan.NextMonth)

	dec, err := svc.MonthGrid(strPtr("2025"), strPtr("12"))
	require.NoError(t, err)
	assert.Equal(t, 11, dec.PrevMonth)
	assert.Equal(t, 2026, dec.NextYear)
	assert.Equal(t, 1, dec.NextMonth)
}

func TestMonthGrid_DefaultsToCurrentMonth(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewCalendarService(db)

	grid, err := svc.MonthGrid(nil, nil)
	require.NoError(t, err)

	now := time.Now().UTC()
	assert.Equal(t, now.Year(), grid.Year)
	assert.Equal(t, int(now.Month()), grid.Month)

	var today *models.CalendarDay
	for _, week := range grid.Weeks {
		for _, day := range week {
			if day != nil && day.IsToday {
				today = day
			}
		}
	}
	require.NotNil(t, today)
	assert.Equal(t, now.Day(), today.Day)
}

func TestMonthGrid_RejectsBadParameters(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	svc := NewCalendarService(db)

	_, err := svc.MonthGrid(strPtr("soon"), strPtr("13"))
	require.Error(t, err)

	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrorTypeValidation, apiErr.Type)
	assert.Contains(t, apiErr.Fields, "year")
	assert.Contains(t, apiErr.Fields, "month")
}

func TestPublicHolidays_SortedWithPoyaSundays(t *testing.T) {
	holidays := publicHolidays(2025)
	require.NotEmpty(t, holidays)

	for i := 1; i < len(holidays); i++ {
		assert.False(t, holidays[i].date.Before(holidays[i-1].date), "holidays are sorted by date")
	}

	poyaCount := 0
	for _, h := range holidays {
		if h.kind != models.HolidayReligious {
			continue
		}
		if h.date.Day() >= 12 && h.date.Day() <= 18 {
			assert.Equal(t, time.Sunday, h.date.Weekday(), "%s must sit on a Sunday", h.name)
			poyaCount++
		}
	}
	assert.Equal(t, 12, poyaCount)
}

func TestUpcomingHolidays_CrossesYearBoundary(t *testing.T) {
	upcoming := upcomingHolidays(5, time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC))
	require.Len(t, upcoming, 5)

	assert.Equal(t, "2025-12-25", upcoming[0].Date)
	assert.Equal(t, "Christmas Day", upcoming[0].Name)
	assert.Equal(t, "2026-01-01", upcoming[1].Date)

	for i := 1; i < len(upcoming); i++ {
		assert.GreaterOrEqual(t, upcoming[i].Date, upcoming[i-1].Date)
	}
}
