package models

// HolidayType classifies a public holiday entry.
type HolidayType string

const (
	HolidayFixed     HolidayType = "fixed"
	HolidayCultural  HolidayType = "cultural"
	HolidayReligious HolidayType = "religious"
)

// Holiday is one public holiday on the club calendar.
type Holiday struct {
	Date string      `json:"date"` // YYYY-MM-DD
	Name string      `json:"name"`
	Type HolidayType `json:"type"`
}

// CalendarDay is one dated cell of the month grid. Padding cells outside the
// month are nil in the week rows.
type CalendarDay struct {
	Date     string            `json:"date"`
	Day      int               `json:"day"`
	IsToday  bool              `json:"isToday"`
	Meetings []MeetingResponse `json:"meetings"`
	Holidays []Holiday         `json:"holidays"`
}

// CalendarMeetingStats carries the attendance tallies for one meeting shown
// on the calendar.
type CalendarMeetingStats struct {
	MeetingID uint  `json:"meetingId"`
	Total     int64 `json:"total"`
	Present   int64 `json:"present"`
	Paid      int64 `json:"paid"`
}

// CalendarResponse is the month view of meetings and public holidays, with
// pointers to the neighbouring months for navigation.
type CalendarResponse struct {
	Year             int                    `json:"year"`
	Month            int                    `json:"month"`
	MonthName        string                 `json:"monthName"`
	Weeks            [][]*CalendarDay       `json:"weeks"`
	Meetings         []MeetingResponse      `json:"meetings"`
	MeetingStats     []CalendarMeetingStats `json:"meetingStats"`
	MonthHolidays    []Holiday              `json:"monthHolidays"`
	UpcomingHolidays []Holiday              `json:"upcomingHolidays"`
	PrevYear         int                    `json:"prevYear"`
	PrevMonth        int                    `json:"prevMonth"`
	NextYear         int                    `json:"nextYear"`
	NextMonth        int                    `json:"nextMonth"`
}
