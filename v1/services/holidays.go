package services

import (
	"sort"
	"time"

	"github.com/clubworks/mms-backend/shared/utils"
	"github.com/clubworks/mms-backend/v1/models"
)

type holiday struct {
	date time.Time
	name string
	kind models.HolidayType
}

func (h holiday) toResponse() models.Holiday {
	return models.Holiday{Date: utils.FormatDate(h.date), Name: h.name, Type: h.kind}
}

var poyaMonths = []struct {
	month time.Month
	name  string
}{
	{time.January, "Duruthu"},
	{time.February, "Navam"},
	{time.March, "Medin"},
	{time.April, "Bak"},
	{time.May, "Vesak"},
	{time.June, "Poson"},
	{time.July, "Esala"},
	{time.August, "Nikini"},
	{time.September, "Binara"},
	{time.October, "Vap"},
	{time.November, "Il"},
	{time.December, "Unduvap"},
}

// publicHolidays lists the Sri Lankan public holidays for a year, sorted by
// date. Lunar-calendar holidays use the customary approximations, so the
// movable dates are indicative rather than gazetted.
func publicHolidays(year int) []holiday {
	mk := func(month time.Month, day int, name string, kind models.HolidayType) holiday {
		return holiday{
			date: time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
			name: name,
			kind: kind,
		}
	}

	holidays := []holiday{
		mk(time.January, 1, "New Year's Day", models.HolidayFixed),
		mk(time.February, 4, "Independence Day", models.HolidayFixed),
		mk(time.May, 1, "May Day", models.HolidayFixed),
		mk(time.June, 30, "Ramazan Festival Day", models.HolidayFixed),
		mk(time.December, 25, "Christmas Day", models.HolidayFixed),
		mk(time.April, 13, "Sinhala and Tamil New Year", models.HolidayCultural),
		mk(time.April, 14, "Sinhala and Tamil New Year", models.HolidayCultural),
		mk(time.May, 10, "Vesak Full Moon Poya Day", models.HolidayReligious),
		mk(time.June, 10, "Poson Full Moon Poya Day", models.HolidayReligious),
		mk(time.September, 27, "Milad-Un-Nabi (Prophet Muhammad's Birthday)", models.HolidayReligious),
		mk(time.October, 27, "Deepavali Festival Day", models.HolidayReligious),
	}

	// One full moon poya day per month, approximated as the Sunday nearest
	// the 15th.
	for _, p := range poyaMonths {
		d := time.Date(year, p.month, 15, 0, 0, 0, 0, time.UTC)
		if d.Weekday() != time.Sunday {
			delta := (7 - int(d.Weekday())) % 7
			if delta > 3 {
				delta -= 7
			}
			d = d.AddDate(0, 0, delta)
		}
		holidays = append(holidays, holiday{
			date: d,
			name: p.name + " Full Moon Poya Day",
			kind: models.HolidayReligious,
		})
	}

	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].date.Before(holidays[j].date)
	})
	return holidays
}

// upcomingHolidays returns the next count holidays on or after start. It
// looks across the current and following year so a December start still
// fills the list.
func upcomingHolidays(count int, start time.Time) []models.Holiday {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	upcoming := make([]models.Holiday, 0, count)
	for _, year := range []int{day.Year(), day.Year() + 1} {
		for _, h := range publicHolidays(year) {
			if h.date.Before(day) {
				continue
			}
			upcoming = append(upcoming, h.toResponse())
			if len(upcoming) == count {
				return upcoming
			}
		}
	}
	return upcoming
}
