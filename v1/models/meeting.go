package models

import "time"

// Meeting represents one scheduled club meeting. Dates are unique; "latest N"
// queries order by meeting_date descending.
type Meeting struct {
	MeetingID   uint      `gorm:"primarykey;column:meeting_id;autoIncrement" json:"meetingId"`
	MeetingDate time.Time `gorm:"column:meeting_date;not null;unique" json:"meetingDate"`
	Fee         float64   `gorm:"column:fee;not null;default:0" json:"fee"`
	BaseModel
}

// TableName sets the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}
