package models

// AttendanceRecord is the fact of one member's presence and fee-payment
// status for one meeting. The (member, meeting) pair is unique; a concurrent
// duplicate write fails on the constraint and is translated by the service
// into a user-facing conflict.
//
// Presence and fee payment are independent: a member may pay the fee for a
// meeting they did not attend.
type AttendanceRecord struct {
	AttendanceID uint   `gorm:"primarykey;column:attendance_id;autoIncrement" json:"attendanceId"`
	MemberID     string `gorm:"column:member_id;not null;uniqueIndex:idx_member_meeting" json:"memberId"`
	MeetingID    uint   `gorm:"column:meeting_id;not null;uniqueIndex:idx_member_meeting" json:"meetingId"`
	Present      bool   `gorm:"column:present;not null;default:false" json:"present"`
	FeePaid      bool   `gorm:"column:fee_paid;not null;default:false" json:"feePaid"`

	Member  *Member  `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
	Meeting *Meeting `gorm:"foreignKey:MeetingID;references:MeetingID" json:"meeting,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}
