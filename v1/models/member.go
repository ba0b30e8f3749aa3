package models

import "time"

// Member represents a club member. The member ID is assigned externally
// (club registration number), not generated.
type Member struct {
	MemberID     string     `gorm:"primarykey;column:member_id" json:"memberId"`
	Initials     string     `gorm:"column:initials;not null" json:"initials"`
	FirstName    string     `gorm:"column:first_name;not null" json:"firstName"`
	LastName     string     `gorm:"column:last_name;not null" json:"lastName"`
	Address      string     `gorm:"column:address" json:"address"`
	DateOfBirth  *time.Time `gorm:"column:date_of_birth" json:"dateOfBirth,omitempty"`
	Phone        string     `gorm:"column:phone" json:"phone"`
	AccountNo    string     `gorm:"column:account_no" json:"accountNo"`
	GuardianName string     `gorm:"column:guardian_name" json:"guardianName"`
	Role         MemberRole `gorm:"column:role" json:"role"`
	IsActive     bool       `gorm:"column:is_active;default:true" json:"isActive"`
	JoinedAt     time.Time  `gorm:"column:joined_at" json:"joinedAt"`
	BaseModel
}

// TableName sets the table name for GORM
func (Member) TableName() string {
	return "members"
}

// FullName returns the member's display name.
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}
