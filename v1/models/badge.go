package models

import "time"

// BadgeType identifies one achievement badge.
type BadgeType string

const (
	BadgePerfectAttendance  BadgeType = "PERFECT_ATTENDANCE"
	BadgeAttendanceStreak5  BadgeType = "ATTENDANCE_STREAK_5"
	BadgeAttendanceStreak10 BadgeType = "ATTENDANCE_STREAK_10"
	BadgeAlwaysPaid         BadgeType = "ALWAYS_PAID"
	BadgePaymentChampion    BadgeType = "PAYMENT_CHAMPION"
	BadgeFoundingMember     BadgeType = "FOUNDING_MEMBER"
	BadgeVeteranMember      BadgeType = "VETERAN_MEMBER"
	BadgeActiveMember       BadgeType = "ACTIVE_MEMBER"
	BadgeLeader             BadgeType = "LEADER"
	BadgeCommittee          BadgeType = "COMMITTEE"
)

// BadgeCategory groups badge types for summary views.
type BadgeCategory string

const (
	BadgeCategoryAttendance BadgeCategory = "attendance"
	BadgeCategoryPayment    BadgeCategory = "payment"
	BadgeCategoryMembership BadgeCategory = "membership"
	BadgeCategoryLeadership BadgeCategory = "leadership"
)

// Category returns the summary grouping for a badge type.
func (t BadgeType) Category() BadgeCategory {
	switch t {
	case BadgePerfectAttendance, BadgeAttendanceStreak5, BadgeAttendanceStreak10:
		return BadgeCategoryAttendance
	case BadgeAlwaysPaid, BadgePaymentChampion:
		return BadgeCategoryPayment
	case BadgeLeader, BadgeCommittee:
		return BadgeCategoryLeadership
	default:
		return BadgeCategoryMembership
	}
}

// Badge is a permanent achievement marker. Awarded once per (member, type),
// never revoked. Description is a snapshot computed at award time.
type Badge struct {
	BadgeID     string    `gorm:"primarykey;column:badge_id" json:"badgeId"`
	MemberID    string    `gorm:"column:member_id;not null;uniqueIndex:idx_member_badge" json:"memberId"`
	BadgeType   BadgeType `gorm:"column:badge_type;not null;uniqueIndex:idx_member_badge" json:"badgeType"`
	Description string    `gorm:"column:description;not null" json:"description"`
	EarnedAt    time.Time `gorm:"column:earned_at" json:"earnedAt"`

	Member *Member `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (Badge) TableName() string {
	return "badges"
}
