package models

import "time"

// PaymentMethod represents how a payment was made.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodBank   PaymentMethod = "BANK"
	PaymentMethodOnline PaymentMethod = "ONLINE"
	PaymentMethodOther  PaymentMethod = "OTHER"
)

// ValidPaymentMethod reports whether s is a known payment method.
func ValidPaymentMethod(s string) bool {
	switch PaymentMethod(s) {
	case PaymentMethodCash, PaymentMethodBank, PaymentMethodOnline, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is a standalone fee payment, optionally tied to a meeting.
type Payment struct {
	PaymentID     string        `gorm:"primarykey;column:payment_id" json:"paymentId"`
	MemberID      string        `gorm:"column:member_id;not null;index" json:"memberId"`
	MeetingID     *uint         `gorm:"column:meeting_id" json:"meetingId,omitempty"`
	Amount        float64       `gorm:"column:amount;not null" json:"amount"`
	Method        PaymentMethod `gorm:"column:method;not null;default:CASH" json:"method"`
	ReceiptNumber string        `gorm:"column:receipt_number" json:"receiptNumber"`
	Notes         string        `gorm:"column:notes" json:"notes"`
	RecordedBy    string        `gorm:"column:recorded_by" json:"recordedBy"`
	PaidAt        time.Time     `gorm:"column:paid_at" json:"paidAt"`

	Member  *Member  `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
	Meeting *Meeting `gorm:"foreignKey:MeetingID;references:MeetingID" json:"meeting,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (Payment) TableName() string {
	return "payments"
}
