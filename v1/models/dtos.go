package models

// CreateMemberRequest is the payload for registering a member.
type CreateMemberRequest struct {
	MemberID     string  `json:"memberId"`
	Initials     string  `json:"initials"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Address      string  `json:"address"`
	DateOfBirth  *string `json:"dateOfBirth,omitempty"` // YYYY-MM-DD
	Phone        string  `json:"phone"`
	AccountNo    string  `json:"accountNo"`
	GuardianName string  `json:"guardianName"`
	Role         string  `json:"role"`
	JoinedAt     *string `json:"joinedAt,omitempty"` // YYYY-MM-DD, defaults to today
}

// UpdateMemberRequest is the payload for editing a member. Nil fields are
// left unchanged.
type UpdateMemberRequest struct {
	Initials     *string `json:"initials,omitempty"`
	FirstName    *string `json:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	Address      *string `json:"address,omitempty"`
	DateOfBirth  *string `json:"dateOfBirth,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	AccountNo    *string `json:"accountNo,omitempty"`
	GuardianName *string `json:"guardianName,omitempty"`
	Role         *string `json:"role,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// MemberResponse is the API representation of a member.
type MemberResponse struct {
	MemberID     string  `json:"memberId"`
	Initials     string  `json:"initials"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Address      string  `json:"address"`
	DateOfBirth  *string `json:"dateOfBirth,omitempty"`
	Phone        string  `json:"phone"`
	AccountNo    string  `json:"accountNo"`
	GuardianName string  `json:"guardianName"`
	Role         string  `json:"role"`
	RoleDisplay  string  `json:"roleDisplay"`
	IsActive     bool    `json:"isActive"`
	JoinedAt     string  `json:"joinedAt"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// MemberFilter narrows member list queries.
type MemberFilter struct {
	Query      string
	IsActive   *bool
	Role       MemberRole
	JoinedFrom *string
	JoinedTo   *string
	Page       int
	PageSize   int
}

// MemberListResponse is a paginated member listing.
type MemberListResponse struct {
	Members    []MemberResponse `json:"members"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalCount int64            `json:"totalCount"`
	TotalPages int              `json:"totalPages"`
}

// CreateMeetingRequest is the payload for scheduling a meeting.
type CreateMeetingRequest struct {
	MeetingDate string  `json:"meetingDate"` // YYYY-MM-DD
	Fee         float64 `json:"fee"`
}

// UpdateMeetingRequest is the payload for editing a meeting.
type UpdateMeetingRequest struct {
	MeetingDate *string  `json:"meetingDate,omitempty"`
	Fee         *float64 `json:"fee,omitempty"`
}

// MeetingResponse is the API representation of a meeting.
type MeetingResponse struct {
	MeetingID   uint    `json:"meetingId"`
	MeetingDate string  `json:"meetingDate"`
	Fee         float64 `json:"fee"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// MarkAttendanceRequest records presence and fee payment for one member at
// one meeting. Present and FeePaid are independent flags.
type MarkAttendanceRequest struct {
	MemberID  string `json:"memberId"`
	MeetingID uint   `json:"meetingId"`
	Present   bool   `json:"present"`
	FeePaid   bool   `json:"feePaid"`
}

// UpdateAttendanceRequest edits an existing attendance record.
type UpdateAttendanceRequest struct {
	Present *bool `json:"present,omitempty"`
	FeePaid *bool `json:"feePaid,omitempty"`
}

// AttendanceResponse is the API representation of an attendance record.
type AttendanceResponse struct {
	AttendanceID uint   `json:"attendanceId"`
	MemberID     string `json:"memberId"`
	MemberName   string `json:"memberName,omitempty"`
	MeetingID    uint   `json:"meetingId"`
	MeetingDate  string `json:"meetingDate,omitempty"`
	Present      bool   `json:"present"`
	FeePaid      bool   `json:"feePaid"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// BulkAttendanceEntry is one row of a bulk attendance submission.
type BulkAttendanceEntry struct {
	MemberID string `json:"memberId"`
	Present  bool   `json:"present"`
	FeePaid  bool   `json:"feePaid"`
}

// BulkAttendanceRequest marks attendance for many members of one meeting.
type BulkAttendanceRequest struct {
	MeetingID uint                  `json:"meetingId"`
	Entries   []BulkAttendanceEntry `json:"entries"`
}

// BulkAttendanceResult reports the outcome of a bulk submission.
type BulkAttendanceResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// CreatePaymentRequest records a payment.
type CreatePaymentRequest struct {
	MemberID      string  `json:"memberId"`
	MeetingID     *uint   `json:"meetingId,omitempty"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	ReceiptNumber string  `json:"receiptNumber"`
	Notes         string  `json:"notes"`
}

// UpdatePaymentRequest edits a payment.
type UpdatePaymentRequest struct {
	MeetingID     *uint    `json:"meetingId,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Method        *string  `json:"method,omitempty"`
	ReceiptNumber *string  `json:"receiptNumber,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

// PaymentResponse is the API representation of a payment.
type PaymentResponse struct {
	PaymentID     string  `json:"paymentId"`
	MemberID      string  `json:"memberId"`
	MemberName    string  `json:"memberName,omitempty"`
	MeetingID     *uint   `json:"meetingId,omitempty"`
	MeetingDate   string  `json:"meetingDate,omitempty"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	ReceiptNumber string  `json:"receiptNumber"`
	Notes         string  `json:"notes"`
	RecordedBy    string  `json:"recordedBy"`
	PaidAt        string  `json:"paidAt"`
}

// PaymentFilter narrows payment list queries.
type PaymentFilter struct {
	MemberID string
	Method   string
	DateFrom *string
	DateTo   *string
	Page     int
	PageSize int
}

// PaymentListResponse is a paginated payment listing with totals.
type PaymentListResponse struct {
	Payments    []PaymentResponse `json:"payments"`
	TotalAmount float64           `json:"totalAmount"`
	TotalCount  int64             `json:"totalCount"`
	Page        int               `json:"page"`
	PageSize    int               `json:"pageSize"`
}

// LoginRequest is the staff sign-in payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued staff token.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt string        `json:"expiresAt"`
	Staff     StaffResponse `json:"staff"`
}

// CreateStaffRequest registers a staff account.
type CreateStaffRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"isSuperuser"`
}

// UpdateStaffRequest edits a staff account.
type UpdateStaffRequest struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	Email       *string `json:"email,omitempty"`
	IsSuperuser *bool   `json:"isSuperuser,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// ChangePasswordRequest changes the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// StaffResponse is the API representation of a staff account.
type StaffResponse struct {
	StaffID     string `json:"staffId"`
	Username    string `json:"username"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"isSuperuser"`
	IsActive    bool   `json:"isActive"`
	CreatedAt   string `json:"createdAt"`
}

// BadgeResponse is the API representation of an earned badge.
type BadgeResponse struct {
	BadgeID     string `json:"badgeId"`
	MemberID    string `json:"memberId"`
	BadgeType   string `json:"badgeType"`
	Category    string `json:"category"`
	Description string `json:"description"`
	EarnedAt    string `json:"earnedAt"`
}

// BadgeSummary groups a member's badges by category.
type BadgeSummary struct {
	MemberID   string                     `json:"memberId"`
	Total      int                        `json:"total"`
	Badges     []BadgeResponse            `json:"badges"`
	ByCategory map[string][]BadgeResponse `json:"byCategory"`
}
