package models

// SweepResult reports the outcome of an inactivity sweep.
type SweepResult struct {
	DeactivatedCount int      `json:"deactivatedCount"`
	DeactivatedIDs   []string `json:"deactivatedIds"`
	DryRun           bool     `json:"dryRun,omitempty"`
	Message          string   `json:"message"`
}

// ScoreBreakdown itemises an engagement score by component.
type ScoreBreakdown struct {
	Attendance float64 `json:"attendance"`
	Payment    float64 `json:"payment"`
	Recent     float64 `json:"recent"`
	Leadership float64 `json:"leadership"`
}

// EngagementScore is a member's composite engagement rating out of 100.
type EngagementScore struct {
	MemberID  string         `json:"memberId"`
	Score     float64        `json:"score"`
	Grade     string         `json:"grade"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// TopPerformer is one entry of the dashboard leaderboard.
type TopPerformer struct {
	MemberID string  `json:"memberId"`
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	Score    float64 `json:"score"`
	Grade    string  `json:"grade"`
}

// Recommendation is an actionable suggestion surfaced on the dashboard.
type Recommendation struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Action   string `json:"action"`
	Priority string `json:"priority"`
}

// DashboardResponse aggregates the headline figures for the admin dashboard.
type DashboardResponse struct {
	TotalMembers      int64            `json:"totalMembers"`
	ActiveMembers     int64            `json:"activeMembers"`
	InactiveMembers   int64            `json:"inactiveMembers"`
	TotalMeetings     int64            `json:"totalMeetings"`
	MeetingsThisMonth int64            `json:"meetingsThisMonth"`
	AttendanceRate    float64          `json:"attendanceRate"`
	TotalCollected    float64          `json:"totalCollected"`
	CollectedThisYear float64          `json:"collectedThisYear"`
	BadgesAwarded     int64            `json:"badgesAwarded"`
	TopPerformers     []TopPerformer   `json:"topPerformers"`
	Recommendations   []Recommendation `json:"recommendations"`
}

// QuickStats is the condensed report used by the reports landing view.
type QuickStats struct {
	ActiveMembers      int64   `json:"activeMembers"`
	MeetingsThisYear   int64   `json:"meetingsThisYear"`
	AvgAttendanceRate  float64 `json:"avgAttendanceRate"`
	FeesCollectedYear  float64 `json:"feesCollectedYear"`
	OutstandingPayers  int64   `json:"outstandingPayers"`
	NewMembersThisYear int64   `json:"newMembersThisYear"`
}

// HeatmapCell is one member/meeting intersection of the attendance heatmap.
type HeatmapCell struct {
	MemberID    string `json:"memberId"`
	MeetingID   uint   `json:"meetingId"`
	MeetingDate string `json:"meetingDate"`
	Present     bool   `json:"present"`
	FeePaid     bool   `json:"feePaid"`
}

// HeatmapMemberRow is a member's full row of the heatmap with totals.
type HeatmapMemberRow struct {
	MemberID     string        `json:"memberId"`
	Name         string        `json:"name"`
	Cells        []HeatmapCell `json:"cells"`
	PresentCount int           `json:"presentCount"`
	PaidCount    int           `json:"paidCount"`
	Rate         float64       `json:"rate"`
}

// HeatmapResponse is the attendance heatmap for a date range.
type HeatmapResponse struct {
	Meetings []MeetingResponse  `json:"meetings"`
	Rows     []HeatmapMemberRow `json:"rows"`
}

// MonthlyTotal is one month of a payment statistics series.
type MonthlyTotal struct {
	Month  string  `json:"month"` // YYYY-MM
	Amount float64 `json:"amount"`
	Count  int64   `json:"count"`
}

// MethodTotal is one payment method's share of collections.
type MethodTotal struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
	Count  int64   `json:"count"`
}

// MemberTotal ranks a member by total payments.
type MemberTotal struct {
	MemberID string  `json:"memberId"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Count    int64   `json:"count"`
}

// PaymentStatistics summarises collections for one calendar year.
type PaymentStatistics struct {
	Year        int            `json:"year"`
	TotalAmount float64        `json:"totalAmount"`
	TotalCount  int64          `json:"totalCount"`
	ByMethod    []MethodTotal  `json:"byMethod"`
	Monthly     []MonthlyTotal `json:"monthly"`
	TopMembers  []MemberTotal  `json:"topMembers"`
}
