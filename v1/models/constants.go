package models

// AuditStatus represents the status of audit events
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// ResourceType represents different resource types for auditing
type ResourceType string

const (
	ResourceTypeMembers    ResourceType = "MEMBERS"
	ResourceTypeMeetings   ResourceType = "MEETINGS"
	ResourceTypeAttendance ResourceType = "ATTENDANCE"
	ResourceTypePayments   ResourceType = "PAYMENTS"
	ResourceTypeStaff      ResourceType = "STAFF"
	ResourceTypeBadges     ResourceType = "BADGES"
)

// Field length constraints remain as regular constants
const (
	MaxMemberIDLength = 10
	MaxNameLength     = 50
	MaxAddressLength  = 255
	MaxPhoneLength    = 15 // E.164 format
	MaxNotesLength    = 1000
)

// Pagination defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
