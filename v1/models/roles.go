package models

import "fmt"

// MemberRole is the closed set of club roles a member may hold.
// The zero value means the member holds no role.
type MemberRole string

const (
	RoleNone          MemberRole = ""
	RolePresident     MemberRole = "PRESIDENT"
	RoleSecretary     MemberRole = "SECRETARY"
	RoleTreasury      MemberRole = "TREASURY"
	RoleVicePresident MemberRole = "VICE_PRESIDENT"
	RoleViceSecretary MemberRole = "VICE_SECRETARY"
	RoleViceTreasury  MemberRole = "VICE_TREASURY"
	RoleCommittee     MemberRole = "COMMITTEE_MEMBER"
)

// AllRoles lists every assignable role, in display order.
var AllRoles = []MemberRole{
	RolePresident, RoleSecretary, RoleTreasury,
	RoleVicePresident, RoleViceSecretary, RoleViceTreasury,
	RoleCommittee,
}

// ParseMemberRole validates a role string coming from a request.
// The empty string is valid and means "no role".
func ParseMemberRole(s string) (MemberRole, error) {
	if s == "" {
		return RoleNone, nil
	}
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return RoleNone, fmt.Errorf("unknown member role %q", s)
}

// IsMain reports whether the role is a main office (president, secretary, treasury).
func (r MemberRole) IsMain() bool {
	switch r {
	case RolePresident, RoleSecretary, RoleTreasury:
		return true
	}
	return false
}

// IsVice reports whether the role is a vice office.
func (r MemberRole) IsVice() bool {
	switch r {
	case RoleVicePresident, RoleViceSecretary, RoleViceTreasury:
		return true
	}
	return false
}

// IsCommittee reports whether the role is the committee role.
func (r MemberRole) IsCommittee() bool {
	return r == RoleCommittee
}

// IsExclusive reports whether at most one active member may hold this role.
// Committee membership is explicitly non-exclusive.
func (r MemberRole) IsExclusive() bool {
	return r.IsMain() || r.IsVice()
}

// IsLeadership reports whether the role counts as a leadership position
// for badge purposes.
func (r MemberRole) IsLeadership() bool {
	return r.IsMain() || r.IsVice()
}

// Bonus returns the engagement-score leadership component for this role.
func (r MemberRole) Bonus() float64 {
	switch {
	case r.IsMain():
		return 10
	case r.IsVice():
		return 8
	case r.IsCommittee():
		return 5
	default:
		return 0
	}
}

// Display returns a human-readable name for the role.
func (r MemberRole) Display() string {
	switch r {
	case RolePresident:
		return "President"
	case RoleSecretary:
		return "Secretary"
	case RoleTreasury:
		return "Treasury"
	case RoleVicePresident:
		return "Vice President"
	case RoleViceSecretary:
		return "Vice Secretary"
	case RoleViceTreasury:
		return "Vice Treasury"
	case RoleCommittee:
		return "Committee Member"
	default:
		return "No Role"
	}
}
