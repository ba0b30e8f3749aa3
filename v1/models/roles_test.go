package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemberRole(t *testing.T) {
	role, err := ParseMemberRole("PRESIDENT")
	require.NoError(t, err)
	assert.Equal(t, RolePresident, role)

	role, err = ParseMemberRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleNone, role)

	_, err = ParseMemberRole("president")
	assert.Error(t, err)

	_, err = ParseMemberRole("CHAIRPERSON")
	assert.Error(t, err)
}

func TestRoleExclusivity(t *testing.T) {
	for _, role := range []MemberRole{
		RolePresident, RoleSecretary, RoleTreasury,
		RoleVicePresident, RoleViceSecretary, RoleViceTreasury,
	} {
		assert.True(t, role.IsExclusive(), "role %s should be exclusive", role)
	}
	assert.False(t, RoleCommittee.IsExclusive())
	assert.False(t, RoleNone.IsExclusive())
}

func TestRoleBonus(t *testing.T) {
	assert.Equal(t, 10.0, RolePresident.Bonus())
	assert.Equal(t, 10.0, RoleTreasury.Bonus())
	assert.Equal(t, 8.0, RoleVicePresident.Bonus())
	assert.Equal(t, 5.0, RoleCommittee.Bonus())
	assert.Equal(t, 0.0, RoleNone.Bonus())
}

func TestRoleDisplay(t *testing.T) {
	assert.Equal(t, "Vice President", RoleVicePresident.Display())
	assert.Equal(t, "Committee Member", RoleCommittee.Display())
	assert.Equal(t, "No Role", RoleNone.Display())
}

func TestRoleLeadership(t *testing.T) {
	assert.True(t, RolePresident.IsLeadership())
	assert.True(t, RoleViceTreasury.IsLeadership())
	assert.False(t, RoleCommittee.IsLeadership())
	assert.False(t, RoleNone.IsLeadership())
}
