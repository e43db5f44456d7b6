package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	tests := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RolePatient, ActionBookDirect, false},
		{RolePatient, ActionApprove, false},
		{RoleDoctor, ActionApprove, false},
		{RoleDoctor, ActionOverrideStatus, true},
		{RoleReceptionist, ActionBookDirect, true},
		{RoleReceptionist, ActionApprove, true},
		{RoleBranchManager, ActionReject, true},
		{RoleAdmin, ActionRunReminders, true},
		{RoleReceptionist, ActionRunReminders, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.role, tt.action))
		})
	}
}

func TestIsStaff(t *testing.T) {
	assert.False(t, IsStaff(RolePatient))
	assert.True(t, IsStaff(RoleDoctor))
	assert.True(t, IsStaff(RoleReceptionist))
	assert.True(t, IsStaff(RoleBranchManager))
	assert.True(t, IsStaff(RoleAdmin))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, Role("patient").Valid())
	assert.False(t, Role("janitor").Valid())
}
