package auth

import "github.com/google/uuid"

// Role identifies the kind of user performing an operation.
type Role string

const (
	RolePatient       Role = "patient"
	RoleDoctor        Role = "doctor"
	RoleReceptionist  Role = "receptionist"
	RoleBranchManager Role = "branch_manager"
	RoleAdmin         Role = "admin"
)

// Action is a lifecycle operation subject to authorization.
type Action string

const (
	ActionBookDirect     Action = "book_direct"     // create straight into approved
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
	ActionOverrideStatus Action = "override_status" // administrative status set
	ActionRunReminders   Action = "run_reminders"
	ActionIssueInvoice   Action = "issue_invoice"
)

// capabilities maps each action to the roles allowed to perform it.
// A single table checked once per operation, rather than per-route
// allow-lists scattered across handlers.
var capabilities = map[Action][]Role{
	ActionBookDirect:     {RoleReceptionist, RoleBranchManager, RoleAdmin},
	ActionApprove:        {RoleReceptionist, RoleBranchManager, RoleAdmin},
	ActionReject:         {RoleReceptionist, RoleBranchManager, RoleAdmin},
	ActionOverrideStatus: {RoleDoctor, RoleReceptionist, RoleBranchManager, RoleAdmin},
	ActionRunReminders:   {RoleBranchManager, RoleAdmin},
	ActionIssueInvoice:   {RoleReceptionist, RoleBranchManager, RoleAdmin},
}

// Can reports whether the role is allowed to perform the action.
func Can(role Role, action Action) bool {
	for _, r := range capabilities[action] {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to clinic personnel.
func IsStaff(role Role) bool {
	switch role {
	case RoleDoctor, RoleReceptionist, RoleBranchManager, RoleAdmin:
		return true
	}
	return false
}

// Valid reports whether the role is one the system knows.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleReceptionist, RoleBranchManager, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller, as resolved by the request layer.
type Actor struct {
	ID   uuid.UUID
	Role Role
}
