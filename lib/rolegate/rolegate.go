// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rolegate decides which mutating actions the current user may
// attempt in a project, from their role and from ticket and comment
// ownership.
//
// Every function is pure: no requests, no errors, no panics. An
// unrecognized or empty role is treated as VIEWER. The gate only
// predicts; the server remains authoritative, and a 403 from it wins
// even when the gate allowed the action.
package rolegate

import (
	"fmt"
	"strings"

	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// ParseRole normalizes a role string. Anything unrecognized is VIEWER.
func ParseRole(value string) schema.Role {
	role := schema.Role(strings.ToUpper(strings.TrimSpace(value)))
	if role.IsKnown() {
		return role
	}
	return schema.RoleViewer
}

func normalize(role schema.Role) schema.Role {
	return ParseRole(string(role))
}

// CanManageMembers reports whether role may add project members.
func CanManageMembers(role schema.Role) bool {
	return normalize(role) == schema.RoleAdmin
}

// CanDeleteProject reports whether role may delete the project.
func CanDeleteProject(role schema.Role) bool {
	return normalize(role) == schema.RoleAdmin
}

// CanUpdateProject reports whether role may rename or re-describe the
// project.
func CanUpdateProject(role schema.Role) bool {
	return normalize(role) == schema.RoleAdmin
}

// CanCreateTicket reports whether role may create tickets.
func CanCreateTicket(role schema.Role) bool {
	switch normalize(role) {
	case schema.RoleAdmin, schema.RoleDev:
		return true
	}
	return false
}

// CanEditTicket reports whether role may change any ticket field.
func CanEditTicket(role schema.Role) bool {
	return CanCreateTicket(role)
}

// CanDeleteTicket reports whether role may delete tickets.
func CanDeleteTicket(role schema.Role) bool {
	return CanCreateTicket(role)
}

// CanCommentOn reports whether role may comment. Any member may; a
// caller with no membership has no role to pass.
func CanCommentOn(role schema.Role) bool {
	return role != ""
}

// EligibleAssignees returns the members a ticket may be assigned to:
// everyone except VIEWERs (and members whose role is unrecognized).
// The input order is preserved.
func EligibleAssignees(members []schema.ProjectMember) []schema.ProjectMember {
	eligible := make([]schema.ProjectMember, 0, len(members))
	for _, member := range members {
		if normalize(member.Role) == schema.RoleViewer {
			continue
		}
		eligible = append(eligible, member)
	}
	return eligible
}

// IsAssignee reports whether ticket is assigned to user. A zero user
// (not yet resolved) is never the assignee.
func IsAssignee(ticket schema.Ticket, user schema.User) bool {
	if user.ID == 0 && user.Email == "" {
		return false
	}
	if ticket.AssignedToEmail != nil && user.Email != "" {
		return strings.EqualFold(*ticket.AssignedToEmail, user.Email)
	}
	return ticket.AssignedToID != nil && user.ID != 0 && *ticket.AssignedToID == user.ID
}

// Policy selects who may move a ticket between status columns.
type Policy string

const (
	// PolicyAssigneeOnly lets only the ticket's assignee change its
	// status.
	PolicyAssigneeOnly Policy = "assignee-only"
	// PolicyRoleOrAssignee additionally lets any ADMIN or DEV change
	// the status of any ticket, matching what the server permits.
	PolicyRoleOrAssignee Policy = "role-or-assignee"
)

// DefaultPolicy is the status-change policy used when none is
// configured.
const DefaultPolicy = PolicyAssigneeOnly

// ParsePolicy validates a configured policy name. Empty is the
// default.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.TrimSpace(value)) {
	case "":
		return DefaultPolicy, nil
	case PolicyAssigneeOnly:
		return PolicyAssigneeOnly, nil
	case PolicyRoleOrAssignee:
		return PolicyRoleOrAssignee, nil
	}
	return "", fmt.Errorf("unknown status policy %q (want %q or %q)", value, PolicyAssigneeOnly, PolicyRoleOrAssignee)
}

// CanChangeStatus reports whether user may move ticket to another
// column under the default assignee-only policy.
func CanChangeStatus(ticket schema.Ticket, user schema.User) bool {
	return IsAssignee(ticket, user)
}

// CanChangeStatus reports whether user, holding role in the ticket's
// project, may move ticket to another column under this policy.
func (policy Policy) CanChangeStatus(ticket schema.Ticket, user schema.User, role schema.Role) bool {
	if IsAssignee(ticket, user) {
		return true
	}
	return policy == PolicyRoleOrAssignee && CanEditTicket(role)
}

// CanModifyComment reports whether user authored comment, and so may
// edit or delete it.
func CanModifyComment(comment schema.Comment, user schema.User) bool {
	return user.ID != 0 && comment.UserID == user.ID
}

// Action names a gated operation for ForbiddenMessage.
type Action string

const (
	ActionManageMembers Action = "manage members"
	ActionDeleteProject Action = "delete this project"
	ActionUpdateProject Action = "edit this project"
	ActionCreateTicket  Action = "create tickets"
	ActionEditTicket    Action = "edit this ticket"
	ActionDeleteTicket  Action = "delete tickets"
	ActionChangeStatus  Action = "change the status of this ticket"
	ActionModifyComment Action = "change this comment"
	ActionComment       Action = "comment"
)

// ForbiddenMessage explains why role cannot perform action, for
// display when the gate denies an action or the server answers 403.
func ForbiddenMessage(action Action, role schema.Role) string {
	role = normalize(role)
	switch action {
	case ActionManageMembers, ActionDeleteProject, ActionUpdateProject:
		return fmt.Sprintf("Only ADMIN can %s; your role is %s.", action, role)
	case ActionCreateTicket, ActionEditTicket, ActionDeleteTicket:
		return fmt.Sprintf("Only ADMIN or DEV can %s; your role is %s.", action, role)
	case ActionChangeStatus:
		return "You can only change the status of tickets assigned to you."
	case ActionModifyComment:
		return "You can only edit or delete your own comments."
	case ActionComment:
		return "You are not a member of this project."
	}
	return fmt.Sprintf("Your role (%s) does not permit this action.", role)
}

// Permissions bundles every gate answer for one project view.
type Permissions struct {
	Role          schema.Role
	ManageMembers bool
	DeleteProject bool
	UpdateProject bool
	CreateTicket  bool
	EditTicket    bool
	DeleteTicket  bool
	Comment       bool
}

// PermissionsFor computes the role-only answers for role. Ownership
// checks (status changes, comment edits) need a ticket or comment and
// stay per-item calls.
func PermissionsFor(role schema.Role) Permissions {
	return Permissions{
		Role:          normalize(role),
		ManageMembers: CanManageMembers(role),
		DeleteProject: CanDeleteProject(role),
		UpdateProject: CanUpdateProject(role),
		CreateTicket:  CanCreateTicket(role),
		EditTicket:    CanEditTicket(role),
		DeleteTicket:  CanDeleteTicket(role),
		Comment:       CanCommentOn(role),
	}
}
