// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// Role is a member's permission level within one project. Roles form
// a capability lattice: ADMIN includes everything DEV can do, and DEV
// includes everything VIEWER can do.
type Role string

const (
	// RoleAdmin can manage membership and delete the project in
	// addition to everything a developer can do.
	RoleAdmin Role = "ADMIN"
	// RoleDev can create and modify tickets.
	RoleDev Role = "DEV"
	// RoleViewer has read-only access.
	RoleViewer Role = "VIEWER"
)

// Roles lists every role from most to least privileged.
var Roles = []Role{RoleAdmin, RoleDev, RoleViewer}

// IsKnown reports whether the role is one of the three defined roles.
func (role Role) IsKnown() bool {
	switch role {
	case RoleAdmin, RoleDev, RoleViewer:
		return true
	}
	return false
}

// Project is one entry of GET /projects/: a project annotated with the
// calling user's role in it. The role is a per-user property and must
// be re-fetched whenever the acting user changes.
//
// The list endpoint names the identifier "project_id"; the single
// project endpoint names it "id" and decodes into [ProjectDetail].
type Project struct {
	ID          int64  `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Role        Role   `json:"role,omitempty"`
}

// ProjectDetail is the body of GET /projects/{id}, PUT /projects/{id},
// and POST /projects/.
type ProjectDetail struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     int64  `json:"owner_id,omitempty"`
}

// ProjectDraft is the body of POST /projects/.
type ProjectDraft struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// ProjectUpdate is the body of PUT /projects/{id}. Nil fields are left
// unchanged by the server.
type ProjectUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ProjectMember links a user to a project with a role, as returned by
// GET /projects/{id}/member.
type ProjectMember struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role"`
}

// MemberInvite is the body of POST /projects/{id}/member.
type MemberInvite struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// MembershipRecord is the body returned by POST /projects/{id}/member.
type MembershipRecord struct {
	UserID    int64 `json:"user_id"`
	ProjectID int64 `json:"project_id"`
	Role      Role  `json:"role"`
}
