// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// ListProjects returns the projects the current user belongs to, each
// with the user's role in it.
func (client *Client) ListProjects(ctx context.Context) ([]schema.Project, error) {
	var projects []schema.Project
	if err := client.do(ctx, call{
		op:     "list projects",
		method: http.MethodGet,
		path:   "/projects/",
		out:    &projects,
	}); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project; the creator becomes its ADMIN.
func (client *Client) CreateProject(ctx context.Context, draft schema.ProjectDraft) (schema.ProjectDetail, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Name == "" {
		return schema.ProjectDetail{}, &ValidationError{Detail: "project name is required", Fields: map[string]string{"name": "required"}}
	}
	draft.Description = nonEmpty(draft.Description)
	var project schema.ProjectDetail
	if err := client.do(ctx, call{
		op:     "create project",
		method: http.MethodPost,
		path:   "/projects/",
		body:   draft,
		out:    &project,
	}); err != nil {
		return schema.ProjectDetail{}, err
	}
	return project, nil
}

// GetProject fetches one project. Non-members get a ForbiddenError.
func (client *Client) GetProject(ctx context.Context, projectID int64) (schema.ProjectDetail, error) {
	var project schema.ProjectDetail
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("get project %d", projectID),
		method: http.MethodGet,
		path:   fmt.Sprintf("/projects/%d", projectID),
		out:    &project,
	}); err != nil {
		return schema.ProjectDetail{}, err
	}
	return project, nil
}

// UpdateProject changes a project's name or description (ADMIN only).
func (client *Client) UpdateProject(ctx context.Context, projectID int64, update schema.ProjectUpdate) (schema.ProjectDetail, error) {
	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if trimmed == "" {
			return schema.ProjectDetail{}, &ValidationError{Detail: "project name cannot be empty", Fields: map[string]string{"name": "required"}}
		}
		update.Name = &trimmed
	}
	var project schema.ProjectDetail
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("update project %d", projectID),
		method: http.MethodPut,
		path:   fmt.Sprintf("/projects/%d", projectID),
		body:   update,
		out:    &project,
	}); err != nil {
		return schema.ProjectDetail{}, err
	}
	return project, nil
}

// DeleteProject deletes a project and everything in it (ADMIN only).
// Callers are responsible for confirming with the user first.
func (client *Client) DeleteProject(ctx context.Context, projectID int64) error {
	return client.do(ctx, call{
		op:     fmt.Sprintf("delete project %d", projectID),
		method: http.MethodDelete,
		path:   fmt.Sprintf("/projects/%d", projectID),
	})
}

// ListMembers returns the members of a project with their roles.
func (client *Client) ListMembers(ctx context.Context, projectID int64) ([]schema.ProjectMember, error) {
	var members []schema.ProjectMember
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("list members of project %d", projectID),
		method: http.MethodGet,
		path:   fmt.Sprintf("/projects/%d/member", projectID),
		out:    &members,
	}); err != nil {
		return nil, err
	}
	return members, nil
}

// AddMember adds an existing user to a project by email (ADMIN only).
func (client *Client) AddMember(ctx context.Context, projectID int64, invite schema.MemberInvite) (schema.MembershipRecord, error) {
	invite.Email = strings.TrimSpace(invite.Email)
	if invite.Email == "" {
		return schema.MembershipRecord{}, &ValidationError{Detail: "member email is required", Fields: map[string]string{"email": "required"}}
	}
	if !invite.Role.IsKnown() {
		return schema.MembershipRecord{}, &ValidationError{Detail: fmt.Sprintf("unknown role %q", invite.Role), Fields: map[string]string{"role": "must be ADMIN, DEV, or VIEWER"}}
	}
	var record schema.MembershipRecord
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("add member to project %d", projectID),
		method: http.MethodPost,
		path:   fmt.Sprintf("/projects/%d/member", projectID),
		body:   invite,
		out:    &record,
	}); err != nil {
		return schema.MembershipRecord{}, err
	}
	return record, nil
}

// nonEmpty maps a blank optional string to nil so it is sent as null.
func nonEmpty(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
