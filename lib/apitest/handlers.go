// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apitest

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/devtrack-foundation/devtrack/lib/schema"
)

func (server *Server) routeTable() []route {
	return []route{
		newRoute(RouteRegister, true, server.register),
		newRoute(RouteLogin, true, server.login),
		newRoute(RouteMe, false, server.me),
		newRoute(RouteListProjects, false, server.listProjects),
		newRoute(RouteCreateProject, false, server.createProject),
		newRoute(RouteGetProject, false, server.getProject),
		newRoute(RouteUpdateProject, false, server.updateProject),
		newRoute(RouteDeleteProject, false, server.deleteProject),
		newRoute(RouteListMembers, false, server.listMembers),
		newRoute(RouteAddMember, false, server.addMember),
		newRoute(RouteListTickets, false, server.listTickets),
		newRoute(RouteCreateTicket, false, server.createTicket),
		newRoute(RouteGetTicket, false, server.getTicket),
		newRoute(RouteUpdateTicket, false, server.updateTicket),
		newRoute(RouteDeleteTicket, false, server.deleteTicket),
		newRoute(RouteListComments, false, server.listComments),
		newRoute(RouteCreateComment, false, server.createComment),
		newRoute(RouteCommentCount, true, server.commentCount),
		newRoute(RouteGetComment, false, server.getComment),
		newRoute(RouteUpdateComment, false, server.editComment),
		newRoute(RoutePatchComment, false, server.editComment),
		newRoute(RouteDeleteComment, false, server.deleteComment),
		newRoute(RouteDashboardStats, false, server.dashboardStats),
		newRoute(RouteRecentActivity, false, server.recentActivity),
	}
}

// --- Auth ---

func (server *Server) register(request *request) (int, any) {
	var body schema.Registration
	if err := request.decode(&body); err != nil {
		return invalidField("email", "invalid JSON body")
	}
	if body.Email == "" {
		return invalidField("email", "Field required")
	}
	if body.Password == "" {
		return invalidField("password", "Field required")
	}
	for _, existing := range server.users {
		if strings.EqualFold(existing.Email, body.Email) {
			return fail(http.StatusBadRequest, "Email already registered")
		}
	}
	server.addUserLocked(body.Name, body.Email, body.Password)
	return http.StatusOK, schema.MessageResponse{Message: "User registered successfully"}
}

func (server *Server) login(request *request) (int, any) {
	var body schema.Credentials
	if err := request.decode(&body); err != nil {
		return invalidField("email", "invalid JSON body")
	}
	for _, candidate := range server.users {
		if strings.EqualFold(candidate.Email, body.Email) && candidate.password == body.Password {
			return http.StatusOK, schema.TokenResponse{
				AccessToken: server.issueTokenLocked(candidate.ID),
				TokenType:   "bearer",
			}
		}
	}
	return fail(http.StatusUnauthorized, "Invalid credentials")
}

func (server *Server) me(request *request) (int, any) {
	return http.StatusOK, request.caller.User
}

// --- Projects ---

func (server *Server) listProjects(request *request) (int, any) {
	ids := make([]int64, 0, len(server.projects))
	for id := range server.projects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	projects := []schema.Project{}
	for _, id := range ids {
		role := server.roleLocked(id, request.caller.ID)
		if role == "" {
			continue
		}
		projects = append(projects, schema.Project{ID: id, Name: server.projects[id].name, Role: role})
	}
	return http.StatusOK, projects
}

func (server *Server) projectDetail(record *project) schema.ProjectDetail {
	return schema.ProjectDetail{
		ID:          record.id,
		Name:        record.name,
		Description: record.description,
		OwnerID:     record.ownerID,
	}
}

func (server *Server) createProject(request *request) (int, any) {
	var body schema.ProjectDraft
	if err := request.decode(&body); err != nil || body.Name == "" {
		return invalidField("name", "Field required")
	}
	description := ""
	if body.Description != nil {
		description = *body.Description
	}
	id := server.addProjectLocked(request.caller.ID, body.Name, description)
	return http.StatusOK, server.projectDetail(server.projects[id])
}

func (server *Server) getProject(request *request) (int, any) {
	projectID, ok := request.id("id")
	if !ok {
		return invalidField("project_id", "Input should be a valid integer")
	}
	if server.roleLocked(projectID, request.caller.ID) == "" {
		return fail(http.StatusForbidden, "Access denied")
	}
	record, ok := server.projects[projectID]
	if !ok {
		return fail(http.StatusNotFound, "Project not found")
	}
	detail := server.projectDetail(record)
	detail.OwnerID = 0
	return http.StatusOK, detail
}

func (server *Server) updateProject(request *request) (int, any) {
	projectID, ok := request.id("id")
	if !ok {
		return invalidField("project_id", "Input should be a valid integer")
	}
	if server.roleLocked(projectID, request.caller.ID) != schema.RoleAdmin {
		return fail(http.StatusForbidden, "Admin access required")
	}
	record, ok := server.projects[projectID]
	if !ok {
		return fail(http.StatusNotFound, "Project not found")
	}
	var body schema.ProjectUpdate
	if err := request.decode(&body); err != nil {
		return invalidField("name", "invalid JSON body")
	}
	if body.Name != nil {
		record.name = *body.Name
	}
	if body.Description != nil {
		record.description = *body.Description
	}
	return http.StatusOK, server.projectDetail(record)
}

func (server *Server) deleteProject(request *request) (int, any) {
	projectID, ok := request.id("id")
	if !ok {
		return invalidField("project_id", "Input should be a valid integer")
	}
	role := server.roleLocked(projectID, request.caller.ID)
	if role == "" {
		return fail(http.StatusForbidden, "Access denied")
	}
	if role != schema.RoleAdmin {
		return fail(http.StatusForbidden, "Only ADMIN can delete projects")
	}
	if _, ok := server.projects[projectID]; !ok {
		return fail(http.StatusNotFound, "Project not found")
	}
	delete(server.projects, projectID)
	delete(server.memberships, projectID)
	for id, ticket := range server.tickets {
		if ticket.ProjectID != projectID {
			continue
		}
		delete(server.tickets, id)
		for commentID, comment := range server.comments {
			if comment.TicketID == id {
				delete(server.comments, commentID)
			}
		}
	}
	return http.StatusNoContent, nil
}

func (server *Server) listMembers(request *request) (int, any) {
	projectID, ok := request.id("id")
	if !ok {
		return invalidField("project_id", "Input should be a valid integer")
	}
	if server.roleLocked(projectID, request.caller.ID) == "" {
		return fail(http.StatusForbidden, "Access denied")
	}
	members := []schema.ProjectMember{}
	for _, member := range server.memberships[projectID] {
		record := server.users[member.userID]
		members = append(members, schema.ProjectMember{
			UserID: member.userID,
			Email:  record.Email,
			Role:   member.role,
		})
	}
	return http.StatusOK, members
}

func (server *Server) addMember(request *request) (int, any) {
	projectID, ok := request.id("id")
	if !ok {
		return invalidField("project_id", "Input should be a valid integer")
	}
	if server.roleLocked(projectID, request.caller.ID) != schema.RoleAdmin {
		return fail(http.StatusForbidden, "Admin access required")
	}
	var body schema.MemberInvite
	if err := request.decode(&body); err != nil {
		return invalidField("email", "invalid JSON body")
	}
	if !body.Role.IsKnown() {
		return invalidField("role", "Input should be 'ADMIN', 'DEV' or 'VIEWER'")
	}
	var invitee *user
	for _, candidate := range server.users {
		if strings.EqualFold(candidate.Email, body.Email) {
			invitee = candidate
			break
		}
	}
	if invitee == nil {
		return fail(http.StatusNotFound, "User not found")
	}
	if server.roleLocked(projectID, invitee.ID) != "" {
		return fail(http.StatusBadRequest, "User already a project member")
	}
	server.memberships[projectID] = append(server.memberships[projectID], membership{userID: invitee.ID, role: body.Role})
	return http.StatusCreated, schema.MembershipRecord{UserID: invitee.ID, ProjectID: projectID, Role: body.Role}
}

// --- Tickets ---

func (server *Server) listTickets(request *request) (int, any) {
	projectID, ok := request.id("id")
	if !ok {
		return invalidField("project_id", "Input should be a valid integer")
	}
	if server.roleLocked(projectID, request.caller.ID) == "" {
		return fail(http.StatusForbidden, "Access denied.")
	}
	filter := schema.TicketFilter{
		Search:   request.queryValue("search"),
		Status:   schema.Status(request.queryValue("status_filter")),
		Priority: schema.Priority(request.queryValue("priority")),
	}
	issueType := schema.IssueType(request.queryValue("issue_type"))

	tickets := []schema.Ticket{}
	for _, ticket := range server.sortedTicketsLocked() {
		if ticket.ProjectID != projectID || !filter.Matches(*ticket) {
			continue
		}
		if issueType != "" && ticket.IssueType != issueType {
			continue
		}
		tickets = append(tickets, server.ticketViewLocked(ticket))
	}
	return http.StatusOK, tickets
}

func (server *Server) createTicket(request *request) (int, any) {
	var body schema.TicketDraft
	if err := request.decode(&body); err != nil {
		return invalidField("title", "invalid JSON body")
	}
	if body.Title == "" {
		return invalidField("title", "Field required")
	}
	if body.Status != "" && !body.Status.IsKnown() {
		return invalidField("status", "Input should be 'TODO', 'IN_PROGRESS' or 'DONE'")
	}
	role := server.roleLocked(body.ProjectID, request.caller.ID)
	if role != schema.RoleAdmin && role != schema.RoleDev {
		return fail(http.StatusForbidden, "You do not have permission to create tickets in this project.")
	}
	if body.AssignedToID != nil && *body.AssignedToID != 0 {
		switch server.roleLocked(body.ProjectID, *body.AssignedToID) {
		case "":
			return fail(http.StatusBadRequest, "Assignee must be a project member.")
		case schema.RoleViewer:
			return fail(http.StatusBadRequest, "Cannot assign tickets to VIEWER role members.")
		}
	}
	ticket := &schema.Ticket{
		ID:           server.allocateID(),
		Title:        body.Title,
		Description:  body.Description,
		IssueType:    body.IssueType,
		Status:       body.Status,
		Priority:     body.Priority,
		ProjectID:    body.ProjectID,
		CreatedByID:  request.caller.ID,
		AssignedToID: body.AssignedToID,
		CreatedAt:    server.tickLocked(),
		Order:        body.Order,
	}
	if ticket.IssueType == "" {
		ticket.IssueType = schema.IssueTask
	}
	if ticket.Status == "" {
		ticket.Status = schema.StatusTodo
	}
	if ticket.Priority == "" {
		ticket.Priority = schema.PriorityMedium
	}
	server.tickets[ticket.ID] = ticket
	return http.StatusOK, server.ticketViewLocked(ticket)
}

func (server *Server) getTicket(request *request) (int, any) {
	ticket, status, payload := server.memberTicketLocked(request, "Access denied")
	if ticket == nil {
		return status, payload
	}
	return http.StatusOK, server.ticketViewLocked(ticket)
}

// memberTicketLocked resolves the {id} ticket and checks the caller is
// a member of its project.
func (server *Server) memberTicketLocked(request *request, forbidden string) (*schema.Ticket, int, any) {
	ticketID, ok := request.id("id")
	if !ok {
		status, payload := invalidField("ticket_id", "Input should be a valid integer")
		return nil, status, payload
	}
	ticket, ok := server.tickets[ticketID]
	if !ok {
		status, payload := fail(http.StatusNotFound, fmt.Sprintf("Ticket with ID %d not found.", ticketID))
		return nil, status, payload
	}
	if server.roleLocked(ticket.ProjectID, request.caller.ID) == "" {
		status, payload := fail(http.StatusForbidden, forbidden)
		return nil, status, payload
	}
	return ticket, 0, nil
}

func (server *Server) updateTicket(request *request) (int, any) {
	ticket, status, payload := server.memberTicketLocked(request, "Access denied")
	if ticket == nil {
		return status, payload
	}
	var update schema.TicketUpdate
	if err := request.decode(&update); err != nil {
		return invalidField("status", "invalid JSON body")
	}
	if update.Status != nil && !update.Status.IsKnown() {
		return invalidField("status", "Input should be 'TODO', 'IN_PROGRESS' or 'DONE'")
	}

	role := server.roleLocked(ticket.ProjectID, request.caller.ID)
	switch {
	case role == schema.RoleAdmin || role == schema.RoleDev:
		if update.AssignedToID != nil {
			switch server.roleLocked(ticket.ProjectID, *update.AssignedToID) {
			case "":
				return fail(http.StatusBadRequest, "Assignee must be a project member.")
			case schema.RoleViewer:
				return fail(http.StatusBadRequest, "Cannot assign tickets to VIEWER role members.")
			}
		}
		applyTicketUpdate(ticket, update)
	case ticket.AssignedToID != nil && *ticket.AssignedToID == request.caller.ID:
		if update.Status == nil {
			return fail(http.StatusForbidden, "You can only update the status of tickets assigned to you")
		}
		ticket.Status = *update.Status
	default:
		return fail(http.StatusForbidden, "You do not have permission to modify this ticket")
	}
	return http.StatusOK, server.ticketViewLocked(ticket)
}

func applyTicketUpdate(ticket *schema.Ticket, update schema.TicketUpdate) {
	if update.Title != nil {
		ticket.Title = *update.Title
	}
	if update.Description != nil {
		description := *update.Description
		ticket.Description = &description
	}
	if update.IssueType != nil {
		ticket.IssueType = *update.IssueType
	}
	if update.Status != nil {
		ticket.Status = *update.Status
	}
	if update.Priority != nil {
		ticket.Priority = *update.Priority
	}
	if update.AssignedToID != nil {
		assignee := *update.AssignedToID
		ticket.AssignedToID = &assignee
	}
	if update.Order != nil {
		order := *update.Order
		ticket.Order = &order
	}
}

func (server *Server) deleteTicket(request *request) (int, any) {
	ticketID, ok := request.id("id")
	if !ok {
		return invalidField("ticket_id", "Input should be a valid integer")
	}
	ticket, ok := server.tickets[ticketID]
	if !ok {
		return fail(http.StatusNotFound, fmt.Sprintf("Ticket with ID %d not found.", ticketID))
	}
	role := server.roleLocked(ticket.ProjectID, request.caller.ID)
	if role != schema.RoleAdmin && role != schema.RoleDev {
		return fail(http.StatusForbidden, "You do not have permission to modify this ticket")
	}
	delete(server.tickets, ticketID)
	for commentID, comment := range server.comments {
		if comment.TicketID == ticketID {
			delete(server.comments, commentID)
		}
	}
	return http.StatusNoContent, nil
}

// --- Comments ---

func (server *Server) ticketCommentsLocked(ticketID int64) []*schema.Comment {
	comments := make([]*schema.Comment, 0)
	for _, comment := range server.comments {
		if comment.TicketID == ticketID {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt.Time) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt.Time)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments
}

func (server *Server) listComments(request *request) (int, any) {
	ticket, status, payload := server.memberTicketLocked(request, "You are not a member of this project.")
	if ticket == nil {
		return status, payload
	}
	page := schema.DefaultPage
	if _, err := fmt.Sscan(request.queryValue("skip"), &page.Skip); err != nil {
		page.Skip = schema.DefaultPage.Skip
	}
	if _, err := fmt.Sscan(request.queryValue("limit"), &page.Limit); err != nil {
		page.Limit = schema.DefaultPage.Limit
	}
	page = page.Normalized()

	all := server.ticketCommentsLocked(ticket.ID)
	comments := []schema.Comment{}
	for index := page.Skip; index < len(all) && len(comments) < page.Limit; index++ {
		comments = append(comments, server.commentViewLocked(all[index]))
	}
	return http.StatusOK, comments
}

func (server *Server) createComment(request *request) (int, any) {
	ticket, status, payload := server.memberTicketLocked(request, "You are not a member of this project.")
	if ticket == nil {
		return status, payload
	}
	var body schema.CommentDraft
	if err := request.decode(&body); err != nil {
		return invalidField("comment", "invalid JSON body")
	}
	if body.Comment == "" {
		return invalidField("comment", "String should have at least 1 character")
	}
	comment := &schema.Comment{
		ID:        server.allocateID(),
		TicketID:  ticket.ID,
		UserID:    request.caller.ID,
		Comment:   body.Comment,
		CreatedAt: server.tickLocked(),
	}
	server.comments[comment.ID] = comment
	return http.StatusCreated, server.commentViewLocked(comment)
}

func (server *Server) commentCount(request *request) (int, any) {
	ticketID, ok := request.id("id")
	if !ok {
		return invalidField("ticket_id", "Input should be a valid integer")
	}
	if _, ok := server.tickets[ticketID]; !ok {
		return fail(http.StatusNotFound, fmt.Sprintf("Ticket with ID %d not found.", ticketID))
	}
	return http.StatusOK, schema.CommentCount{TicketID: ticketID, Count: len(server.ticketCommentsLocked(ticketID))}
}

func (server *Server) getComment(request *request) (int, any) {
	commentID, ok := request.id("id")
	if !ok {
		return invalidField("comment_id", "Input should be a valid integer")
	}
	comment, ok := server.comments[commentID]
	if !ok {
		return fail(http.StatusNotFound, fmt.Sprintf("Comment with ID %d does not exist.", commentID))
	}
	if ticket, ok := server.tickets[comment.TicketID]; ok && server.roleLocked(ticket.ProjectID, request.caller.ID) == "" {
		return fail(http.StatusForbidden, "You are not a member of this project.")
	}
	return http.StatusOK, server.commentViewLocked(comment)
}

func (server *Server) editComment(request *request) (int, any) {
	commentID, ok := request.id("id")
	if !ok {
		return invalidField("comment_id", "Input should be a valid integer")
	}
	var body schema.CommentEdit
	if err := request.decode(&body); err != nil {
		return invalidField("comment", "invalid JSON body")
	}
	if body.Comment == "" {
		return invalidField("comment", "String should have at least 1 character")
	}
	if len(body.Comment) > 5000 {
		return invalidField("comment", "String should have at most 5000 characters")
	}
	comment, ok := server.comments[commentID]
	if !ok {
		return fail(http.StatusNotFound, fmt.Sprintf("Comment with ID %d does not exist.", commentID))
	}
	if comment.UserID != request.caller.ID {
		return fail(http.StatusForbidden, "You can only edit your own comments.")
	}
	comment.Comment = body.Comment
	return http.StatusOK, server.commentViewLocked(comment)
}

func (server *Server) deleteComment(request *request) (int, any) {
	commentID, ok := request.id("id")
	if !ok {
		return invalidField("comment_id", "Input should be a valid integer")
	}
	comment, ok := server.comments[commentID]
	if !ok {
		return fail(http.StatusNotFound, "Comment not found.")
	}
	if comment.UserID != request.caller.ID {
		return fail(http.StatusForbidden, "You can only delete your own comments.")
	}
	delete(server.comments, commentID)
	return http.StatusNoContent, nil
}

// --- Dashboard ---

func (server *Server) dashboardStats(request *request) (int, any) {
	stats := schema.DashboardStats{ProjectChange: "+0%", TicketChange: "+0%"}
	for projectID := range server.projects {
		if server.roleLocked(projectID, request.caller.ID) != "" {
			stats.TotalProjects++
		}
	}
	for _, ticket := range server.tickets {
		if server.roleLocked(ticket.ProjectID, request.caller.ID) == "" {
			continue
		}
		stats.TotalTickets++
		switch ticket.Status {
		case schema.StatusTodo:
			stats.TodoTickets++
		case schema.StatusInProgress:
			stats.InProgressTickets++
		case schema.StatusDone:
			stats.CompletedTickets++
		}
	}
	return http.StatusOK, stats
}

func (server *Server) recentActivity(request *request) (int, any) {
	var visible []*schema.Ticket
	for _, ticket := range server.sortedTicketsLocked() {
		if server.roleLocked(ticket.ProjectID, request.caller.ID) != "" {
			visible = append(visible, ticket)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt.Time)
	})
	if len(visible) > 10 {
		visible = visible[:10]
	}
	entries := []schema.ActivityEntry{}
	for _, ticket := range visible {
		view := server.ticketViewLocked(ticket)
		projectName := ""
		if record, ok := server.projects[ticket.ProjectID]; ok {
			projectName = record.name
		}
		entries = append(entries, schema.ActivityEntry{
			ID:              view.ID,
			Title:           view.Title,
			Status:          view.Status,
			Priority:        view.Priority,
			ProjectName:     projectName,
			AssignedToEmail: view.AssignedToEmail,
			CreatedAt:       view.CreatedAt,
		})
	}
	return http.StatusOK, entries
}
