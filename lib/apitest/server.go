// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devtrack-foundation/devtrack/lib/netutil"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// Route names used with FailNext, HoldNext, and Requests. Each is the
// method and path pattern of one endpoint.
const (
	RouteRegister       = "POST /auth/register"
	RouteLogin          = "POST /auth/login"
	RouteMe             = "GET /auth/me"
	RouteListProjects   = "GET /projects/"
	RouteCreateProject  = "POST /projects/"
	RouteGetProject     = "GET /projects/{id}"
	RouteUpdateProject  = "PUT /projects/{id}"
	RouteDeleteProject  = "DELETE /projects/{id}"
	RouteListMembers    = "GET /projects/{id}/member"
	RouteAddMember      = "POST /projects/{id}/member"
	RouteListTickets    = "GET /tickets/project/{id}"
	RouteCreateTicket   = "POST /tickets/"
	RouteGetTicket      = "GET /tickets/{id}"
	RouteUpdateTicket   = "PUT /tickets/{id}"
	RouteDeleteTicket   = "DELETE /tickets/{id}"
	RouteListComments   = "GET /tickets/{id}/comments"
	RouteCreateComment  = "POST /tickets/{id}/comments"
	RouteCommentCount   = "GET /tickets/{id}/comments/count"
	RouteGetComment     = "GET /tickets/comments/{id}"
	RouteUpdateComment  = "PUT /tickets/comments/{id}"
	RoutePatchComment   = "PATCH /tickets/comments/{id}"
	RouteDeleteComment  = "DELETE /tickets/comments/{id}"
	RouteDashboardStats = "GET /dashboard/stats"
	RouteRecentActivity = "GET /dashboard/recent-activity"
)

// epoch is the creation time of the first seeded record. Each record
// is one second newer than the previous, so ordering by creation time
// is deterministic.
var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type user struct {
	schema.User
	password string
}

type project struct {
	id          int64
	name        string
	description string
	ownerID     int64
}

type membership struct {
	userID int64
	role   schema.Role
}

type failure struct {
	status int
	detail string
}

// Hold is a request parked by HoldNext.
type Hold struct {
	arrived  chan struct{}
	released chan struct{}
	once     sync.Once
}

// Arrived is closed when the held request reaches the server.
func (hold *Hold) Arrived() <-chan struct{} { return hold.arrived }

// Release lets the held request proceed. Safe to call more than once.
func (hold *Hold) Release() { hold.once.Do(func() { close(hold.released) }) }

// Server is an in-memory DevTrack backend.
type Server struct {
	httpServer *httptest.Server
	routes     []route

	mu          sync.Mutex
	nextID      int64
	clock       int64
	users       map[int64]*user
	tokens      map[string]int64
	projects    map[int64]*project
	memberships map[int64][]membership
	tickets     map[int64]*schema.Ticket
	comments    map[int64]*schema.Comment
	failures    map[string][]failure
	holds       map[string][]*Hold
	latency     map[string]time.Duration
	counts      map[string]int
}

// New starts a Server and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	server := &Server{
		users:       make(map[int64]*user),
		tokens:      make(map[string]int64),
		projects:    make(map[int64]*project),
		memberships: make(map[int64][]membership),
		tickets:     make(map[int64]*schema.Ticket),
		comments:    make(map[int64]*schema.Comment),
		failures:    make(map[string][]failure),
		holds:       make(map[string][]*Hold),
		latency:     make(map[string]time.Duration),
		counts:      make(map[string]int),
	}
	server.routes = server.routeTable()
	server.httpServer = httptest.NewServer(http.HandlerFunc(server.serveHTTP))
	t.Cleanup(func() {
		server.releaseAll()
		server.httpServer.Close()
	})
	return server
}

// URL is the base URL to configure the client with.
func (server *Server) URL() string { return server.httpServer.URL }

// Close shuts the server down; later requests fail at the transport.
func (server *Server) Close() {
	server.releaseAll()
	server.httpServer.Close()
}

// FailNext makes the next request to route answer with status and
// detail instead of being served. Calls queue.
func (server *Server) FailNext(route string, status int, detail string) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.failures[route] = append(server.failures[route], failure{status: status, detail: detail})
}

// HoldNext parks the next request to route until the returned Hold is
// released (or the request's context ends). The request is still
// served against the state at release time.
func (server *Server) HoldNext(route string) *Hold {
	hold := &Hold{arrived: make(chan struct{}), released: make(chan struct{})}
	server.mu.Lock()
	defer server.mu.Unlock()
	server.holds[route] = append(server.holds[route], hold)
	return hold
}

// SetLatency delays every request to route by d.
func (server *Server) SetLatency(route string, d time.Duration) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.latency[route] = d
}

// Requests returns how many requests route has received.
func (server *Server) Requests(route string) int {
	server.mu.Lock()
	defer server.mu.Unlock()
	return server.counts[route]
}

// TotalRequests returns how many requests the server has received.
func (server *Server) TotalRequests() int {
	server.mu.Lock()
	defer server.mu.Unlock()
	total := 0
	for _, count := range server.counts {
		total += count
	}
	return total
}

func (server *Server) releaseAll() {
	server.mu.Lock()
	defer server.mu.Unlock()
	for _, queue := range server.holds {
		for _, hold := range queue {
			hold.Release()
		}
	}
}

// AddUser seeds an account and returns it.
func (server *Server) AddUser(name, email, password string) schema.User {
	server.mu.Lock()
	defer server.mu.Unlock()
	return server.addUserLocked(name, email, password).User
}

func (server *Server) addUserLocked(name, email, password string) *user {
	record := &user{
		User:     schema.User{ID: server.allocateID(), Email: email, Name: name},
		password: password,
	}
	server.users[record.ID] = record
	return record
}

// TokenFor issues a valid bearer token for a seeded user.
func (server *Server) TokenFor(userID int64) string {
	server.mu.Lock()
	defer server.mu.Unlock()
	return server.issueTokenLocked(userID)
}

func (server *Server) issueTokenLocked(userID int64) string {
	token := fmt.Sprintf("token-%d-%d", userID, server.allocateID())
	server.tokens[token] = userID
	return token
}

// RevokeToken makes token invalid; requests bearing it get 401.
func (server *Server) RevokeToken(token string) {
	server.mu.Lock()
	defer server.mu.Unlock()
	delete(server.tokens, token)
}

// AddProject seeds a project owned by ownerID, who becomes its ADMIN.
func (server *Server) AddProject(ownerID int64, name string) int64 {
	server.mu.Lock()
	defer server.mu.Unlock()
	return server.addProjectLocked(ownerID, name, "")
}

func (server *Server) addProjectLocked(ownerID int64, name, description string) int64 {
	id := server.allocateID()
	server.projects[id] = &project{id: id, name: name, description: description, ownerID: ownerID}
	server.memberships[id] = []membership{{userID: ownerID, role: schema.RoleAdmin}}
	return id
}

// AddMember seeds a membership.
func (server *Server) AddMember(projectID, userID int64, role schema.Role) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.memberships[projectID] = append(server.memberships[projectID], membership{userID: userID, role: role})
}

// AddTicket seeds a ticket. Zero ID, status, priority, issue type, and
// creation time are filled in; AssignedToEmail is derived from
// AssignedToID.
func (server *Server) AddTicket(ticket schema.Ticket) schema.Ticket {
	server.mu.Lock()
	defer server.mu.Unlock()
	if ticket.ID == 0 {
		ticket.ID = server.allocateID()
	} else if ticket.ID >= server.nextID {
		server.nextID = ticket.ID
	}
	if ticket.Status == "" {
		ticket.Status = schema.StatusTodo
	}
	if ticket.Priority == "" {
		ticket.Priority = schema.PriorityMedium
	}
	if ticket.IssueType == "" {
		ticket.IssueType = schema.IssueTask
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = server.tickLocked()
	}
	server.tickets[ticket.ID] = &ticket
	return server.ticketViewLocked(&ticket)
}

// AddComment seeds a comment by userID on ticketID.
func (server *Server) AddComment(ticketID, userID int64, text string) schema.Comment {
	server.mu.Lock()
	defer server.mu.Unlock()
	comment := &schema.Comment{
		ID:        server.allocateID(),
		TicketID:  ticketID,
		UserID:    userID,
		Comment:   text,
		CreatedAt: server.tickLocked(),
	}
	server.comments[comment.ID] = comment
	return server.commentViewLocked(comment)
}

// Ticket returns the stored ticket, as the API would render it.
func (server *Server) Ticket(id int64) (schema.Ticket, bool) {
	server.mu.Lock()
	defer server.mu.Unlock()
	ticket, ok := server.tickets[id]
	if !ok {
		return schema.Ticket{}, false
	}
	return server.ticketViewLocked(ticket), true
}

// Comment returns the stored comment.
func (server *Server) Comment(id int64) (schema.Comment, bool) {
	server.mu.Lock()
	defer server.mu.Unlock()
	comment, ok := server.comments[id]
	if !ok {
		return schema.Comment{}, false
	}
	return server.commentViewLocked(comment), true
}

// Role returns userID's role in projectID, or "" for non-members.
func (server *Server) Role(projectID, userID int64) schema.Role {
	server.mu.Lock()
	defer server.mu.Unlock()
	return server.roleLocked(projectID, userID)
}

func (server *Server) allocateID() int64 {
	server.nextID++
	return server.nextID
}

func (server *Server) tickLocked() schema.Timestamp {
	server.clock++
	return schema.At(epoch.Add(time.Duration(server.clock) * time.Second))
}

func (server *Server) roleLocked(projectID, userID int64) schema.Role {
	for _, member := range server.memberships[projectID] {
		if member.userID == userID {
			return member.role
		}
	}
	return ""
}

func (server *Server) ticketViewLocked(ticket *schema.Ticket) schema.Ticket {
	view := *ticket
	view.AssignedToEmail = nil
	if view.AssignedToID != nil {
		if assignee, ok := server.users[*view.AssignedToID]; ok {
			email := assignee.Email
			view.AssignedToEmail = &email
		}
	}
	return view
}

func (server *Server) commentViewLocked(comment *schema.Comment) schema.Comment {
	view := *comment
	if author, ok := server.users[comment.UserID]; ok {
		view.Username = author.Name
		view.UserEmail = author.Email
	}
	return view
}

func (server *Server) sortedTicketsLocked() []*schema.Ticket {
	tickets := make([]*schema.Ticket, 0, len(server.tickets))
	for _, ticket := range server.tickets {
		tickets = append(tickets, ticket)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })
	return tickets
}

// route is one endpoint: a method, a path pattern whose {segments}
// match any single path segment, and its handler.
type route struct {
	name     string
	method   string
	segments []string
	public   bool
	handler  func(request *request) (int, any)
}

// request is what a handler sees: the caller (zero for public routes),
// path parameters, query, and decoded body.
type request struct {
	caller *user
	params map[string]string
	query  map[string][]string
	body   []byte
}

// id returns the integer path parameter named key.
func (request *request) id(key string) (int64, bool) {
	value, err := strconv.ParseInt(request.params[key], 10, 64)
	return value, err == nil
}

func (request *request) queryValue(key string) string {
	values := request.query[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (request *request) decode(target any) error {
	return json.Unmarshal(request.body, target)
}

func newRoute(name string, public bool, handler func(*request) (int, any)) route {
	method, path, _ := strings.Cut(name, " ")
	return route{
		name:     name,
		method:   method,
		segments: strings.Split(strings.Trim(path, "/"), "/"),
		public:   public,
		handler:  handler,
	}
}

// match reports whether path matches the route, extracting parameters.
// A route pattern with a trailing slash ("/projects/") only matches
// that exact path.
func (route route) match(method, path string) (map[string]string, bool) {
	if method != route.method {
		return nil, false
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) != len(route.segments) {
		return nil, false
	}
	params := make(map[string]string)
	for index, pattern := range route.segments {
		if strings.HasPrefix(pattern, "{") && strings.HasSuffix(pattern, "}") {
			if segments[index] == "" {
				return nil, false
			}
			params[strings.Trim(pattern, "{}")] = segments[index]
			continue
		}
		if pattern != segments[index] {
			return nil, false
		}
	}
	return params, true
}

// specificity ranks literal segments above parameters so that
// /tickets/comments/{id} wins over /tickets/{id}/comments.
func (route route) specificity() int {
	score := 0
	for index, segment := range route.segments {
		if !strings.HasPrefix(segment, "{") {
			score += 1 << (len(route.segments) - index)
		}
	}
	return score
}

func (server *Server) serveHTTP(writer http.ResponseWriter, httpRequest *http.Request) {
	var (
		matched *route
		params  map[string]string
	)
	best := -1
	pathMatched := false
	for index := range server.routes {
		candidate := &server.routes[index]
		if _, ok := candidate.match(candidate.method, httpRequest.URL.Path); ok {
			pathMatched = true
		}
		candidateParams, ok := candidate.match(httpRequest.Method, httpRequest.URL.Path)
		if !ok {
			continue
		}
		if score := candidate.specificity(); score > best {
			best = score
			matched = candidate
			params = candidateParams
		}
	}
	if matched == nil {
		if pathMatched {
			writeDetail(writer, http.StatusMethodNotAllowed, "Method Not Allowed")
			return
		}
		writeDetail(writer, http.StatusNotFound, "Not Found")
		return
	}

	server.mu.Lock()
	server.counts[matched.name]++
	delay := server.latency[matched.name]
	var injected *failure
	if queue := server.failures[matched.name]; len(queue) > 0 {
		injected = &queue[0]
		server.failures[matched.name] = queue[1:]
	}
	var hold *Hold
	if queue := server.holds[matched.name]; len(queue) > 0 {
		hold = queue[0]
		server.holds[matched.name] = queue[1:]
	}
	server.mu.Unlock()

	if hold != nil {
		close(hold.arrived)
		select {
		case <-hold.released:
		case <-httpRequest.Context().Done():
			return
		}
	}
	if delay > 0 {
		timer := time.NewTimer(delay) //nolint:realclock simulated network latency
		select {
		case <-timer.C:
		case <-httpRequest.Context().Done():
			timer.Stop()
			return
		}
	}
	if injected != nil {
		writeDetail(writer, injected.status, injected.detail)
		return
	}

	body, err := netutil.ReadRequest(httpRequest.Body)
	if err != nil {
		writeDetail(writer, http.StatusBadRequest, "unreadable body")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	handlerRequest := &request{
		params: params,
		query:  httpRequest.URL.Query(),
		body:   body,
	}
	if !matched.public {
		caller, status, detail := server.authenticateLocked(httpRequest)
		if caller == nil {
			writeDetail(writer, status, detail)
			return
		}
		handlerRequest.caller = caller
	}

	status, payload := matched.handler(handlerRequest)
	writeJSON(writer, status, payload)
}

func (server *Server) authenticateLocked(httpRequest *http.Request) (*user, int, string) {
	header := httpRequest.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, http.StatusForbidden, "Not authenticated"
	}
	userID, ok := server.tokens[token]
	if !ok {
		return nil, http.StatusUnauthorized, "Invalid Token"
	}
	caller, ok := server.users[userID]
	if !ok {
		return nil, http.StatusUnauthorized, "Invalid Token"
	}
	return caller, 0, ""
}

// detail is the backend's error body.
type detail struct {
	Detail any `json:"detail"`
}

// fieldIssue is one entry of a validation error list.
type fieldIssue struct {
	Location []string `json:"loc"`
	Message  string   `json:"msg"`
	Type     string   `json:"type"`
}

func fail(status int, message string) (int, any) {
	return status, detail{Detail: message}
}

func invalidField(field, message string) (int, any) {
	return http.StatusUnprocessableEntity, detail{Detail: []fieldIssue{{
		Location: []string{"body", field},
		Message:  message,
		Type:     "value_error",
	}}}
}

func writeDetail(writer http.ResponseWriter, status int, message string) {
	writeJSON(writer, status, detail{Detail: message})
}

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	if status == http.StatusNoContent || payload == nil {
		writer.WriteHeader(status)
		return
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(payload)
}
