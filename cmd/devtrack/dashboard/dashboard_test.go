// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli/clitest"
	"github.com/devtrack-foundation/devtrack/lib/apitest"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

func seed(t *testing.T) *clitest.Env {
	t.Helper()
	env := clitest.Setup(t)
	ada := env.NewUser(t, "Ada")
	projectID := env.Server.AddProject(ada.ID, "Apollo")
	env.Server.AddTicket(schema.Ticket{Title: "Write docs", ProjectID: projectID})
	env.Server.AddTicket(schema.Ticket{Title: "Fix login", ProjectID: projectID, Status: schema.StatusInProgress})
	env.Server.AddTicket(schema.Ticket{Title: "Ship it", ProjectID: projectID, Status: schema.StatusDone})

	other := env.Server.AddUser("Other", "other@example.com", "pw")
	hidden := env.Server.AddProject(other.ID, "Hidden")
	env.Server.AddTicket(schema.Ticket{Title: "Secret", ProjectID: hidden})
	return env
}

func TestDashboardText(t *testing.T) {
	env := seed(t)

	result := env.MustRun(t, Command())
	for _, want := range []string{"Projects", "Tickets", "To Do", "In Progress", "Done", "Recent activity", "Ship it", "Apollo", "unassigned"} {
		if !strings.Contains(result.Stdout, want) {
			t.Errorf("dashboard missing %q:\n%s", want, result.Stdout)
		}
	}
	if strings.Contains(result.Stdout, "Secret") {
		t.Errorf("dashboard shows another user's ticket:\n%s", result.Stdout)
	}
}

func TestDashboardJSON(t *testing.T) {
	env := seed(t)

	result := env.MustRun(t, Command(), "--json")
	var decoded dashboardResult
	if err := json.Unmarshal([]byte(result.Stdout), &decoded); err != nil {
		t.Fatalf("decoding %q: %v", result.Stdout, err)
	}
	want := schema.DashboardStats{
		TotalProjects:     1,
		TotalTickets:      3,
		TodoTickets:       1,
		InProgressTickets: 1,
		CompletedTickets:  1,
		ProjectChange:     "+0%",
		TicketChange:      "+0%",
	}
	if decoded.Stats != want {
		t.Errorf("stats = %+v, want %+v", decoded.Stats, want)
	}
	if len(decoded.Activity) != 3 || decoded.Activity[0].Title != "Ship it" {
		t.Errorf("activity = %+v, want newest first", decoded.Activity)
	}
}

func TestDashboardWithoutActivity(t *testing.T) {
	env := seed(t)

	result := env.MustRun(t, Command(), "--activity=false")
	if strings.Contains(result.Stdout, "Recent activity") {
		t.Errorf("dashboard = %q, want no activity section", result.Stdout)
	}
	if env.Server.Requests(apitest.RouteRecentActivity) != 0 {
		t.Error("activity fetched with --activity=false")
	}
}

func TestDashboardRequiresSession(t *testing.T) {
	env := clitest.Setup(t)

	result := env.Run(t, Command())
	if clitest.Category(result.Err) != cli.CategoryForbidden {
		t.Fatalf("err = %v, want forbidden", result.Err)
	}
}
