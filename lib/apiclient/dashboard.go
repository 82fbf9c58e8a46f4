// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"net/http"

	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// DashboardStats returns ticket totals across the user's projects.
func (client *Client) DashboardStats(ctx context.Context) (schema.DashboardStats, error) {
	var stats schema.DashboardStats
	if err := client.do(ctx, call{
		op:     "dashboard stats",
		method: http.MethodGet,
		path:   "/dashboard/stats",
		out:    &stats,
	}); err != nil {
		return schema.DashboardStats{}, err
	}
	return stats, nil
}

// RecentActivity returns the most recently created tickets across the
// user's projects.
func (client *Client) RecentActivity(ctx context.Context) ([]schema.ActivityEntry, error) {
	var entries []schema.ActivityEntry
	if err := client.do(ctx, call{
		op:     "recent activity",
		method: http.MethodGet,
		path:   "/dashboard/recent-activity",
		out:    &entries,
	}); err != nil {
		return nil, err
	}
	return entries, nil
}
