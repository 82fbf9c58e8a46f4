// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"sort"

	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// Column is one status bucket of the board.
type Column struct {
	Status  schema.Status
	Tickets []schema.Ticket
}

// Columns are the board's buckets in TODO, IN_PROGRESS, DONE order.
type Columns []Column

// Column returns the bucket for status, or an empty column.
func (columns Columns) Column(status schema.Status) Column {
	for _, column := range columns {
		if column.Status == status {
			return column
		}
	}
	return Column{Status: status}
}

// GroupByStatus partitions tickets into the three status columns.
// Within a column tickets keep their fetch order, unless any ticket
// carries a manual order, in which case each column is sorted by it
// (tickets without one last, in fetch order). Tickets with a status
// outside the three columns are not placed.
func GroupByStatus(tickets []schema.Ticket) Columns {
	columns := make(Columns, len(schema.Statuses))
	index := make(map[schema.Status]int, len(schema.Statuses))
	for position, status := range schema.Statuses {
		columns[position] = Column{Status: status, Tickets: []schema.Ticket{}}
		index[status] = position
	}

	ordered := false
	for _, ticket := range tickets {
		position, ok := index[ticket.Status]
		if !ok {
			continue
		}
		columns[position].Tickets = append(columns[position].Tickets, ticket)
		if ticket.Order != nil {
			ordered = true
		}
	}

	if ordered {
		for position := range columns {
			bucket := columns[position].Tickets
			sort.SliceStable(bucket, func(i, j int) bool {
				left, right := bucket[i].Order, bucket[j].Order
				switch {
				case left == nil:
					return false
				case right == nil:
					return true
				}
				return *left < *right
			})
		}
	}
	return columns
}

// Stats are per-status ticket totals.
type Stats struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// CountByStatus totals tickets per status.
func CountByStatus(tickets []schema.Ticket) Stats {
	stats := Stats{Total: len(tickets)}
	for _, ticket := range tickets {
		switch ticket.Status {
		case schema.StatusTodo:
			stats.Todo++
		case schema.StatusInProgress:
			stats.InProgress++
		case schema.StatusDone:
			stats.Done++
		}
	}
	return stats
}
