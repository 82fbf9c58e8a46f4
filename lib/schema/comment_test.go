// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"testing"
)

func TestCommentCountDecodesEveryShape(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{`3`, 3},
		{`{"ticket_id": 9, "count": 4}`, 4},
		{`{"comment_count": 5}`, 5},
		{`{"count": 0}`, 0},
	}
	for _, test := range tests {
		var count CommentCount
		if err := json.Unmarshal([]byte(test.body), &count); err != nil {
			t.Errorf("Unmarshal(%s): %v", test.body, err)
			continue
		}
		if count.Count != test.want {
			t.Errorf("Unmarshal(%s).Count = %d, want %d", test.body, count.Count, test.want)
		}
	}
}

func TestCommentCountRejectsMissingField(t *testing.T) {
	var count CommentCount
	if err := json.Unmarshal([]byte(`{"total": 2}`), &count); err == nil {
		t.Fatal("Unmarshal accepted object without a count field")
	}
}

func TestPageNormalized(t *testing.T) {
	page := Page{Skip: -5, Limit: 0}.Normalized()
	if page.Skip != 0 || page.Limit != DefaultPage.Limit {
		t.Errorf("Normalized() = %+v, want {0 %d}", page, DefaultPage.Limit)
	}
	page = Page{Skip: 50, Limit: 10}.Normalized()
	if page.Skip != 50 || page.Limit != 10 {
		t.Errorf("Normalized() = %+v, want {50 10}", page)
	}
}

func TestCommentAuthorFallback(t *testing.T) {
	if got := (Comment{Username: "alice", UserEmail: "a@x"}).Author(); got != "alice" {
		t.Errorf("Author() = %q, want alice", got)
	}
	if got := (Comment{UserEmail: "a@x"}).Author(); got != "a@x" {
		t.Errorf("Author() = %q, want a@x", got)
	}
	if got := (Comment{UserID: 7}).Author(); got != "user 7" {
		t.Errorf("Author() = %q, want %q", got, "user 7")
	}
}
