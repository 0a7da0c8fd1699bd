package service

import (
	"testing"

	v1 "auditorium/pkg/api/v1"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := make([]string, 25)
	for i := range items {
		items[i] = string(rune('a' + i))
	}
	id := func(s string) string { return s }

	tests := []struct {
		name    string
		page    v1.Page
		first   string
		last    string
		count   int
		hasMore bool
	}{
		{name: "default limit", page: v1.Page{}, first: "a", last: "j", count: 10, hasMore: true},
		{name: "clamped limit", page: v1.Page{Limit: 100}, first: "a", last: "t", count: 20, hasMore: true},
		{name: "after cursor", page: v1.Page{Limit: 10, AfterID: "t"}, first: "u", last: "y", count: 5, hasMore: false},
		{name: "before cursor", page: v1.Page{Limit: 3, BeforeID: "e"}, first: "b", last: "d", count: 3, hasMore: true},
		{name: "before start", page: v1.Page{Limit: 10, BeforeID: "c"}, first: "a", last: "b", count: 2, hasMore: false},
		{name: "unknown cursor", page: v1.Page{AfterID: "zz"}, count: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, p := paginate(items, id, tt.page)
			assert.Len(t, out, tt.count)
			assert.Equal(t, tt.first, p.FirstID)
			assert.Equal(t, tt.last, p.LastID)
			assert.Equal(t, tt.hasMore, p.HasMore)
		})
	}
}
