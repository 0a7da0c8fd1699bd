package service

import (
	"slices"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/constraints"
)

// paginate cuts one page out of an already ordered slice. after_id and
// before_id are positions in that order; an unknown cursor yields an empty
// page.
func paginate[T any](items []T, id func(T) string, page v1.Page) ([]T, v1.Pagination) {
	limit := constraints.ClampLimit(page.Limit)
	indexOf := func(cursor string) int {
		return slices.IndexFunc(items, func(it T) bool { return id(it) == cursor })
	}

	start, end := 0, len(items)
	switch {
	case page.AfterID != "":
		i := indexOf(page.AfterID)
		if i < 0 {
			return []T{}, v1.Pagination{}
		}
		start = i + 1
		end = min(start+limit, len(items))
	case page.BeforeID != "":
		i := indexOf(page.BeforeID)
		if i < 0 {
			return []T{}, v1.Pagination{}
		}
		end = i
		start = max(0, end-limit)
	default:
		end = min(limit, len(items))
	}

	out := slices.Clone(items[start:end])
	if out == nil {
		out = []T{}
	}
	p := v1.Pagination{}
	if page.BeforeID != "" {
		p.HasMore = start > 0
	} else {
		p.HasMore = end < len(items)
	}
	if len(out) > 0 {
		p.FirstID = id(out[0])
		p.LastID = id(out[len(out)-1])
	}
	return out, p
}
