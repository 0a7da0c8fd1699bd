package client

import (
	"net/url"
	"strconv"
	"time"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/constraints"
)

func pageValues(p v1.Page) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(constraints.ClampLimit(p.Limit)))
	if p.AfterID != "" {
		q.Set("after_id", p.AfterID)
	}
	if p.BeforeID != "" {
		q.Set("before_id", p.BeforeID)
	}
	return q
}

func conferenceValues(cq v1.ConferenceQuery) url.Values {
	q := pageValues(cq.Page)
	setIf(q, "host_id", cq.HostID)
	setIf(q, "status", string(cq.Status))
	setIf(q, "order_by", cq.OrderBy)
	setIf(q, "order", cq.Order)
	setIf(q, "title", cq.Title)
	if cq.StartsBefore != nil {
		q.Set("starts_before", cq.StartsBefore.UTC().Format(time.RFC3339))
	}
	if cq.StartsAfter != nil {
		q.Set("starts_after", cq.StartsAfter.UTC().Format(time.RFC3339))
	}
	if cq.IncludePast {
		q.Set("include_past", "true")
	}
	return q
}

func setIf(q url.Values, key, val string) {
	if val != "" {
		q.Set(key, val)
	}
}
