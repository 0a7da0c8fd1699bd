package service

import (
	"crypto/rand"
	"slices"
	"strings"
	"sync"
	"time"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/constraints"

	"github.com/oklog/ulid/v2"
)

type feedbackRecord struct {
	v1.Feedback
	ConferenceID string
}

// Catalog holds conferences, their registrations and feedback in memory.
// Ids are ULIDs so creation order and lexical order agree.
type Catalog struct {
	mu      sync.RWMutex
	now     func() time.Time
	entropy *ulid.MonotonicEntropy

	conferences   map[string]*v1.Conference
	registrations map[string][]string // conference id -> user ids in booking order
	attendees     map[string]map[string]struct{}
	feedbacks     map[string]*feedbackRecord
}

func NewCatalog(now func() time.Time) *Catalog {
	if now == nil {
		now = time.Now
	}
	return &Catalog{
		now:           now,
		entropy:       ulid.Monotonic(rand.Reader, 0),
		conferences:   make(map[string]*v1.Conference),
		registrations: make(map[string][]string),
		attendees:     make(map[string]map[string]struct{}),
		feedbacks:     make(map[string]*feedbackRecord),
	}
}

// newID must be called with mu held.
func (c *Catalog) newID() string {
	return ulid.MustNew(ulid.Timestamp(c.now()), c.entropy).String()
}

func (c *Catalog) CreateConference(op *OperatorInfo, req v1.CreateConferenceRequest) (string, error) {
	if !op.Is(constraints.RoleEventCoordinator, constraints.RoleAdmin) {
		return "", ErrForbidden
	}
	if !req.EndsAt.After(req.StartsAt) {
		return "", ErrInvalidSchedule
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	conf := &v1.Conference{
		ID:             c.newID(),
		Title:          req.Title,
		Description:    req.Description,
		SpeakerName:    req.SpeakerName,
		SpeakerTitle:   req.SpeakerTitle,
		TargetAudience: req.TargetAudience,
		Prerequisites:  req.Prerequisites,
		Seats:          req.Seats,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		Host:           v1.Host{ID: op.UserID, Name: op.Name},
		Status:         constraints.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	c.conferences[conf.ID] = conf
	return conf.ID, nil
}

func (c *Catalog) GetConference(id string) (v1.Conference, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conf, ok := c.conferences[id]
	if !ok {
		return v1.Conference{}, ErrConferenceNotFound
	}
	return c.view(conf), nil
}

// view must be called with mu held.
func (c *Catalog) view(conf *v1.Conference) v1.Conference {
	out := *conf
	taken := len(c.registrations[conf.ID])
	out.SeatsTaken = &taken
	return out
}

func (c *Catalog) ListConferences(q v1.ConferenceQuery) ([]v1.Conference, v1.Pagination) {
	c.mu.RLock()
	now := c.now()
	title := strings.ToLower(q.Title)
	items := make([]v1.Conference, 0, len(c.conferences))
	for _, conf := range c.conferences {
		switch {
		case q.Status != "" && conf.Status != q.Status,
			q.HostID != "" && conf.Host.ID != q.HostID,
			!q.IncludePast && conf.HasEnded(now),
			q.StartsBefore != nil && !conf.StartsAt.Before(*q.StartsBefore),
			q.StartsAfter != nil && !conf.StartsAt.After(*q.StartsAfter),
			title != "" && !strings.Contains(strings.ToLower(conf.Title), title):
			continue
		}
		items = append(items, c.view(conf))
	}
	c.mu.RUnlock()

	sortConferences(items, q.OrderBy, q.Order)
	return paginate(items, func(conf v1.Conference) string { return conf.ID }, q.Page)
}

func sortConferences(items []v1.Conference, orderBy, order string) {
	slices.SortFunc(items, func(a, b v1.Conference) int {
		var cmp int
		switch orderBy {
		case "starts_at":
			cmp = a.StartsAt.Compare(b.StartsAt)
		case "title":
			cmp = strings.Compare(a.Title, b.Title)
		}
		if cmp == 0 {
			cmp = strings.Compare(a.ID, b.ID)
		}
		if order == "desc" {
			return -cmp
		}
		return cmp
	})
}

func (c *Catalog) UpdateConference(op *OperatorInfo, id string, req v1.UpdateConferenceRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conf, ok := c.conferences[id]
	if !ok {
		return ErrConferenceNotFound
	}
	if conf.Host.ID != op.UserID && !op.Is(constraints.RoleAdmin) {
		return ErrForbidden
	}

	next := *conf
	setIf(&next.Title, req.Title)
	setIf(&next.Description, req.Description)
	setIf(&next.SpeakerName, req.SpeakerName)
	setIf(&next.SpeakerTitle, req.SpeakerTitle)
	setIf(&next.TargetAudience, req.TargetAudience)
	setIf(&next.Seats, req.Seats)
	setIf(&next.StartsAt, req.StartsAt)
	setIf(&next.EndsAt, req.EndsAt)
	if req.Prerequisites != nil {
		next.Prerequisites = req.Prerequisites
	}
	if !next.EndsAt.After(next.StartsAt) {
		return ErrInvalidSchedule
	}
	next.UpdatedAt = c.now()
	*conf = next
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (c *Catalog) DeleteConference(op *OperatorInfo, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conf, ok := c.conferences[id]
	if !ok {
		return ErrConferenceNotFound
	}
	if conf.Host.ID != op.UserID && !op.Is(constraints.RoleAdmin) {
		return ErrForbidden
	}
	delete(c.conferences, id)
	delete(c.registrations, id)
	delete(c.attendees, id)
	for fid, fb := range c.feedbacks {
		if fb.ConferenceID == id {
			delete(c.feedbacks, fid)
		}
	}
	return nil
}

func (c *Catalog) UpdateStatus(op *OperatorInfo, id string, status constraints.ConferenceStatus) error {
	if !op.Is(constraints.RoleAdmin) {
		return ErrForbidden
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	conf, ok := c.conferences[id]
	if !ok {
		return ErrConferenceNotFound
	}
	conf.Status = status
	conf.UpdatedAt = c.now()
	return nil
}

// Register books a seat on an approved conference that has not ended.
func (c *Catalog) Register(op *OperatorInfo, conferenceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conf, ok := c.conferences[conferenceID]
	if !ok {
		return ErrConferenceNotFound
	}
	if conf.Status != constraints.StatusApproved || conf.HasEnded(c.now()) {
		return ErrConferenceClosed
	}
	if _, dup := c.attendees[conferenceID][op.UserID]; dup {
		return ErrAlreadyRegistered
	}
	if len(c.registrations[conferenceID]) >= conf.Seats {
		return ErrConferenceFull
	}
	if c.attendees[conferenceID] == nil {
		c.attendees[conferenceID] = make(map[string]struct{})
	}
	c.attendees[conferenceID][op.UserID] = struct{}{}
	c.registrations[conferenceID] = append(c.registrations[conferenceID], op.UserID)
	return nil
}

// RegisteredUsers lists attendees in booking order. Host and admins only.
func (c *Catalog) RegisteredUsers(op *OperatorInfo, conferenceID string, users *Directory, page v1.Page) ([]v1.RegisteredUser, v1.Pagination, error) {
	c.mu.RLock()
	conf, ok := c.conferences[conferenceID]
	if !ok {
		c.mu.RUnlock()
		return nil, v1.Pagination{}, ErrConferenceNotFound
	}
	if conf.Host.ID != op.UserID && !op.Is(constraints.RoleAdmin) {
		c.mu.RUnlock()
		return nil, v1.Pagination{}, ErrForbidden
	}
	ids := slices.Clone(c.registrations[conferenceID])
	c.mu.RUnlock()

	items := make([]v1.RegisteredUser, 0, len(ids))
	for _, id := range ids {
		u, err := users.Get(id)
		if err != nil {
			continue
		}
		items = append(items, v1.RegisteredUser{ID: u.ID, Name: u.Name})
	}
	list, p := paginate(items, func(u v1.RegisteredUser) string { return u.ID }, page)
	return list, p, nil
}

// RegisteredConferences lists what userID booked. Self and admins only.
func (c *Catalog) RegisteredConferences(op *OperatorInfo, userID string, q v1.RegisteredConferencesQuery) ([]v1.Conference, v1.Pagination, error) {
	if op.UserID != userID && !op.Is(constraints.RoleAdmin) {
		return nil, v1.Pagination{}, ErrForbidden
	}
	c.mu.RLock()
	now := c.now()
	var items []v1.Conference
	for id, set := range c.attendees {
		if _, ok := set[userID]; !ok {
			continue
		}
		conf := c.conferences[id]
		if !q.IncludePast && conf.HasEnded(now) {
			continue
		}
		items = append(items, c.view(conf))
	}
	c.mu.RUnlock()

	sortConferences(items, "", "")
	list, p := paginate(items, func(conf v1.Conference) string { return conf.ID }, q.Page)
	return list, p, nil
}

// CreateFeedback accepts comments from attendees only.
func (c *Catalog) CreateFeedback(op *OperatorInfo, req v1.CreateFeedbackRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conf, ok := c.conferences[req.ConferenceID]
	if !ok {
		return "", ErrConferenceNotFound
	}
	if _, attended := c.attendees[req.ConferenceID][op.UserID]; !attended {
		return "", ErrNotRegistered
	}
	title := conf.Title
	fb := &feedbackRecord{
		Feedback: v1.Feedback{
			ID:              c.newID(),
			Comment:         req.Comment,
			CreatedAt:       c.now(),
			User:            v1.FeedbackAuthor{ID: op.UserID, Name: op.Name},
			ConferenceTitle: &title,
		},
		ConferenceID: req.ConferenceID,
	}
	c.feedbacks[fb.ID] = fb
	return fb.ID, nil
}

func (c *Catalog) Feedbacks(conferenceID string, page v1.Page) ([]v1.Feedback, v1.Pagination, error) {
	c.mu.RLock()
	if _, ok := c.conferences[conferenceID]; !ok {
		c.mu.RUnlock()
		return nil, v1.Pagination{}, ErrConferenceNotFound
	}
	var items []v1.Feedback
	for _, fb := range c.feedbacks {
		if fb.ConferenceID == conferenceID {
			items = append(items, fb.Feedback)
		}
	}
	c.mu.RUnlock()

	slices.SortFunc(items, func(a, b v1.Feedback) int { return strings.Compare(a.ID, b.ID) })
	list, p := paginate(items, func(fb v1.Feedback) string { return fb.ID }, page)
	return list, p, nil
}

// DeleteFeedback is allowed to the author and admins.
func (c *Catalog) DeleteFeedback(op *OperatorInfo, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fb, ok := c.feedbacks[id]
	if !ok {
		return ErrFeedbackNotFound
	}
	if fb.User.ID != op.UserID && !op.Is(constraints.RoleAdmin) {
		return ErrForbidden
	}
	delete(c.feedbacks, id)
	return nil
}

// ForgetUser drops a deleted user's bookings. Their conferences and
// feedback stay.
func (c *Catalog) ForgetUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for confID, set := range c.attendees {
		if _, ok := set[userID]; !ok {
			continue
		}
		delete(set, userID)
		c.registrations[confID] = slices.DeleteFunc(c.registrations[confID], func(id string) bool {
			return id == userID
		})
	}
}
