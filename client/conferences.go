package client

import (
	"context"
	"net/http"
	"net/url"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/constraints"
)

type ConferenceService struct {
	client *Client
}

func (s *ConferenceService) Create(ctx context.Context, req v1.CreateConferenceRequest) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}
	var res v1.CreateConferenceResponse
	if err := s.client.do(ctx, http.MethodPost, "/conferences", nil, req, &res); err != nil {
		return "", err
	}
	return res.Conference.ID, nil
}

// List returns one page of conferences. Limit is clamped to [1, 20].
func (s *ConferenceService) List(ctx context.Context, q v1.ConferenceQuery) (*v1.GetConferencesResponse, error) {
	var res v1.GetConferencesResponse
	if err := s.client.do(ctx, http.MethodGet, "/conferences", conferenceValues(q), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ConferenceService) Get(ctx context.Context, id string) (*v1.Conference, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	var res v1.GetConferenceResponse
	if err := s.client.do(ctx, http.MethodGet, conferencePath(id), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res.Conference, nil
}

func (s *ConferenceService) Update(ctx context.Context, id string, req v1.UpdateConferenceRequest) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodPatch, conferencePath(id), nil, req, nil)
}

func (s *ConferenceService) Delete(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodDelete, conferencePath(id), nil, nil, nil)
}

// UpdateStatus approves or rejects a conference. Admin only.
func (s *ConferenceService) UpdateStatus(ctx context.Context, id string, status constraints.ConferenceStatus) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	req := v1.UpdateConferenceStatusRequest{Status: status}
	if err := validateRequest(req); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodPatch, conferencePath(id)+"/status", nil, req, nil)
}

func conferencePath(id string) string {
	return "/conferences/" + url.PathEscape(id)
}
