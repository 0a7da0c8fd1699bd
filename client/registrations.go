package client

import (
	"context"
	"net/http"
	"net/url"

	v1 "auditorium/pkg/api/v1"
)

type RegistrationService struct {
	client *Client
}

// Register books a seat for the current user.
func (s *RegistrationService) Register(ctx context.Context, conferenceID string) error {
	req := v1.RegisterConferenceRequest{ConferenceID: conferenceID}
	if err := validateRequest(req); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodPost, "/registrations", nil, req, nil)
}

func (s *RegistrationService) ListUsers(ctx context.Context, conferenceID string, page v1.Page) (*v1.GetRegisteredUsersResponse, error) {
	if err := requireID("conference_id", conferenceID); err != nil {
		return nil, err
	}
	var res v1.GetRegisteredUsersResponse
	path := "/registrations/conferences/" + url.PathEscape(conferenceID)
	if err := s.client.do(ctx, http.MethodGet, path, pageValues(page), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *RegistrationService) ListConferences(ctx context.Context, userID string, q v1.RegisteredConferencesQuery) (*v1.GetRegisteredConferencesResponse, error) {
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}
	values := pageValues(q.Page)
	if q.IncludePast {
		values.Set("include_past", "true")
	}
	var res v1.GetRegisteredConferencesResponse
	path := "/registrations/users/" + url.PathEscape(userID)
	if err := s.client.do(ctx, http.MethodGet, path, values, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
