package client

import (
	"context"
	"net/http"
	"net/url"

	v1 "auditorium/pkg/api/v1"
)

type UserService struct {
	client *Client
}

// Me loads the user the stored access token belongs to.
func (s *UserService) Me(ctx context.Context) (*v1.User, error) {
	var res v1.GetUserResponse
	if err := s.client.do(ctx, http.MethodGet, "/users/me", nil, nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, req v1.UpdateUserProfileRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodPatch, "/users/me", nil, req, nil)
}

func (s *UserService) Get(ctx context.Context, id string) (*v1.UserMinimal, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	var res v1.GetUserMinimalResponse
	if err := s.client.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Create adds a user on behalf of an admin and returns its id.
func (s *UserService) Create(ctx context.Context, req v1.CreateUserRequest) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}
	var res v1.CreateUserResponse
	if err := s.client.do(ctx, http.MethodPost, "/users", nil, req, &res); err != nil {
		return "", err
	}
	return res.User.ID, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, nil)
}
