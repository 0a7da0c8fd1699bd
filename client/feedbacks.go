package client

import (
	"context"
	"net/http"
	"net/url"

	v1 "auditorium/pkg/api/v1"
)

type FeedbackService struct {
	client *Client
}

func (s *FeedbackService) Create(ctx context.Context, req v1.CreateFeedbackRequest) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}
	var res v1.CreateFeedbackResponse
	if err := s.client.do(ctx, http.MethodPost, "/feedbacks", nil, req, &res); err != nil {
		return "", err
	}
	return res.Feedback.ID, nil
}

func (s *FeedbackService) ListByConference(ctx context.Context, conferenceID string, page v1.Page) (*v1.GetFeedbacksResponse, error) {
	if err := requireID("conference_id", conferenceID); err != nil {
		return nil, err
	}
	var res v1.GetFeedbacksResponse
	path := "/feedbacks/conferences/" + url.PathEscape(conferenceID)
	if err := s.client.do(ctx, http.MethodGet, path, pageValues(page), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *FeedbackService) Delete(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodDelete, "/feedbacks/"+url.PathEscape(id), nil, nil, nil)
}
