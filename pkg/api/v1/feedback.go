package v1

import "time"

type FeedbackAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Feedback struct {
	ID              string         `json:"id"`
	Comment         string         `json:"comment"`
	CreatedAt       time.Time      `json:"created_at"`
	User            FeedbackAuthor `json:"user"`
	ConferenceTitle *string        `json:"conference_title,omitempty"`
}

type CreateFeedbackRequest struct {
	ConferenceID string `json:"conference_id" binding:"required"`
	Comment      string `json:"comment" binding:"required,min=3,max=1000"`
}

type CreateFeedbackResponse struct {
	Feedback struct {
		ID string `json:"id"`
	} `json:"feedback"`
}

type GetFeedbacksResponse struct {
	Feedbacks  []Feedback `json:"feedbacks"`
	Pagination Pagination `json:"pagination"`
}
