package v1

import (
	"time"

	"auditorium/pkg/constraints"
)

type Host struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Conference struct {
	ID             string                       `json:"id"`
	Title          string                       `json:"title"`
	Description    string                       `json:"description"`
	SpeakerName    string                       `json:"speaker_name"`
	SpeakerTitle   string                       `json:"speaker_title"`
	TargetAudience string                       `json:"target_audience"`
	Prerequisites  *string                      `json:"prerequisites"`
	Seats          int                          `json:"seats"`
	StartsAt       time.Time                    `json:"starts_at"`
	EndsAt         time.Time                    `json:"ends_at"`
	Host           Host                         `json:"host"`
	Status         constraints.ConferenceStatus `json:"status"`
	CreatedAt      time.Time                    `json:"created_at"`
	UpdatedAt      time.Time                    `json:"updated_at"`
	SeatsTaken     *int                         `json:"seats_taken"`
}

// HasEnded reports whether the conference finished before now.
func (c *Conference) HasEnded(now time.Time) bool {
	return c.EndsAt.Before(now)
}

type CreateConferenceRequest struct {
	Title          string    `json:"title" binding:"required,max=200"`
	Description    string    `json:"description" binding:"required"`
	SpeakerName    string    `json:"speaker_name" binding:"required"`
	SpeakerTitle   string    `json:"speaker_title" binding:"required"`
	TargetAudience string    `json:"target_audience" binding:"required"`
	Prerequisites  *string   `json:"prerequisites"`
	Seats          int       `json:"seats" binding:"required,gt=0"`
	StartsAt       time.Time `json:"starts_at" binding:"required"`
	EndsAt         time.Time `json:"ends_at" binding:"required,gtfield=StartsAt"`
}

type UpdateConferenceRequest struct {
	Title          *string    `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description    *string    `json:"description,omitempty"`
	SpeakerName    *string    `json:"speaker_name,omitempty"`
	SpeakerTitle   *string    `json:"speaker_title,omitempty"`
	TargetAudience *string    `json:"target_audience,omitempty"`
	Prerequisites  *string    `json:"prerequisites,omitempty"`
	Seats          *int       `json:"seats,omitempty" binding:"omitempty,gt=0"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	EndsAt         *time.Time `json:"ends_at,omitempty"`
}

type UpdateConferenceStatusRequest struct {
	Status constraints.ConferenceStatus `json:"status" binding:"required,oneof=pending approved rejected"`
}

type ConferenceQuery struct {
	Page
	HostID       string                       `form:"host_id"`
	Status       constraints.ConferenceStatus `form:"status"`
	StartsBefore *time.Time                   `form:"starts_before" time_format:"2006-01-02T15:04:05Z07:00"`
	StartsAfter  *time.Time                   `form:"starts_after" time_format:"2006-01-02T15:04:05Z07:00"`
	IncludePast  bool                         `form:"include_past"`
	OrderBy      string                       `form:"order_by"`
	Order        string                       `form:"order"`
	Title        string                       `form:"title"`
}

type CreateConferenceResponse struct {
	Conference struct {
		ID string `json:"id"`
	} `json:"conference"`
}

type GetConferenceResponse struct {
	Conference Conference `json:"conference"`
}

type GetConferencesResponse struct {
	Conferences []Conference `json:"conferences"`
	Pagination  Pagination   `json:"pagination"`
}
