package v1

type RegisteredUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RegisterConferenceRequest struct {
	ConferenceID string `json:"conference_id" binding:"required"`
}

type RegisteredConferencesQuery struct {
	Page
	IncludePast bool `form:"include_past"`
}

type GetRegisteredUsersResponse struct {
	Users      []RegisteredUser `json:"users"`
	Pagination Pagination       `json:"pagination"`
}

type GetRegisteredConferencesResponse struct {
	Conferences []Conference `json:"conferences"`
	Pagination  Pagination   `json:"pagination"`
}
