package v1

// ErrorResponse is the payload the API returns alongside any non-2xx status.
type ErrorResponse struct {
	Message   *string `json:"message"`
	Detail    any     `json:"detail,omitempty"`
	ErrorCode *string `json:"error_code"`
	TraceID   *string `json:"trace_id,omitempty"`
}

// Code returns the machine-readable error code or "" when absent.
func (e *ErrorResponse) Code() string {
	if e == nil || e.ErrorCode == nil {
		return ""
	}
	return *e.ErrorCode
}

// Text returns the human-readable message or "" when absent.
func (e *ErrorResponse) Text() string {
	if e == nil || e.Message == nil {
		return ""
	}
	return *e.Message
}

type Pagination struct {
	HasMore bool   `json:"has_more"`
	FirstID string `json:"first_id"`
	LastID  string `json:"last_id"`
}

// Page holds the cursor parameters shared by list endpoints.
type Page struct {
	Limit    int    `form:"limit"`
	AfterID  string `form:"after_id"`
	BeforeID string `form:"before_id"`
}
