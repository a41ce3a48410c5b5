package models

// Envelope wraps every API response.
type Envelope[T any] struct {
	Success    bool        `json:"success"`
	Data       *T          `json:"data"`
	Error      *ErrorBody  `json:"error"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ErrorBody is the server-reported failure inside an Envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pagination describes a page of a list endpoint.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// Empty is the payload type for endpoints that return no data.
type Empty struct{}
