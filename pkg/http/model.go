package http

// Envelope wraps every API body. On failure Data holds a list of *AppError
// or ValidationError.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string         `json:"code,omitempty"`
	Field   string         `json:"field,omitempty"`
	Message string         `json:"message,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// Page is the payload of list endpoints.
type Page struct {
	Rows  any `json:"rows"`
	Total int `json:"total"`
}
