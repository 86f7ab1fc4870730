package api

// ErrorResponse is the envelope every failed request returns.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	// Response carries a human-readable fallback message for chat-style
	// endpoints whose frontends render it directly.
	Response string `json:"response,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
