package types

// ErrorEnvelope is the uniform error body returned by every handler.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// Message is the body for operations that only acknowledge completion.
type Message struct {
	Message string `json:"message"`
}
