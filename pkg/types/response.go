package types

// RequestIDHeader carries the correlation id on requests and responses.
const RequestIDHeader = "X-Request-Id"

// SuccessEnvelope wraps every 2xx body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	// RequestID lets operators find the matching log lines.
	RequestID string `json:"requestId,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
