package responses

// SuccessEnvelope wraps every 2xx body with content.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the machine-readable part of a failed response. Details carry
// per-field validation messages or the conflicting state, never internals.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
