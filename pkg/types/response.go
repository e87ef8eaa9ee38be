package types

// APIError is the public error body; Details is present only for codes that allow it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Acknowledgement is the webhook success body.
type Acknowledgement struct {
	Received bool `json:"received"`
}

// SuccessFlag is the body of operations that only report success.
type SuccessFlag struct {
	Success bool `json:"success"`
}
