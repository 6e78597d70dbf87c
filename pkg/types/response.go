package types

// SuccessEnvelope wraps every 2xx body: {"data": ..., "message": "..."}.
// Data is always present so list endpoints answer [] rather than omitting it.
type SuccessEnvelope struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// APIError is the error half of the envelope. Details is only populated for
// codes whose metadata allows it (validation field errors, conflicts).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// FieldErrors maps a JSON field name to its validation messages.
type FieldErrors map[string][]string

// Add appends msg to field, creating the entry on first use.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f FieldErrors) Empty() bool { return len(f) == 0 }

func NewErrorEnvelope(code, message string, details any) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Code: code, Message: message, Details: details}}
}
