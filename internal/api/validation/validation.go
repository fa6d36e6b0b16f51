package validation

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Machine-readable validation codes.
const (
	CodeRequired = "REQUIRED"
	CodeTooLong  = "TOO_LONG"
	CodeInvalid  = "INVALID_VALUE"
	CodeFormat   = "INVALID_FORMAT"
)
