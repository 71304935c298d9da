package server

// ErrorType represents the severity level of a refresh error.
type ErrorType int

const (
	// ErrorTypeCritical indicates a fatal error that stops checks for a product.
	ErrorTypeCritical ErrorType = iota
	// ErrorTypeWarning indicates a non-fatal error; the product stays scheduled.
	ErrorTypeWarning
)

// Error represents a refresh error with a severity type and descriptive message.
// It implements the error interface for use with standard Go error handling.
type Error struct {
	Type    ErrorType `json:"error_type"`
	Message string    `json:"message"`
}

// Error returns the error message string, implementing the error interface.
func (e *Error) Error() string {
	return e.Message
}
