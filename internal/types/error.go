package types

import (
	"fmt"
	"net/http"
)

// CustomError is an error carrying the HTTP status and error type rendered for it
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// Unauthorized builds a 401 CustomError
func Unauthorized(message, errorType string) *CustomError {
	return &CustomError{Code: http.StatusUnauthorized, Message: message, Type: errorType}
}
