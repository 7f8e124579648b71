// Package response holds the JSON envelope of the /api routes.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the envelope of every /api answer.
type Response struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo carries the machine-readable side of a failure.
type ErrorInfo struct {
	Code    string `json:"code"` // e.g. NOT_SIGNED_IN
	Details string `json:"details"`
}

// Success writes data with a success envelope.
func Success(c echo.Context, statusCode int, data any, message string) error {
	if message == "" {
		message = "Success"
	}

	return c.JSON(statusCode, Response{
		Success: true,
		Code:    statusCode,
		Message: message,
		Data:    data,
	})
}

// Error writes a failure envelope; an empty message falls back to the status text.
func Error(c echo.Context, statusCode int, errorCode, message, details string) error {
	if message == "" {
		message = http.StatusText(statusCode)
	}

	return c.JSON(statusCode, Response{
		Success: false,
		Code:    statusCode,
		Message: message,
		Error: &ErrorInfo{
			Code:    errorCode,
			Details: details,
		},
	})
}
