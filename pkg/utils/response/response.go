// Package response contains response utility functions and types
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Error types carried in the error_type field
const (
	InputException          = "InputException"
	AuthenticationException = "AuthenticationException"
	PermissionException     = "PermissionException"
	NotFoundException       = "NotFoundException"
	ServerException         = "ServerException"
	ConfigurationException  = "ConfigurationException"
)

// Response represents the standard API response structure
type Response struct {
	Status    string      `json:"status"`
	Data      interface{} `json:"data,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// SuccessResponse sends a successful JSON response
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Status: "success",
		Data:   data,
	})
}

// CreatedResponse sends a 201 JSON response
func CreatedResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Status: "success",
		Data:   data,
	})
}

// ErrorResponse sends an error JSON response
func ErrorResponse(c echo.Context, httpStatus int, errorType, message string) error {
	return c.JSON(httpStatus, Response{
		Status:    "error",
		ErrorType: errorType,
		Message:   message,
	})
}

// InputErrorResponse sends a 400 for a bind or validation error.
// Validation errors are reported as "`field` is <tag>" messages.
func InputErrorResponse(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrorResponse(c, http.StatusBadRequest, InputException, "Invalid request body")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("`%s` is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("`%s` must be a valid email", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("`%s` must be at least %s characters", fe.Field(), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("`%s` must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("`%s` is invalid", fe.Field()))
		}
	}
	return ErrorResponse(c, http.StatusBadRequest, InputException, strings.Join(msgs, ", "))
}
