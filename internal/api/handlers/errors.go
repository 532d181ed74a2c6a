// Package handlers contains the handlers for the API
package handlers

import (
	"net/http"

	"github.com/ebbb/adminapi/internal/service"
	"github.com/ebbb/adminapi/pkg/utils/response"
	"github.com/labstack/echo/v4"
)

// kindResponse writes the error envelope for a failed service result
func kindResponse(c echo.Context, kind service.ErrorKind, message string) error {
	switch kind {
	case service.KindInvalidCredentials, service.KindInvalidOrExpiredSession:
		return response.ErrorResponse(c, http.StatusUnauthorized, response.AuthenticationException, message)
	case service.KindUserNotFound:
		return response.ErrorResponse(c, http.StatusNotFound, response.NotFoundException, message)
	case service.KindConfiguration:
		return response.ErrorResponse(c, http.StatusServiceUnavailable, response.ConfigurationException, message)
	default:
		return response.ErrorResponse(c, http.StatusInternalServerError, response.ServerException, message)
	}
}

// bindAndValidate decodes the request into req and runs its validate tags
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}
