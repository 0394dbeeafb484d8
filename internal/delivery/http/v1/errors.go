package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-lists/internal/services"
)

var (
	errInvalidRequestBody      = errors.New("invalid request body")
	errMandatoryCookieNotFound = errors.New("mandatory cookie not found")
	errInvalidOAuthState       = errors.New("invalid oauth state")
)

type apiError struct {
	Code    int                   `json:"code"`
	Message string                `json:"message"`
	Fields  []services.FieldError `json:"fields,omitempty"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	body := gin.H{"error": err.Message}
	if len(err.Fields) > 0 {
		body["fields"] = err.Fields
	}
	c.AbortWithStatusJSON(err.Code, body)
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

// newServiceError maps a service error onto the response. Access errors are
// reported as 404 so that non-members cannot tell a foreign resource from a
// missing one.
func newServiceError(err error) apiError {
	switch {
	case errors.Is(err, services.ErrAccess):
		return newAPIError(http.StatusNotFound, services.Message(err))
	case errors.Is(err, services.ErrPermissions):
		return newAPIError(http.StatusForbidden, services.Message(err))
	case errors.Is(err, services.ErrValidation):
		apiErr := newBadRequestError(services.Message(err))
		apiErr.Fields = services.Fields(err)
		return apiErr
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrUserPasswordMismatch),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrSessionExpired):
		return newUnauthorizedError(err.Error())
	case errors.Is(err, services.ErrUserAlreadyExists):
		return newConflictError(err.Error())
	case errors.Is(err, services.ErrGoogleSignInDisabled):
		return newAPIError(http.StatusNotImplemented, err.Error())
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}
