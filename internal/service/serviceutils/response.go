package serviceutils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/school_management/internal/domain"
	"github.com/locvowork/school_management/internal/logger"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Message string            `json:"message"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ResponseError writes an ErrorResponse with the given status. Validation
// errors contribute their per-field messages.
func ResponseError(c echo.Context, status int, msg string, err error) error {
	resp := ErrorResponse{Message: msg}
	if err != nil {
		resp.Error = err.Error()

		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			resp.Fields = verr.Fields
		}
	}

	ctx := c.Request().Context()
	if status >= http.StatusInternalServerError {
		logger.ErrorLogErr(ctx, err, "%s", msg)
	} else {
		logger.DebugLog(ctx, "%s: %v", msg, err)
	}
	return c.JSON(status, resp)
}

// StatusFor maps an error kind to the HTTP status the API answers with.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindDuplicate, domain.KindMismatch:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ResponseKindError answers with the status matching err's kind.
func ResponseKindError(c echo.Context, msg string, err error) error {
	return ResponseError(c, StatusFor(domain.KindOf(err)), msg, err)
}
