package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
	"github.com/licensedesk/royalty/internal/ingest"
	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	reportdomain "github.com/licensedesk/royalty/internal/report/domain"
	ytddomain "github.com/licensedesk/royalty/internal/ytd/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isUnprocessableError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable_report",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, contractdomain.ErrInvalidID),
		errors.Is(err, contractdomain.ErrInvalidName),
		errors.Is(err, contractdomain.ErrInvalidRateType),
		errors.Is(err, contractdomain.ErrInvalidRate),
		errors.Is(err, contractdomain.ErrInvalidTiers),
		errors.Is(err, contractdomain.ErrMissingCategories),
		errors.Is(err, contractdomain.ErrInvalidGuarantee),
		errors.Is(err, contractdomain.ErrInvalidAdvance),
		errors.Is(err, contractdomain.ErrInvalidFrequency),
		errors.Is(err, contractdomain.ErrInvalidDateRange),
		errors.Is(err, mappingdomain.ErrInvalidContract),
		errors.Is(err, mappingdomain.ErrInvalidField),
		errors.Is(err, mappingdomain.ErrNoHeaders),
		errors.Is(err, perioddomain.ErrInvalidID),
		errors.Is(err, perioddomain.ErrInvalidContract),
		errors.Is(err, perioddomain.ErrInvalidPeriod),
		errors.Is(err, perioddomain.ErrInvalidDates),
		errors.Is(err, reportdomain.ErrInvalidContract),
		errors.Is(err, reportdomain.ErrInvalidDates),
		errors.Is(err, reportdomain.ErrInvalidReported),
		errors.Is(err, ytddomain.ErrInvalidContract),
		errors.Is(err, ytddomain.ErrInvalidYear):
		return true
	default:
		return false
	}
}

// isUnprocessableError covers reports that parse but cannot be calculated
// until the caller fixes the mapping or the data.
func isUnprocessableError(err error) bool {
	switch {
	case errors.Is(err, mappingdomain.ErrNetSalesUnresolved),
		errors.Is(err, reportdomain.ErrUnresolvedCategories),
		errors.Is(err, ingest.ErrNetSalesUnmapped),
		errors.Is(err, ingest.ErrCategoryUnmapped),
		errors.Is(err, ingest.ErrNoDataRows),
		errors.Is(err, ingest.ErrNegativeNetSales),
		errors.Is(err, ingest.ErrUnresolvedCategory):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, perioddomain.ErrOverlapConflict),
		errors.Is(err, contractdomain.ErrRateStructureFixed):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, contractdomain.ErrNotFound),
		errors.Is(err, perioddomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog labels request errors for the access log without
// leaking internals.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
