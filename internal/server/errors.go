package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	departmentdomain "github.com/smallbiznis/clientdir/internal/department/domain"
	legalentitydomain "github.com/smallbiznis/clientdir/internal/legalentity/domain"
	persondomain "github.com/smallbiznis/clientdir/internal/person/domain"
	"github.com/smallbiznis/clientdir/internal/schema"
	pkgdb "github.com/smallbiznis/clientdir/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
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

// ErrorHandlingMiddleware renders the last collected error once the
// handler chain finishes without writing a response.
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
	return &ValidationErrors{
		Errors: []ValidationError{
			{Field: "request", Code: "invalid_request", Message: "invalid request"},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	var schemaErr *schema.Error
	if errors.As(err, &schemaErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "schema_violation",
			Message: "schema violation",
			Errors: []ValidationError{
				{
					Field:   schemaErr.Field,
					Code:    "schema_violation",
					Message: schemaErr.Reason,
					Value:   schemaErr.Value,
				},
			},
		}
	}

	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case isValidationError(err):
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{Code: code, Message: "invalid value"},
			},
		}
	case errors.Is(err, departmentdomain.ErrDepthLimitExceeded):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "depth_limit_exceeded",
			Message: fmt.Sprintf("maximum department nesting level is %d", departmentdomain.MaxNestingLevel),
		}
	case isUniquenessError(err):
		return http.StatusConflict, errorPayload{
			Type:    "uniqueness_violation",
			Message: err.Error(),
		}
	case pkgdb.IsForeignKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "referential_integrity_violation",
			Message: "operation would leave a dangling reference",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, persondomain.ErrInvalidUID),
		errors.Is(err, persondomain.ErrInvalidName),
		errors.Is(err, persondomain.ErrInvalidSurname),
		errors.Is(err, persondomain.ErrInvalidPatronymic),
		errors.Is(err, persondomain.ErrInvalidStatus),
		errors.Is(err, persondomain.ErrInvalidClientType),
		errors.Is(err, persondomain.ErrInvalidGender):
		return true
	case errors.Is(err, legalentitydomain.ErrInvalidUID),
		errors.Is(err, legalentitydomain.ErrInvalidName),
		errors.Is(err, legalentitydomain.ErrInvalidINN),
		errors.Is(err, legalentitydomain.ErrInvalidKPP):
		return true
	case errors.Is(err, departmentdomain.ErrInvalidUID),
		errors.Is(err, departmentdomain.ErrInvalidName),
		errors.Is(err, departmentdomain.ErrInvalidParent):
		return true
	default:
		return false
	}
}

func isUniquenessError(err error) bool {
	switch {
	case errors.Is(err, persondomain.ErrPhoneNumberTaken),
		errors.Is(err, legalentitydomain.ErrINNTaken),
		errors.Is(err, departmentdomain.ErrNameTaken),
		errors.Is(err, departmentdomain.ErrMemberExists):
		return true
	default:
		return pkgdb.IsDuplicateKeyErr(err)
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, persondomain.ErrNotFound),
		errors.Is(err, legalentitydomain.ErrNotFound),
		errors.Is(err, legalentitydomain.ErrDepartmentNotFound),
		errors.Is(err, departmentdomain.ErrNotFound),
		errors.Is(err, departmentdomain.ErrParentNotFound),
		errors.Is(err, departmentdomain.ErrPersonNotFound),
		errors.Is(err, departmentdomain.ErrMemberNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog labels errors for the request log line.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "internal_error", payload.Type
	default:
		return payload.Type, payload.Type
	}
}
