package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/logger"
	"pocketledger/internal/middleware"
	"pocketledger/internal/services"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (uint, error) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return 0, apperrors.ErrUnauthorized
	}
	id, ok := userID.(uint)
	if !ok || id == 0 {
		return 0, apperrors.ErrUnauthorized
	}
	return id, nil
}

// parsePathID parses a uint path parameter.
// Returns ErrInvalidInput if the parameter is not a valid positive integer.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.InvalidField(param, "Invalid "+param)
	}
	return uint(id), nil
}

// parseQueryID parses an optional uint query parameter.
func parseQueryID(c *gin.Context, param string) (*uint, error) {
	raw := c.Query(param)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, apperrors.InvalidField(param, "Invalid "+param)
	}
	v := uint(id)
	return &v, nil
}

// bindingError converts a gin binding failure into INVALID_INPUT naming the
// first offending field where one is known.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.InvalidField(fe.Field(), fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag()))
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperrors.InvalidField(typeErr.Field, fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type))
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid request body")
}

// recordAudit writes a best-effort audit entry for the request.
func recordAudit(c *gin.Context, audit services.AuditServicer, userID uint, action, resource string, resourceID uint, changes map[string]interface{}) {
	if audit == nil {
		return
	}
	audit.Log(c.Request.Context(), userID, action, resource, resourceID, c.ClientIP(), changes)
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.FromContext(c.Request.Context()).Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, middleware.ErrorBody(appErr))
		return
	}

	logger.FromContext(c.Request.Context()).Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, middleware.ErrorBody(apperrors.ErrInternalServer))
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse is returned by deletes.
type MessageResponse struct {
	Message string `json:"message"`
}
