package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
)

// ErrorDetail is the error body of every failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse wraps ErrorDetail with the request id.
type ErrorResponse struct {
	RequestID string       `json:"request_id"`
	Error     *ErrorDetail `json:"error"`
}

// handleError maps SchemaError to 422 and everything else to 500.
func (s *Server) handleError(c *gin.Context, err error) {
	var schemaErr *errors.SchemaError
	if errors.As(err, &schemaErr) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{
			RequestID: requestID(c),
			Error: &ErrorDetail{
				Code:    log.ErrorSchema,
				Message: schemaErr.Reason,
				Field:   schemaErr.Field,
			},
		})
		return
	}

	s.logger.Error("request error", err,
		log.RequestIDKey, requestID(c),
		log.ErrorCodeKey, "INTERNAL",
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		RequestID: requestID(c),
		Error: &ErrorDetail{
			Code:    "INTERNAL",
			Message: "internal server error",
		},
	})
}
