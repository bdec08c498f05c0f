package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/YuminosukeSato/edusynth/pkg/log"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDContextKey = "request_id"

// RequestID reuses a well-formed incoming X-Request-ID or assigns a new
// UUID, and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDContextKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// requestID returns the id assigned by RequestID.
func requestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}

// AccessLog writes one line per request.
func AccessLog(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []any{
			log.RequestIDKey, requestID(c),
			log.RouteKey, c.Request.Method + " " + route,
			log.StatusKey, c.Writer.Status(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		}
		if c.Writer.Status() >= 500 {
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request handled", fields...)
	}
}
