package lexiconapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// requestID propagates the caller's request id, or assigns one.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// cors allows browser front ends on other origins to read the API.
func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// observe logs each request and records its metrics under the route
// pattern, so path parameters do not explode label cardinality.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if s.metrics != nil {
			s.metrics.HTTPRequestsInFlight.Inc()
			defer s.metrics.HTTPRequestsInFlight.Dec()
		}
		c.Next()

		d := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), d)
		}
		s.log.Debug("request",
			logging.String("method", c.Request.Method),
			logging.String("route", route),
			logging.Int("status", status),
			logging.RequestID(c.GetString("request_id")),
			logging.Latency(d))
	}
}
