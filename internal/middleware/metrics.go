package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency keyed by the route template,
// so patient ids never become label values. A panicking handler is counted
// as a 500 and the panic is re-raised for Recovery.
func Metrics(m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.InFlightGauge.Inc()
		defer m.InFlightGauge.Dec()

		start := time.Now()
		observe := func(status int) {
			path := c.FullPath()
			if path == "" {
				path = "unmatched"
			}
			code := strconv.Itoa(status)
			m.RequestsTotal.WithLabelValues(c.Request.Method, path, code).Inc()
			m.RequestDuration.WithLabelValues(c.Request.Method, path, code).Observe(time.Since(start).Seconds())
		}

		defer func() {
			if r := recover(); r != nil {
				observe(http.StatusInternalServerError)
				panic(r)
			}
		}()

		c.Next()
		observe(c.Writer.Status())
	}
}
