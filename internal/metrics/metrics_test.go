package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareLabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := NewCollector(prometheus.NewRegistry())

	r := gin.New()
	r.Use(c.Middleware())
	r.GET("/api/appointments/:id", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	for _, path := range []string{"/api/appointments/a", "/api/appointments/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.RequestsTotal.WithLabelValues("GET", "/api/appointments/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
