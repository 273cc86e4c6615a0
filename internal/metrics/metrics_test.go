package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareObservesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/v1/projects/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/projects/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(HTTPRequestDuration), 1)
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(RequestDecisions.WithLabelValues("approved"))
	RequestDecisions.WithLabelValues("approved").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RequestDecisions.WithLabelValues("approved")))
}
