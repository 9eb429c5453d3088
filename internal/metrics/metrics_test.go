package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/v1/candidates/:id/result", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	before := testutil.ToFloat64(RequestCounter.WithLabelValues(http.MethodGet, "/api/v1/candidates/:id/result", "404"))
	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/candidates/abc/result", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	got := testutil.ToFloat64(RequestCounter.WithLabelValues(http.MethodGet, "/api/v1/candidates/:id/result", "404"))
	if got-before != 3 {
		t.Fatalf("route counter delta = %v, want 3", got-before)
	}
	if testutil.ToFloat64(RequestCounter.WithLabelValues(http.MethodGet, "unmatched", "404")) < 1 {
		t.Fatal("unmatched route not counted")
	}
}

func TestRegisterAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	IntegrityEvents.WithLabelValues("focus-lost").Inc()
	n, err := testutil.GatherAndCount(reg, "assessment_integrity_events_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n < 1 {
		t.Fatalf("integrity series = %d", n)
	}
}
