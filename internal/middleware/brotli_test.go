package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

func TestBrotli(t *testing.T) {
	long := strings.Repeat("candidate ", 400)

	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{Skipper: SkipPrefixes("/metrics")}))
	r.GET("/long", func(c *gin.Context) { c.String(http.StatusOK, long) })
	r.GET("/short", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, long) })

	tests := []struct {
		path       string
		accept     string
		wantBrotli bool
		wantBody   string
	}{
		{"/long", "gzip, br", true, long},
		{"/long", "gzip", false, long},
		{"/short", "br", false, "ok"},
		{"/metrics", "br", false, long},
	}

	for _, tt := range tests {
		t.Run(tt.path+" "+tt.accept, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept-Encoding", tt.accept)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			gotBrotli := w.Header().Get("Content-Encoding") == "br"
			if gotBrotli != tt.wantBrotli {
				t.Fatalf("brotli = %v, want %v", gotBrotli, tt.wantBrotli)
			}

			var body io.Reader = w.Body
			if gotBrotli {
				body = brotli.NewReader(w.Body)
			}
			got, err := io.ReadAll(body)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}
			if string(got) != tt.wantBody {
				t.Errorf("body length = %d, want %d", len(got), len(tt.wantBody))
			}
		})
	}
}
