package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		headerID string
		wantNew  bool
	}{
		{"no header", "", true},
		{"valid id", "abc-123_DEF", false},
		{"log forging", "fake-id\nINJECTED", true},
		{"spaces", "id with spaces", true},
		{"too long", strings.Repeat("a", 129), true},
		{"max length", strings.Repeat("a", 128), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			r := gin.New()
			r.Use(RequestID())
			r.GET("/", func(ctx *gin.Context) {
				captured = GetRequestID(ctx)
				ctx.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.headerID != "" {
				req.Header[RequestIDHeader] = []string{tt.headerID}
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.NotEmpty(t, captured)
			assert.Equal(t, captured, rec.Header().Get(RequestIDHeader))
			if tt.wantNew {
				assert.NotEqual(t, tt.headerID, captured)
			} else {
				assert.Equal(t, tt.headerID, captured)
			}
		})
	}
}

func TestRateLimiter_PerClientBuckets(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001").Code)
	rec := do("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")

	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000").Code, "other clients have their own bucket")
}
