package security

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSecurityConfig(t *testing.T) {
	config := DefaultSecurityConfig()

	assert.Equal(t, int64(10*1024*1024), config.MaxBodyBytes)
	assert.Contains(t, config.AllowedOrigins, "http://localhost:3000")
	assert.Contains(t, config.AllowedOrigins, "http://localhost:5173")
	assert.Equal(t, 30*time.Second, config.RequestTimeout)
}

func newTestRouter(sm *SecurityMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sm.SecurityHeaders)
	r.Use(sm.ValidateContentType)
	r.Use(sm.LimitBodySize)
	r.POST("/assess", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func TestSecurityHeaders(t *testing.T) {
	r := newTestRouter(NewSecurityMiddleware(DefaultSecurityConfig()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestValidateContentType(t *testing.T) {
	r := newTestRouter(NewSecurityMiddleware(DefaultSecurityConfig()))

	tests := []struct {
		name        string
		contentType string
		wantStatus  int
	}{
		{"json allowed", "application/json", http.StatusOK},
		{"json with charset allowed", "application/json; charset=utf-8", http.StatusOK},
		{"missing content type allowed", "", http.StatusOK},
		{"xml rejected", "application/xml", http.StatusUnsupportedMediaType},
		{"form rejected", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/assess", bytes.NewBufferString("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestLimitBodySize(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxBodyBytes = 64
	r := newTestRouter(NewSecurityMiddleware(config))

	small := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/assess", bytes.NewBufferString(`{"driver_id":"d1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(small, req)
	assert.Equal(t, http.StatusOK, small.Code)

	big := httptest.NewRecorder()
	body := bytes.Repeat([]byte("x"), 128)
	req = httptest.NewRequest("POST", "/assess", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(big, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, big.Code)
}
