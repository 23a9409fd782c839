package cache

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridewise/riskmeter/internal/monitoring"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)

	_, found := c.Get("missing")
	assert.False(t, found)

	c.Set("key", []byte("value"))
	data, found := c.Get("key")
	require.True(t, found)
	assert.Equal(t, []byte("value"), data)
	assert.Equal(t, 1, c.Size())
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)

	c.Set("key", []byte("value"))
	time.Sleep(20 * time.Millisecond)

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	c.Delete("a")
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Zero(t, c.Size())
}

func TestCacheStats(t *testing.T) {
	c := NewCache(30 * time.Second)
	c.Set("a", []byte("1"))

	stats := c.Stats()
	assert.Equal(t, 1, stats["total_items"])
	assert.Equal(t, 0, stats["expired_items"])
	assert.InDelta(t, 30.0, stats["ttl_seconds"], 1e-9)
}

func TestCacheKeyIsDeterministic(t *testing.T) {
	c := NewCache(time.Minute)

	assert.Equal(t, c.generateKey("body"), c.generateKey("body"))
	assert.NotEqual(t, c.generateKey("body"), c.generateKey("other"))
}

func TestMiddlewareServesCachedAssessment(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	var handlerCalls int64
	r := gin.New()
	r.Use(c.Middleware(metrics))
	r.POST("/assess", func(ctx *gin.Context) {
		atomic.AddInt64(&handlerCalls, 1)
		ctx.JSON(http.StatusOK, gin.H{"risk": 17.7})
	})

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/assess", strings.NewReader(`{"driver_id":"d1"}`))
		r.ServeHTTP(w, req)
		return w
	}

	first := post()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, int64(1), atomic.LoadInt64(&handlerCalls))

	// Identical body is served from cache without reaching the handler.
	second := post()
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, int64(1), atomic.LoadInt64(&handlerCalls))
	assert.Equal(t, first.Body.String(), second.Body.String())

	assert.Equal(t, int64(1), atomic.LoadInt64(&metrics.CacheHits))
	assert.Equal(t, int64(1), atomic.LoadInt64(&metrics.CacheMisses))
}

func TestMiddlewareDistinguishesBodies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	var handlerCalls int64
	r := gin.New()
	r.Use(c.Middleware(metrics))
	r.POST("/assess", func(ctx *gin.Context) {
		atomic.AddInt64(&handlerCalls, 1)
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for _, body := range []string{`{"driver_id":"a"}`, `{"driver_id":"b"}`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/assess", strings.NewReader(body))
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, int64(2), atomic.LoadInt64(&handlerCalls))
}

func TestMiddlewareSkipsUncacheablePaths(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	var handlerCalls int64
	r := gin.New()
	r.Use(c.Middleware(metrics))
	r.POST("/assess/batch", func(ctx *gin.Context) {
		atomic.AddInt64(&handlerCalls, 1)
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/assess/batch", strings.NewReader(`{}`))
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	// Batch requests bypass the cache entirely.
	assert.Equal(t, int64(2), atomic.LoadInt64(&handlerCalls))
	assert.Zero(t, atomic.LoadInt64(&metrics.CacheHits))
	assert.Zero(t, atomic.LoadInt64(&metrics.CacheMisses))
}

func TestMiddlewareDoesNotCacheErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	var handlerCalls int64
	r := gin.New()
	r.Use(c.Middleware(metrics))
	r.POST("/assess", func(ctx *gin.Context) {
		atomic.AddInt64(&handlerCalls, 1)
		ctx.JSON(http.StatusBadRequest, gin.H{"category": "validation"})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/assess", strings.NewReader(`{}`))
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
	}

	assert.Equal(t, int64(2), atomic.LoadInt64(&handlerCalls))
}
