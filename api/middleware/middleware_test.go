package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yourusername/vidgrab-go/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(0.001, 2))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/x").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/x").Code)

	w := serve(router, http.MethodGet, "/x")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(0, 0))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/x").Code)
	}
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.POST("/api/info", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, http.MethodOptions, "/api/info")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(router, http.MethodPost, "/api/info")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestRecovery(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	adapter := logger.NewSingleLoggerAdapter(zap.New(core))

	router := gin.New()
	router.Use(Logger(adapter), Recovery(adapter))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(router, http.MethodGet, "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())

	assert.Equal(t, 1, observed.FilterMessage("Panic recovered").Len())
	assert.Equal(t, 1, observed.FilterMessage("HTTP request").Len())
	assert.Equal(t, 1, observed.FilterMessage("HTTP error response").Len())
}
