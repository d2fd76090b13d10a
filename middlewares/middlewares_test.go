package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pantrytrack/config"
	"pantrytrack/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const secret = "mw-secret"

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/who", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetUint("userID"), "email": c.GetString("email")})
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newEngine(AuthMiddleware(secret))
	tok, err := utils.GenerateJWT(42, "ada@example.com", secret, time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateJWT(42, "ada@example.com", secret, -time.Minute)
	require.NoError(t, err)
	foreign, err := utils.GenerateJWT(42, "ada@example.com", "other-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":42,"email":"ada@example.com"}`, w.Body.String())

	for name, header := range map[string]string{
		"missing": "",
		"scheme":  "Token " + tok,
		"expired": "Bearer " + expired,
		"foreign": "Bearer " + foreign,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
		})
	}
}

func TestWSAuthMiddleware(t *testing.T) {
	r := newEngine(WSAuthMiddleware(secret))
	tok, err := utils.GenerateJWT(7, "", secret, time.Hour)
	require.NoError(t, err)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/who?token="+tok, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/who", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/who?token=nope", nil)).Code)
}

func TestCORSMiddleware(t *testing.T) {
	r := newEngine(CORSMiddleware([]string{"https://app.example"}))

	req := httptest.NewRequest(http.MethodOptions, "/who", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	open := newEngine(CORSMiddleware(nil))
	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Origin", "https://anything.example")
	assert.Equal(t, "*", serve(open, req).Header().Get("Access-Control-Allow-Origin"))
}

func TestDataSource(t *testing.T) {
	r := newEngine(DataSource(config.SourceDemo))
	w := serve(r, httptest.NewRequest(http.MethodGet, "/who", nil))
	assert.Equal(t, "demo", w.Header().Get(DataSourceHeader))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newEngine(RequestLogger(zap.New(core)))

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := serve(r, req)
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.EqualValues(t, 500, entries[1].ContextMap()["status"])
}
