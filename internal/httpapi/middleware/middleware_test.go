package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/calmchat/internal/auth"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRecoveryAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(RequestID(), Logger(log), Recovery(log))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	r.GET("/fine", func(c *gin.Context) { c.String(http.StatusOK, "fine") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom?session_id=secret", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":50000,"message":"internal server error"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	access := logs.FilterMessage("http request").All()
	require.Len(t, access, 1)
	assert.Equal(t, "/boom", access[0].ContextMap()["route"])
	assert.NotContains(t, access[0].ContextMap(), "query")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fine", nil)
	req.Header.Set(RequestIDHeader, "abc123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc123", w.Header().Get(RequestIDHeader))
}

func TestAuthRequired(t *testing.T) {
	const secret = "s"
	r := gin.New()
	r.GET("/admin", AuthRequired(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(SubjectKey))
	})

	call := func(header string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer nope").Code)

	other, err := auth.SignJWT([]byte(secret), "someone", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+other).Code)

	token, err := auth.SignJWT([]byte(secret), auth.AdminSubject, time.Hour)
	require.NoError(t, err)
	w := call("Bearer " + token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, auth.AdminSubject, w.Body.String())
}
