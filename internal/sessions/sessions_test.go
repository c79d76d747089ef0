package sessions

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devops-offer/offer/internal/config"
	"github.com/devops-offer/offer/internal/database/dbtest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, m *Manager) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/questions/:id", func(c *gin.Context) {
		first := m.MarkViewed(c.Request.Context(), 5)
		c.JSON(http.StatusOK, gin.H{"first": first})
	})
	return router
}

func TestManager_MarkViewedOncePerSession(t *testing.T) {
	db := dbtest.Open(t)
	m, err := New(db, config.Auth{SessionLifetime: time.Hour})
	require.NoError(t, err)
	router := newRouter(t, m)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/questions/5", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"first":true}`, rr.Body.String())

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie must be set")
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/questions/5", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.JSONEq(t, `{"first":false}`, rr.Body.String())

	// A different browser counts again.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/questions/5", nil))
	assert.JSONEq(t, `{"first":true}`, rr.Body.String())
}

func TestNew_MemoryStoreWithoutSQLite(t *testing.T) {
	m, err := New(nil, config.Auth{})
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, m.Lifetime)
	assert.Equal(t, http.SameSiteLaxMode, m.Cookie.SameSite)
}

func TestManager_FlashIsShownOnce(t *testing.T) {
	m, err := New(nil, config.Auth{})
	require.NoError(t, err)

	router := gin.New()
	router.Use(m.Middleware())
	router.POST("/save", func(c *gin.Context) {
		m.SetFlash(c.Request.Context(), "Saved.")
		c.Redirect(http.StatusSeeOther, "/show")
	})
	router.GET("/show", func(c *gin.Context) {
		c.String(http.StatusOK, m.PopFlash(c.Request.Context()))
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/save", nil))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)

	show := func() string {
		req := httptest.NewRequest(http.MethodGet, "/show", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Body.String()
	}
	assert.Equal(t, "Saved.", show())
	assert.Empty(t, show())
}
