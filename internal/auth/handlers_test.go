package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	*serviceFixture
	router   *gin.Engine
	strategy *JWTStrategy
	limiter  *RateLimiter
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	sf := newServiceFixture(t)
	f := &controllerFixture{
		serviceFixture: sf,
		strategy:       NewJWTStrategy("secret", time.Hour, sf.tokens),
		limiter:        NewRateLimiter(DefaultRateLimitConfig()),
	}

	backend := NewCookieBackend(f.strategy, "auth", false)
	mw := NewMiddleware(backend, sf.users, testLogger())
	controller := NewAuthController(sf.svc, backend, NewCSRFProtector(testCSRFSecret, false), f.limiter, "", testLogger())

	f.router = gin.New()
	controller.RegisterRoutes(f.router.Group("/", mw.Handler()))
	return f
}

func (f *controllerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func postForm(path string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// loginPage fetches the form and returns the CSRF cookie and token.
func (f *controllerFixture) loginPage(t *testing.T) (*http.Cookie, string) {
	t.Helper()
	rr := f.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	token, _ := body["CSRFToken"].(string)
	require.NotEmpty(t, token)

	cookie := findCookie(rr, CSRFCookieName)
	require.NotNil(t, cookie)
	return cookie, token
}

func TestAuthController_LoginWithCSRF(t *testing.T) {
	f := newControllerFixture(t)
	f.register(t, "alice", "alice@example.com")
	csrfCookie, token := f.loginPage(t)

	rr := f.do(postForm("/login", url.Values{
		"username":    {"alice"},
		"password":    {testPassword},
		CSRFFormField: {token},
		"next":        {"/categories/linux"},
	}, csrfCookie))
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/categories/linux", rr.Header().Get("Location"))

	authCookie := findCookie(rr, "auth")
	require.NotNil(t, authCookie)
	assert.True(t, authCookie.HttpOnly)
	assert.Equal(t, 3600, authCookie.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, authCookie.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(authCookie)
	rr = f.do(req)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/profile", rr.Header().Get("Location"))
}

func TestAuthController_CSRFCheckedBeforeCredentials(t *testing.T) {
	f := newControllerFixture(t)
	f.register(t, "alice", "alice@example.com")
	csrfCookie, _ := f.loginPage(t)

	tests := []struct {
		name     string
		password string
		token    string
	}{
		{"correct password, missing token", testPassword, ""},
		{"wrong password, missing token", "Wr0ng!Pass", ""},
		{"correct password, forged token", testPassword, "forged"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(postForm("/login", url.Values{
				"username":    {"alice"},
				"password":    {tt.password},
				CSRFFormField: {tt.token},
			}, csrfCookie))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), CSRFFormField)
			assert.NotContains(t, rr.Body.String(), "Invalid email or password")
			assert.Nil(t, findCookie(rr, "auth"))
		})
	}

	allowed, _ := f.limiter.Allow("192.0.2.1", "alice")
	assert.True(t, allowed)
}

func TestAuthController_BadCredentials(t *testing.T) {
	f := newControllerFixture(t)
	f.register(t, "alice", "alice@example.com")
	csrfCookie, token := f.loginPage(t)

	rr := f.do(postForm("/login", url.Values{
		"username":    {"alice"},
		"password":    {"Wr0ng!Pass"},
		CSRFFormField: {token},
	}, csrfCookie))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid email or password")
	assert.NotNil(t, findCookie(rr, CSRFCookieName), "a fresh token is issued with the form")
}

func TestAuthController_Logout(t *testing.T) {
	f := newControllerFixture(t)
	f.register(t, "alice", "alice@example.com")
	user, err := f.users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)

	token, _, err := f.strategy.WriteToken(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: token})
	rr := f.do(req)
	assert.Equal(t, http.StatusFound, rr.Code)

	cleared := findCookie(rr, "auth")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	_, err = f.strategy.ReadToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthController_Register(t *testing.T) {
	f := newControllerFixture(t)

	rr := f.do(postForm("/register", url.Values{
		"username":         {"alice"},
		"email":            {"alice@example.com"},
		"password":         {testPassword},
		"password_confirm": {testPassword},
	}))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/profile", rr.Header().Get("Location"))
	assert.NotNil(t, findCookie(rr, "auth"))

	rr = f.do(postForm("/register", url.Values{
		"username":         {"alice"},
		"email":            {"other@example.com"},
		"password":         {testPassword},
		"password_confirm": {testPassword},
	}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "username")
}

func TestAuthController_PasswordReset(t *testing.T) {
	f := newControllerFixture(t)
	f.register(t, "alice", "alice@example.com")

	rr := f.do(postForm("/forgot-password", url.Values{"email": {"alice@example.com"}}))
	require.Equal(t, http.StatusOK, rr.Code)
	token := tokenFromMail(t, f.mailer.last(t))

	form := url.Values{"token": {token}, "password": {"N3w!Secret"}, "password_confirm": {"N3w!Secret"}}
	rr = f.do(postForm("/reset-password", form))
	assert.Equal(t, http.StatusFound, rr.Code)

	rr = f.do(postForm("/reset-password", form))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "already been used")
}

func TestAuthController_Templates(t *testing.T) {
	sf := newServiceFixture(t)
	strategy := NewJWTStrategy("secret", time.Hour, sf.tokens)
	backend := NewCookieBackend(strategy, "auth", false)
	controller := NewAuthController(sf.svc, backend, NewCSRFProtector(testCSRFSecret, false), NewRateLimiter(DefaultRateLimitConfig()), "../../templates", testLogger())
	require.NotNil(t, controller.templates)

	router := gin.New()
	controller.RegisterRoutes(router)

	for path, want := range map[string]string{
		"/login":                 `name="csrf_token"`,
		"/register":              `name="password_confirm"`,
		"/forgot-password":       "Send reset link",
		"/reset-password?token=": `name="token"`,
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), want, path)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, postForm("/register", url.Values{"username": {"al"}, "email": {"bad"}}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `class="error"`)
}
