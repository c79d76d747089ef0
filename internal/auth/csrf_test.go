package auth

import (
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

func init() {
	gin.SetMode(gin.TestMode)
}

var testCSRFSecret = []byte("test-secret-key-32-bytes-long!!!")

func TestCSRFProtector_Verify(t *testing.T) {
	p := NewCSRFProtector(testCSRFSecret, false)
	token, err := p.Issue("10.0.0.1")
	require.NoError(t, err)

	assert.NoError(t, p.Verify(token, token, "10.0.0.1"))

	tests := []struct {
		name      string
		cookie    string
		submitted string
		addr      string
	}{
		{"missing cookie", "", token, "10.0.0.1"},
		{"missing field", token, "", "10.0.0.1"},
		{"mismatch", token, token + "x", "10.0.0.1"},
		{"other address", token, token, "10.0.0.2"},
		{"tampered", "abc", "abc", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, p.Verify(tt.cookie, tt.submitted, tt.addr), ErrCSRF)
		})
	}
}

func TestCSRFProtector_Expiry(t *testing.T) {
	p := NewCSRFProtector(testCSRFSecret, false)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return issued }

	token, err := p.Issue("10.0.0.1")
	require.NoError(t, err)

	p.now = func() time.Time { return issued.Add(59 * time.Minute) }
	assert.NoError(t, p.Verify(token, token, "10.0.0.1"))

	p.now = func() time.Time { return issued.Add(61 * time.Minute) }
	assert.ErrorIs(t, p.Verify(token, token, "10.0.0.1"), ErrCSRF)
}

func TestCSRFProtector_OtherSecret(t *testing.T) {
	token, err := NewCSRFProtector([]byte("another-secret-another-secret!!!"), false).Issue("10.0.0.1")
	require.NoError(t, err)

	p := NewCSRFProtector(testCSRFSecret, false)
	assert.ErrorIs(t, p.Verify(token, token, "10.0.0.1"), ErrCSRF)
}

func TestCSRFProtector_Request(t *testing.T) {
	p := NewCSRFProtector(testCSRFSecret, false)

	router := gin.New()
	router.GET("/form", func(c *gin.Context) {
		token, err := p.IssueCookie(c)
		require.NoError(t, err)
		c.String(http.StatusOK, token)
	})
	router.POST("/form", func(c *gin.Context) {
		if err := p.VerifyRequest(c); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CSRFCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	token := rr.Body.String()

	post := func(withCookie bool, field string) int {
		form := url.Values{CSRFFormField: {field}}
		req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if withCookie {
			req.AddCookie(cookies[0])
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, post(true, token))
	assert.Equal(t, http.StatusBadRequest, post(false, token))
	assert.Equal(t, http.StatusBadRequest, post(true, "forged"))
}
