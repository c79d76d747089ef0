package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/devops-offer/offer/internal/auth"
	"github.com/devops-offer/offer/internal/config"
	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/database/answers"
	"github.com/devops-offer/offer/internal/database/categories"
	"github.com/devops-offer/offer/internal/database/dbtest"
	"github.com/devops-offer/offer/internal/database/favorites"
	"github.com/devops-offer/offer/internal/database/questions"
	"github.com/devops-offer/offer/internal/database/tokens"
	"github.com/devops-offer/offer/internal/database/users"
	"github.com/devops-offer/offer/internal/entities"
	"github.com/devops-offer/offer/internal/listing"
	"github.com/devops-offer/offer/internal/mail"
	"github.com/devops-offer/offer/internal/sessions"
)

const testPassword = "Str0ng!Pass"

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// testApp is the full router over a temporary sqlite database. Templates
// are not loaded, so UI pages answer with their data as JSON.
type testApp struct {
	router     *gin.Engine
	db         *database.Database
	strategy   *auth.JWTStrategy
	users      *users.Repository
	categories *categories.Repository
	questions  *questions.Repository
	answers    *answers.Repository
	favorites  *favorites.Repository
	mailer     *recordingMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := dbtest.Open(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	authCfg := config.Auth{
		TokenLifetime:      time.Hour,
		CookieName:         "auth",
		BcryptCost:         4,
		ResetTokenLifetime: time.Hour,
		SessionLifetime:    time.Hour,
	}

	app := &testApp{
		db:         db,
		users:      users.NewRepository(db.DB),
		categories: categories.NewRepository(db.DB),
		questions:  questions.NewRepository(db.DB),
		answers:    answers.NewRepository(db.DB),
		favorites:  favorites.NewRepository(db.DB),
		mailer:     &recordingMailer{},
	}
	tokenRepo := tokens.NewRepository(db.DB)
	app.strategy = auth.NewJWTStrategy("test-secret", authCfg.TokenLifetime, tokenRepo)

	sm, err := sessions.New(db, authCfg)
	require.NoError(t, err)

	app.router = NewRouter(RouterConfig{
		Database:    db,
		Listing:     listing.NewService(app.categories, app.questions, app.answers, app.favorites),
		Categories:  app.categories,
		Questions:   app.questions,
		Answers:     app.answers,
		Favorites:   app.favorites,
		Users:       app.users,
		AuthService: auth.NewService(app.users, tokenRepo, app.mailer, authCfg, "http://offer.test", log),
		Strategy:    app.strategy,
		CookieName:  authCfg.CookieName,
		CSRF:        auth.NewCSRFProtector([]byte("0123456789abcdef0123456789abcdef"), false),
		RateLimiter: auth.NewRateLimiter(auth.DefaultRateLimitConfig()),
		Sessions:    sm,
		Version:     "test",
		Log:         log,
	})
	return app
}

func (a *testApp) createUser(t *testing.T, username string, superuser bool) *entities.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword, 4)
	require.NoError(t, err)
	user := &entities.User{Username: username, Email: username + "@example.com", HashedPassword: hash, IsActive: true}
	require.NoError(t, a.users.Create(context.Background(), user))
	if superuser {
		user.IsSuperuser = true
		require.NoError(t, a.users.Save(context.Background(), user))
	}
	return user
}

func (a *testApp) token(t *testing.T, user *entities.User) string {
	t.Helper()
	token, _, err := a.strategy.WriteToken(user)
	require.NoError(t, err)
	return token
}

func (a *testApp) seedCategory(t *testing.T, name string) *entities.Category {
	t.Helper()
	category, err := a.categories.Create(context.Background(), name, "")
	require.NoError(t, err)
	return category
}

func (a *testApp) seedQuestion(t *testing.T, title string, categoryID uint) *entities.Question {
	t.Helper()
	question, err := a.questions.Create(context.Background(), title, categoryID)
	require.NoError(t, err)
	return question
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// api sends a JSON request with an optional bearer token.
func (a *testApp) api(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(req)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

// browser keeps cookies between UI requests.
type browser struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rr := b.app.do(req)
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rr
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.send(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.send(req)
}

// page fetches a UI page and decodes its JSON data.
func (b *browser) page(path string) map[string]any {
	b.t.Helper()
	rr := b.get(path)
	require.Equal(b.t, http.StatusOK, rr.Code, rr.Body.String())
	return decode(b.t, rr)
}

// login signs in through the HTML form, CSRF token included.
func (b *browser) login(username string) {
	b.t.Helper()
	csrf, _ := b.page("/login")["CSRFToken"].(string)
	require.NotEmpty(b.t, csrf)

	rr := b.post("/login", url.Values{
		"username":   {username},
		"password":   {testPassword},
		"csrf_token": {csrf},
	})
	require.Equal(b.t, http.StatusFound, rr.Code, rr.Body.String())
	require.Contains(b.t, b.cookies, "auth")
}
