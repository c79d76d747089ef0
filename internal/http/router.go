// Package http wires the JSON API and the HTML UI onto one gin engine.
// Routes under /api authenticate with bearer tokens; every other route uses
// the session cookie.
package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/auth"
	"github.com/devops-offer/offer/internal/listing"
	"github.com/devops-offer/offer/internal/logging"
	"github.com/devops-offer/offer/internal/sessions"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Data access
	Database   Pinger
	Listing    *listing.Service
	Categories CategoryStore
	Questions  QuestionStore
	Answers    AnswerStore
	Favorites  FavoriteStore

	// Authentication
	Users       auth.UserLookup
	AuthService *auth.Service
	Strategy    *auth.JWTStrategy
	CookieName  string
	CSRF        *auth.CSRFProtector
	RateLimiter *auth.RateLimiter

	// Browser session for view counting and flash messages
	Sessions *sessions.Manager

	// HTTP surface
	TemplatesPath      string
	StaticPath         string
	SecureCookies      bool
	CORSAllowedOrigins []string

	// Application info
	Version string

	Log logrus.FieldLogger
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logging.Discard()
	}

	router := gin.New()
	router.Use(logging.GinMiddleware(log))
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	registerAPI(router, cfg, log)
	registerUI(router, cfg, log)

	return router
}

func registerAPI(router *gin.Engine, cfg RouterConfig, log logrus.FieldLogger) {
	bearer := auth.NewMiddleware(auth.NewBearerBackend(cfg.Strategy), cfg.Users, log)

	api := router.Group("/api")
	if len(cfg.CORSAllowedOrigins) > 0 {
		api.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSAllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders: []string{"Content-Length", "Retry-After"},
			MaxAge:        12 * time.Hour,
		}))
	}
	api.Use(bearer.Handler())

	active := bearer.RequireActive()
	superuser := bearer.RequireSuperuser()

	accounts := NewAPIAuthController(cfg.AuthService, bearer.Backend(), cfg.RateLimiter, log)
	api.POST("/auth/register", accounts.Register)
	api.POST("/auth/jwt/login", cfg.RateLimiter.Middleware("username"), accounts.Login)
	api.POST("/auth/jwt/logout", active, accounts.Logout)
	api.POST("/auth/forgot-password", accounts.ForgotPassword)
	api.POST("/auth/reset-password", accounts.ResetPassword)
	api.GET("/users/me", active, accounts.Me)
	api.PATCH("/users/me", active, accounts.UpdateMe)

	categories := NewCategoriesController(cfg.Categories, cfg.Listing, log)
	api.GET("/categories", categories.List)
	api.GET("/categories/:id", categories.Get)
	api.GET("/categories/:id/questions", categories.Questions)
	api.POST("/categories", superuser, categories.Create)
	api.PUT("/categories/:id", superuser, categories.Update)
	api.DELETE("/categories/:id", superuser, categories.Delete)

	questions := NewQuestionsController(cfg.Questions, cfg.Listing, log)
	api.GET("/questions", questions.List)
	api.GET("/questions/:id", questions.Get)
	api.POST("/questions", superuser, questions.Create)
	api.PUT("/questions/:id", superuser, questions.Update)
	api.DELETE("/questions/:id", superuser, questions.Delete)

	answers := NewAnswersController(cfg.Answers, cfg.Listing, log)
	api.GET("/answers", answers.List)
	api.GET("/answers/:id", answers.Get)
	api.POST("/answers", superuser, answers.Create)
	api.PUT("/answers/:id", superuser, answers.Update)
	api.DELETE("/answers/:id", superuser, answers.Delete)

	favorites := NewFavoritesController(cfg.Favorites, cfg.Listing, log)
	api.GET("/favorites", active, favorites.List)
	api.POST("/favorites", active, favorites.Add)
	api.DELETE("/favorites/:id", active, favorites.Remove)
}

func registerUI(router *gin.Engine, cfg RouterConfig, log logrus.FieldLogger) {
	cookie := auth.NewMiddleware(auth.NewCookieBackend(cfg.Strategy, cfg.CookieName, cfg.SecureCookies), cfg.Users, log)
	render := NewRenderer(cfg.TemplatesPath, log)

	site := router.Group("/", cfg.Sessions.Middleware(), cookie.Handler())

	authController := auth.NewAuthController(cfg.AuthService, cookie.Backend(), cfg.CSRF, cfg.RateLimiter, cfg.TemplatesPath, log)
	authController.RegisterRoutes(site)

	ui := NewUIController(cfg.Listing, cfg.Categories, cfg.Questions, cfg.Favorites, cfg.Sessions, cfg.AuthService, render, log)
	site.GET("/", ui.Home)
	site.GET("/categories/:ref", ui.Category)
	site.GET("/questions/:id", ui.Question)
	site.POST("/questions/:id/favorite", cookie.RequireActive(), ui.AddFavorite)

	profile := site.Group("/profile", cookie.RequireActive())
	profile.GET("", ui.Profile)
	profile.GET("/edit", ui.EditProfilePage)
	profile.POST("/edit", ui.EditProfile)
	profile.POST("/favorites/:id/delete", ui.DeleteFavorite)

	admin := NewAdminController(cfg.Listing, cfg.Categories, cfg.Questions, cfg.Answers, cfg.Sessions, render, log)
	admin.RegisterRoutes(site.Group("/admin", cookie.RequireSuperuser()))
}
