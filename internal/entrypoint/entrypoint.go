package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/auth"
	"github.com/devops-offer/offer/internal/cache"
	"github.com/devops-offer/offer/internal/config"
	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/database/answers"
	"github.com/devops-offer/offer/internal/database/categories"
	"github.com/devops-offer/offer/internal/database/favorites"
	"github.com/devops-offer/offer/internal/database/questions"
	"github.com/devops-offer/offer/internal/database/tokens"
	"github.com/devops-offer/offer/internal/database/users"
	http_controllers "github.com/devops-offer/offer/internal/http"
	"github.com/devops-offer/offer/internal/listing"
	"github.com/devops-offer/offer/internal/logging"
	"github.com/devops-offer/offer/internal/mail"
	"github.com/devops-offer/offer/internal/scheduler"
	"github.com/devops-offer/offer/internal/sessions"
	"github.com/devops-offer/offer/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App is the assembled server: the router plus everything that has to be
// stopped when it exits.
type App struct {
	Router *gin.Engine

	log        *logrus.Logger
	db         *database.Database
	redis      *redis.Client
	taskClient *tasks.Client
	maintainer *scheduler.MaintenanceScheduler
	cancel     context.CancelFunc
}

// New wires the application from cfg. Background workers are started
// immediately; call Shutdown to stop them.
func New(cfg *config.Config, version string, log *logrus.Logger) (*App, error) {
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{log: log, db: db, cancel: cancel}
	if err := app.wire(ctx, cfg, version); err != nil {
		app.Shutdown(context.Background())
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context, cfg *config.Config, version string) error {
	userRepo := users.NewRepository(a.db.DB)
	tokenRepo := tokens.NewRepository(a.db.DB)
	categoryRepo := categories.NewRepository(a.db.DB)
	questionRepo := questions.NewRepository(a.db.DB)
	answerRepo := answers.NewRepository(a.db.DB)
	favoriteRepo := favorites.NewRepository(a.db.DB)

	var revocations auth.RevocationStore = tokenRepo
	if cfg.Redis.URL != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.URL, a.log)
		if err != nil {
			return err
		}
		a.redis = rdb
		revocations = cache.NewRevocationStore(rdb)
		a.log.Info("Token revocations: redis")
	}

	sender, err := mail.NewSender(cfg.Mail, a.log)
	if err != nil {
		return err
	}

	// Mail goes through the task queue when it runs, directly otherwise.
	var queue tasks.Enqueuer
	if cfg.Tasks.Enabled {
		a.taskClient, err = tasks.NewClient(tasks.DatabasePath(a.db.Path), tasks.FromSettings(cfg.Tasks), a.log)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		a.taskClient.Register(
			tasks.NewSendMailQueue(sender),
			tasks.NewCleanupTokensQueue(tokenRepo, a.log),
		)
		a.taskClient.Start(ctx)
		queue = a.taskClient
	} else {
		a.log.Info("Task queue disabled, mail is sent inline")
	}
	mailer := tasks.NewQueuedMailer(queue, sender, a.log)

	tokenSecret, err := resolveTokenSecret(cfg.Auth, a.log)
	if err != nil {
		return err
	}
	csrfSecret := cfg.Auth.CSRFSecret
	if csrfSecret == "" {
		csrfSecret = tokenSecret
	}

	authService := auth.NewService(userRepo, tokenRepo, mailer, cfg.Auth, cfg.UI.BaseURL, a.log)
	strategy := auth.NewJWTStrategy(tokenSecret, cfg.Auth.TokenLifetime, revocations)
	rateLimiter := auth.NewRateLimiter(rateLimitConfig(cfg.Auth))

	a.maintainer = scheduler.NewMaintenanceScheduler(cfg.Cleanup.Schedule, queue, tokenRepo, rateLimiter, a.log)
	if err := a.maintainer.Start(ctx); err != nil {
		return err
	}

	sessionManager, err := sessions.New(a.db, cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	if n, err := userRepo.CountSuperusers(ctx); err == nil && n == 0 {
		a.log.Warn("No superuser found. Run 'createsuperuser' to create one.")
	}

	a.Router = http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:           a.db,
		Listing:            listing.NewService(categoryRepo, questionRepo, answerRepo, favoriteRepo),
		Categories:         categoryRepo,
		Questions:          questionRepo,
		Answers:            answerRepo,
		Favorites:          favoriteRepo,
		Users:              userRepo,
		AuthService:        authService,
		Strategy:           strategy,
		CookieName:         cfg.Auth.CookieName,
		CSRF:               auth.NewCSRFProtector([]byte(csrfSecret), cfg.Auth.SecureCookies),
		RateLimiter:        rateLimiter,
		Sessions:           sessionManager,
		TemplatesPath:      cfg.UI.TemplatesPath,
		StaticPath:         cfg.UI.StaticPath,
		SecureCookies:      cfg.Auth.SecureCookies,
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		Version:            version,
		Log:                a.log,
	})
	return nil
}

// resolveTokenSecret returns the configured signing secret or generates a
// throwaway one. Generated secrets invalidate every session on restart.
func resolveTokenSecret(cfg config.Auth, log logrus.FieldLogger) (string, error) {
	if cfg.TokenSecret != "" {
		return cfg.TokenSecret, nil
	}
	secret, err := auth.GenerateSecret()
	if err != nil {
		return "", fmt.Errorf("failed to generate token secret: %w", err)
	}
	log.Warn("Generated token secret (set AUTH_TOKEN_SECRET to persist sessions across restarts)")
	return secret, nil
}

func rateLimitConfig(cfg config.Auth) auth.RateLimitConfig {
	rl := auth.DefaultRateLimitConfig()
	if cfg.MaxLoginAttempts > 0 {
		rl.MaxAttempts = cfg.MaxLoginAttempts
	}
	if cfg.RateLimitWindow > 0 {
		rl.WindowDuration = cfg.RateLimitWindow
	}
	if cfg.LockoutDuration > 0 {
		rl.LockoutDuration = cfg.LockoutDuration
	}
	return rl
}

// Shutdown stops background work and closes connections. It is safe to
// call on a partially wired App.
func (a *App) Shutdown(ctx context.Context) {
	if a.maintainer != nil {
		a.maintainer.Stop()
	}
	if a.taskClient != nil {
		a.taskClient.Stop(ctx)
		if err := a.taskClient.Close(); err != nil {
			a.log.WithError(err).Error("Error closing task client")
		}
	}
	a.cancel()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Error("Error closing redis client")
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.WithError(err).Error("Error closing database")
	}
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// gracefully.
func Serve(router *gin.Engine, cfg *config.Config, log logrus.FieldLogger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	log.WithField("timeout", timeout).Info("Shutdown Server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("Server exiting")
	return nil
}

// Run builds the application and serves it. Startup failures are fatal.
func Run(cfg *config.Config, version string) {
	log := logging.New(cfg.Logging)
	log.WithField("version", version).Info("Starting DevOps offer")

	app, err := New(cfg, version, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to start")
	}

	if err := Serve(app.Router, cfg, log, app.Shutdown); err != nil {
		app.Shutdown(context.Background())
		log.WithError(err).Fatal("Server stopped")
	}
}
