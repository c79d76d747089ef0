package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/devops-offer/offer/internal/auth"
	"github.com/devops-offer/offer/internal/cache"
	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/database/answers"
	"github.com/devops-offer/offer/internal/database/categories"
	"github.com/devops-offer/offer/internal/database/favorites"
	"github.com/devops-offer/offer/internal/database/questions"
	"github.com/devops-offer/offer/internal/database/tokens"
	"github.com/devops-offer/offer/internal/database/users"
	"github.com/devops-offer/offer/internal/http"
	"github.com/devops-offer/offer/internal/listing"
	"github.com/devops-offer/offer/internal/mail"
	"github.com/devops-offer/offer/internal/scheduler"
	"github.com/devops-offer/offer/internal/sessions"
	"github.com/devops-offer/offer/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.CategoryStore = (*categories.Repository)(nil)
var _ http.QuestionStore = (*questions.Repository)(nil)
var _ http.AnswerStore = (*answers.Repository)(nil)
var _ http.FavoriteStore = (*favorites.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)

var _ listing.CategoryStore = (*categories.Repository)(nil)
var _ listing.QuestionStore = (*questions.Repository)(nil)
var _ listing.AnswerStore = (*answers.Repository)(nil)
var _ listing.FavoriteStore = (*favorites.Repository)(nil)

// =============================================================================
// Authentication
// =============================================================================

var _ auth.UserLookup = (*users.Repository)(nil)
var _ auth.UserStore = (*users.Repository)(nil)
var _ auth.ResetTokenStore = (*tokens.Repository)(nil)

// RevocationStore implementations
var _ auth.RevocationStore = (*tokens.Repository)(nil)
var _ auth.RevocationStore = (*cache.RevocationStore)(nil)

// Backend implementations
var _ auth.Backend = (*auth.BearerBackend)(nil)
var _ auth.Backend = (*auth.CookieBackend)(nil)

var _ http.BrowserSession = (*sessions.Manager)(nil)

// =============================================================================
// Mail and Background Work
// =============================================================================

// Sender implementations
var _ mail.Sender = (*mail.SMTPSender)(nil)
var _ mail.Sender = (*mail.LogSender)(nil)
var _ mail.Sender = (*tasks.QueuedMailer)(nil)
var _ auth.Mailer = (*tasks.QueuedMailer)(nil)

var _ tasks.Enqueuer = (*tasks.Client)(nil)
var _ tasks.ExpiredTokenCleaner = (*tokens.Repository)(nil)
var _ scheduler.LoginLimiter = (*auth.RateLimiter)(nil)
