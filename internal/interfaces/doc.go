// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - CategoryStore, QuestionStore, AnswerStore, FavoriteStore: catalog
//     mutations used by the API and the admin console (internal/http/stores.go)
//   - listing.*Store: paged reads behind every list view (internal/listing)
//   - Pinger: database reachability for /health (internal/http/health.go)
//
// ## Authentication Interfaces
//
//   - UserLookup, UserStore: account persistence (internal/auth)
//   - ResetTokenStore: single-use password reset tokens (internal/auth/service.go)
//   - RevocationStore: revoked session token ids, kept in the database or in
//     redis (internal/auth/strategy.go, internal/cache)
//   - Backend: bearer header or cookie transport for session tokens
//     (internal/auth/backend.go)
//   - BrowserSession: anonymous view tracking and flash messages
//     (internal/http/stores.go, internal/sessions)
//
// ## Mail and Background Work
//
//   - mail.Sender / auth.Mailer: outgoing email. QueuedMailer hands messages
//     to the task queue and falls back to direct delivery (internal/tasks)
//   - Enqueuer: adds backlite tasks (internal/tasks/send_mail.go)
//   - ExpiredTokenCleaner, LoginLimiter: targets of the scheduled maintenance
//     job (internal/tasks, internal/scheduler)
//
// All implementations are verified at compile time in checks.go.
package interfaces
