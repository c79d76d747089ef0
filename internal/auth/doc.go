// Package auth provides accounts, credentials and access control.
//
// Session tokens are HS256 JWTs issued by a JWTStrategy. Two backends carry
// them: BearerBackend for the JSON API (Authorization: Bearer) and
// CookieBackend for the HTML UI (the "auth" cookie). Logging out of the
// cookie backend revokes the token id through a RevocationStore.
//
// # Configuration
//
//	AUTH_TOKEN_SECRET=<random>        # Signing key, generated per process if empty
//	AUTH_TOKEN_LIFETIME=1h            # Token and cookie lifetime
//	AUTH_SECURE_COOKIES=true          # HTTPS-only cookies
//	AUTH_BCRYPT_COST=12               # bcrypt cost factor
//	AUTH_RESET_TOKEN_LIFETIME=1h      # Password reset link validity
//
// # Usage
//
//	strategy := auth.NewJWTStrategy(secret, cfg.Auth.TokenLifetime, revocations)
//	api := auth.NewMiddleware(auth.NewBearerBackend(strategy), users, log)
//	group.Use(api.Handler())
//	group.POST("/categories", api.RequireSuperuser(), handler)
//
// Extract the user in handlers:
//
//	user := auth.CurrentUser(c) // nil for anonymous requests
package auth
