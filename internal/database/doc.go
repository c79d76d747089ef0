// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup by URL, migrations
//	├── errors.go        # ErrNotFound / ErrConflict and driver error translation
//	├── scopes.go        # Pagination, search and eager-loading scopes
//	├── categories/      # Category CRUD
//	├── questions/       # Question CRUD, view counter
//	├── answers/         # Answer CRUD
//	├── favorites/       # Per-user favorites
//	├── users/           # Accounts
//	└── tokens/          # Password reset tokens and revoked session tokens
//
// # Using Sub-packages
//
//	db, err := database.Open(cfg.Database, log)
//
//	questionsRepo := questions.NewRepository(db.DB)
//	items, total, err := questionsRepo.ListByCategory(ctx, categoryID, params, "docker")
//
// # Errors
//
// Repositories return ErrNotFound for missing rows and ErrConflict (wrapped
// with a reason) for uniqueness and dependency violations. Uniqueness is
// pre-checked for a friendly message, but the unique indexes are the real
// guard: a losing concurrent insert is translated to ErrConflict as well.
//
// # Relationships
//
// Entities carry foreign-key fields and forward pointers only. Pointers are
// filled by the preload scopes; nothing embeds a slice of its children.
package database
