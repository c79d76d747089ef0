// Package dbtest opens throwaway sqlite databases for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devops-offer/offer/internal/config"
	"github.com/devops-offer/offer/internal/database"
)

// Open creates a migrated sqlite database in a temp dir. It is closed when
// the test ends.
func Open(t *testing.T) *database.Database {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(config.Database{URL: path}, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
