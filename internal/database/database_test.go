package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devops-offer/offer/internal/config"
	"github.com/devops-offer/offer/internal/entities"
	"github.com/devops-offer/offer/internal/pagination"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(config.Database{URL: filepath.Join(t.TempDir(), "test.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDialectorFor(t *testing.T) {
	tests := []struct {
		url     string
		dialect Dialect
		path    string
	}{
		{"./offer.db", DialectSQLite, "./offer.db"},
		{"sqlite://./data/offer.db", DialectSQLite, "./data/offer.db"},
		{"sqlite://./offer.db?cache=shared", DialectSQLite, "./offer.db"},
		{"postgres://u:p@localhost:5432/offer", DialectPostgres, ""},
		{"postgresql://u:p@localhost/offer", DialectPostgres, ""},
		{"mysql://u:p@tcp(localhost:3306)/offer", DialectMySQL, ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			dialector, dialect, path, err := dialectorFor(tt.url)
			require.NoError(t, err)
			assert.NotNil(t, dialector)
			assert.Equal(t, tt.dialect, dialect)
			assert.Equal(t, tt.path, path)
		})
	}

	_, _, _, err := dialectorFor("  ")
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("a.db"))
	assert.Equal(t, "a.db?cache=shared&_foreign_keys=on&_busy_timeout=5000", sqliteDSN("a.db?cache=shared"))
}

func TestSQLiteLowerFoldsUnicode(t *testing.T) {
	db := setupTestDB(t)

	var lowered string
	require.NoError(t, db.DB.Raw("SELECT LOWER(?)", "ЗАЧЕМ Docker").Scan(&lowered).Error)
	assert.Equal(t, "зачем docker", lowered)

	var n int64
	require.NoError(t, db.DB.Raw("SELECT LOWER(?)", 42).Scan(&n).Error)
	assert.Equal(t, int64(42), n)
}

func TestMySQLDSN(t *testing.T) {
	assert.Equal(t, "u:p@tcp(h)/db?charset=utf8mb4&parseTime=true", mysqlDSN("u:p@tcp(h)/db"))
	assert.Equal(t, "u:p@tcp(h)/db?parseTime=false", mysqlDSN("u:p@tcp(h)/db?parseTime=false"))
}

func TestOpen_MigratesAndEnforcesForeignKeys(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"users", "categories", "questions", "answers", "favorites", "password_reset_tokens", "revoked_tokens"} {
		assert.True(t, db.DB.Migrator().HasTable(table), "table %s", table)
	}
	assert.True(t, db.DB.Migrator().HasIndex(&entities.Favorite{}, "idx_favorites_user_question"))
	assert.True(t, db.DB.Migrator().HasIndex(&entities.Question{}, "idx_questions_slug"))

	// A question pointing at a missing category violates the foreign key.
	err := db.DB.Omit("Category", "Answer").Create(&entities.Question{Title: "Orphan", CategoryID: 999}).Error
	assert.Error(t, err)

	assert.NoError(t, db.Ping(context.Background()))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil, "x"))
	assert.ErrorIs(t, Translate(gorm.ErrRecordNotFound, "x"), ErrNotFound)

	err := Translate(gorm.ErrDuplicatedKey, "slug taken")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "slug taken", Reason(err))

	err = Translate(errors.New("UNIQUE constraint failed: questions.slug"), "slug taken")
	assert.ErrorIs(t, err, ErrConflict)

	other := errors.New("disk full")
	assert.Equal(t, other, Translate(other, "x"))
}

func TestNotFound(t *testing.T) {
	err := NotFound("category")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "category not found", err.Error())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "100!%", EscapeLike("100%"))
	assert.Equal(t, "a!_b", EscapeLike("a_b"))
	assert.Equal(t, "wow!!", EscapeLike("wow!"))
	assert.Equal(t, "plain", EscapeLike("plain"))
}

func TestScopes(t *testing.T) {
	db := setupTestDB(t)

	category := entities.Category{Name: "Docker"}
	require.NoError(t, db.DB.Create(&category).Error)

	titles := []string{"What is Docker?", "Docker volumes", "100% uptime", "snake_case names", "Kubernetes pods"}
	for _, title := range titles {
		q := entities.Question{Title: title, CategoryID: category.ID}
		require.NoError(t, db.DB.Omit("Category", "Answer").Create(&q).Error)
	}

	search := func(term string) []string {
		var found []entities.Question
		require.NoError(t, db.DB.Scopes(TitleContains(term)).Order("id ASC").Find(&found).Error)
		out := make([]string, 0, len(found))
		for _, q := range found {
			out = append(out, q.Title)
		}
		return out
	}

	t.Run("case-insensitive substring", func(t *testing.T) {
		assert.Equal(t, []string{"What is Docker?", "Docker volumes"}, search("DOCKER"))
	})

	t.Run("empty search matches all", func(t *testing.T) {
		assert.Len(t, search("  "), len(titles))
	})

	t.Run("wildcards match literally", func(t *testing.T) {
		assert.Equal(t, []string{"100% uptime"}, search("%"))
		assert.Equal(t, []string{"snake_case names"}, search("_"))
	})

	t.Run("paginate and preload", func(t *testing.T) {
		var page []entities.Question
		err := db.DB.Scopes(WithQuestionRelations, Paginate(pagination.Params{Page: 2, PageSize: 2})).
			Order("id ASC").Find(&page).Error
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "100% uptime", page[0].Title)
		require.NotNil(t, page[0].Category)
		assert.Equal(t, "Docker", page[0].Category.Name)
		assert.Nil(t, page[0].Answer)
	})
}

func ExampleEscapeLike() {
	fmt.Println(EscapeLike("50%_off!"))
	// Output: 50!%!_off!!
}
