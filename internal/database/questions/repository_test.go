package questions

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/database/dbtest"
	"github.com/devops-offer/offer/internal/entities"
	"github.com/devops-offer/offer/internal/pagination"
	"github.com/devops-offer/offer/internal/validation"
)

type fixture struct {
	repo     *Repository
	db       *database.Database
	category *entities.Category
}

func setupTestRepo(t *testing.T) *fixture {
	db := dbtest.Open(t)
	category := &entities.Category{Name: "DevOps"}
	require.NoError(t, db.DB.Create(category).Error)
	return &fixture{repo: NewRepository(db.DB), db: db, category: category}
}

func (f *fixture) seed(t *testing.T, titles ...string) []*entities.Question {
	t.Helper()
	out := make([]*entities.Question, 0, len(titles))
	for _, title := range titles {
		q, err := f.repo.Create(context.Background(), title, f.category.ID)
		require.NoError(t, err)
		out = append(out, q)
	}
	return out
}

func TestRepository_Create(t *testing.T) {
	f := setupTestRepo(t)
	ctx := context.Background()

	q, err := f.repo.Create(ctx, "What is Docker?", f.category.ID)
	require.NoError(t, err)
	assert.Equal(t, "what-is-docker", q.Slug)
	require.NotNil(t, q.Category)
	assert.Equal(t, "DevOps", q.Category.Name)

	t.Run("title with the same slug is a conflict", func(t *testing.T) {
		_, err := f.repo.Create(ctx, "what is docker", f.category.ID)
		assert.ErrorIs(t, err, database.ErrConflict)

		var count int64
		f.db.DB.Model(&entities.Question{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("missing category", func(t *testing.T) {
		_, err := f.repo.Create(ctx, "Orphan", 999)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := f.repo.Create(ctx, "", 0)
		errs, ok := validation.As(err)
		require.True(t, ok)
		assert.Contains(t, errs, "title")
		assert.Contains(t, errs, "category_id")
	})

	t.Run("title length counts characters", func(t *testing.T) {
		_, err := f.repo.Create(ctx, strings.Repeat("а", maxTitleLength), f.category.ID)
		require.NoError(t, err, "512 two-byte letters fit")

		for _, title := range []string{
			strings.Repeat("b", maxTitleLength+1),
			strings.Repeat("ж", 300), // slug "zhzh..." outgrows the column
		} {
			_, err := f.repo.Create(ctx, title, f.category.ID)
			errs, ok := validation.As(err)
			require.True(t, ok, "got %v", err)
			assert.Contains(t, errs, "title")
		}
	})
}

func TestRepository_UniqueIndexIsTheGuard(t *testing.T) {
	f := setupTestRepo(t)

	// Bypass the pre-check the way a racing request would.
	first := entities.Question{Title: "Race", CategoryID: f.category.ID}
	require.NoError(t, f.db.DB.Omit("Category", "Answer").Create(&first).Error)
	second := entities.Question{Title: "race", CategoryID: f.category.ID}
	err := f.db.DB.Omit("Category", "Answer").Create(&second).Error

	assert.ErrorIs(t, database.Translate(err, conflictReason), database.ErrConflict)
}

func TestRepository_ListOrdering(t *testing.T) {
	f := setupTestRepo(t)
	ctx := context.Background()
	f.seed(t, "One", "Two", "Three")

	asc, total, err := f.repo.List(ctx, pagination.Default(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"One", "Two", "Three"}, titles(asc))

	desc, total, err := f.repo.ListByCategory(ctx, f.category.ID, pagination.Default(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"Three", "Two", "One"}, titles(desc))
}

func TestRepository_ListByCategory_SearchAndPaginate(t *testing.T) {
	f := setupTestRepo(t)
	ctx := context.Background()

	other := &entities.Category{Name: "Other"}
	require.NoError(t, f.db.DB.Create(other).Error)
	_, err := f.repo.Create(ctx, "Docker in other category", other.ID)
	require.NoError(t, err)

	for i := 1; i <= 12; i++ {
		f.seed(t, fmt.Sprintf("Docker question %d", i))
	}
	f.seed(t, "Kubernetes question")

	items, total, err := f.repo.ListByCategory(ctx, f.category.ID, pagination.Params{Page: 1, PageSize: 9}, "docker")
	require.NoError(t, err)
	assert.Equal(t, int64(12), total, "count applies the same filter")
	assert.Len(t, items, 9)
	assert.Equal(t, 2, pagination.TotalPages(total, 9))
	assert.Equal(t, "Docker question 12", items[0].Title)

	items, _, err = f.repo.ListByCategory(ctx, f.category.ID, pagination.Params{Page: 2, PageSize: 9}, "DOCKER")
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, total, err = f.repo.ListByCategory(ctx, f.category.ID, pagination.Default(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(13), total)
	assert.Len(t, items, 9)

	for _, q := range items {
		require.NotNil(t, q.Category, "category is preloaded")
		assert.Equal(t, f.category.ID, q.Category.ID)
	}
}

func TestRepository_ListByCategory_SearchFoldsNonASCII(t *testing.T) {
	f := setupTestRepo(t)
	ctx := context.Background()
	f.seed(t, "Что такое Docker?", "Зачем нужен Kubernetes?")

	tests := []struct {
		search string
		want   string
	}{
		{"docker", "Что такое Docker?"},
		{"что", "Что такое Docker?"},
		{"ЧТО", "Что такое Docker?"},
		{"Зачем", "Зачем нужен Kubernetes?"},
		{"НУЖЕН kuber", "Зачем нужен Kubernetes?"},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			items, total, err := f.repo.ListByCategory(ctx, f.category.ID, pagination.Default(), tt.search)
			require.NoError(t, err)
			assert.Equal(t, int64(1), total)
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Title)
		})
	}
}

func TestRepository_GetByID_LoadsAnswer(t *testing.T) {
	f := setupTestRepo(t)
	ctx := context.Background()
	q := f.seed(t, "With answer")[0]

	require.NoError(t, f.db.DB.Create(&entities.Answer{QuestionID: q.ID, Content: "<p>Yes <b>really</b></p>"}).Error)

	got, err := f.repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Answer)
	assert.Equal(t, "Yes really", got.Answer.PlainText)

	bySlug, err := f.repo.GetBySlug(ctx, "with-answer")
	require.NoError(t, err)
	assert.Equal(t, q.ID, bySlug.ID)

	_, err = f.repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_Update(t *testing.T) {
	f := setupTestRepo(t)
	ctx := context.Background()
	qs := f.seed(t, "First", "Second")

	updated, err := f.repo.Update(ctx, qs[0].ID, "First edited", f.category.ID)
	require.NoError(t, err)
	assert.Equal(t, "first-edited", updated.Slug)

	_, err = f.repo.Update(ctx, qs[0].ID, "Second", f.category.ID)
	assert.ErrorIs(t, err, database.ErrConflict)

	_, err = f.repo.Update(ctx, qs[0].ID, "Moved", 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_Delete(t *testing.T) {
	f := setupTestRepo(t)
	ctx := context.Background()

	t.Run("cascades to the answer", func(t *testing.T) {
		q := f.seed(t, "Disposable")[0]
		require.NoError(t, f.db.DB.Create(&entities.Answer{QuestionID: q.ID, Content: "gone"}).Error)

		require.NoError(t, f.repo.Delete(ctx, q.ID))

		var answers int64
		f.db.DB.Model(&entities.Answer{}).Where("question_id = ?", q.ID).Count(&answers)
		assert.Zero(t, answers)
		_, err := f.repo.GetByID(ctx, q.ID)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("favorited question is kept", func(t *testing.T) {
		q := f.seed(t, "Popular")[0]
		user := entities.User{Username: "bob", Email: "bob@x.com", HashedPassword: "x"}
		require.NoError(t, f.db.DB.Create(&user).Error)
		require.NoError(t, f.db.DB.Omit("User", "Question").Create(&entities.Favorite{UserID: user.ID, QuestionID: q.ID}).Error)

		err := f.repo.Delete(ctx, q.ID)
		assert.ErrorIs(t, err, database.ErrConflict)
		assert.Equal(t, "Question depends on favorites.", database.Reason(err))

		_, err = f.repo.GetByID(ctx, q.ID)
		assert.NoError(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		assert.ErrorIs(t, f.repo.Delete(ctx, 999), database.ErrNotFound)
	})
}

func TestRepository_IncrementViews(t *testing.T) {
	f := setupTestRepo(t)
	ctx := context.Background()
	q := f.seed(t, "Viewed")[0]

	require.NoError(t, f.repo.IncrementViews(ctx, q.ID))
	require.NoError(t, f.repo.IncrementViews(ctx, q.ID))

	got, err := f.repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(2), got.Views)

	assert.ErrorIs(t, f.repo.IncrementViews(ctx, 999), database.ErrNotFound)
}

func titles(qs []entities.Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Title)
	}
	return out
}
