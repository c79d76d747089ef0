package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUI_FavoriteShowsOnProfile(t *testing.T) {
	app := newTestApp(t)

	rr := app.api(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	b := app.browser(t)
	b.login("alice")

	profile := b.page("/profile")
	assert.EqualValues(t, 0, profile["TotalPagesFavorites"])
	favorites, _ := profile["Favorites"].(map[string]any)
	assert.Empty(t, favorites["items"])

	category := app.seedCategory(t, "Linux")
	for i := 1; i <= 5; i++ {
		app.seedQuestion(t, fmt.Sprintf("Question %d", i), category.ID)
	}

	rr = b.post("/questions/5/favorite", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, "/questions/5", rr.Header().Get("Location"))

	question := b.page("/questions/5")
	assert.Equal(t, "Added to favorites.", question["Flash"])
	assert.Equal(t, true, question["IsFavorite"])

	profile = b.page("/profile?page=1&page_size=9")
	assert.EqualValues(t, 1, profile["TotalPagesFavorites"])
	favorites, _ = profile["Favorites"].(map[string]any)
	items, _ := favorites["items"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 5, items[0].(map[string]any)["question_id"])

	rr = b.post("/questions/5/favorite", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "Favorite already exists.", b.page("/questions/5")["Flash"])
}

func TestUI_LoginRequiresCSRF(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", false)

	b := app.browser(t)
	rr := b.post("/login", url.Values{"username": {"alice"}, "password": {testPassword}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.NotContains(t, b.cookies, "auth")
}

func TestUI_AnonymousProfileRedirects(t *testing.T) {
	app := newTestApp(t)

	rr := app.browser(t).get("/profile")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login?next=%2Fprofile", rr.Header().Get("Location"))
}

func TestUI_ViewsCountedOncePerSession(t *testing.T) {
	app := newTestApp(t)
	category := app.seedCategory(t, "Git")
	question := app.seedQuestion(t, "What is a rebase?", category.ID)
	path := fmt.Sprintf("/questions/%d", question.ID)

	first := app.browser(t)
	first.page(path)
	first.page(path)
	app.browser(t).page(path)

	stored, err := app.questions.GetByID(context.Background(), question.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stored.Views)
}

func TestUI_CategoryPage(t *testing.T) {
	app := newTestApp(t)
	category := app.seedCategory(t, "CI CD")
	app.seedQuestion(t, "What is a pipeline?", category.ID)
	app.seedQuestion(t, "What is a runner?", category.ID)

	b := app.browser(t)
	data := b.page("/categories/" + category.Slug + "?search=runner")
	questions, _ := data["Questions"].(map[string]any)
	assert.EqualValues(t, 1, questions["total"])
	assert.Equal(t, "runner", data["Search"])

	home := b.page("/")
	assert.NotEmpty(t, home["NavCategories"])

	rr := b.get("/categories/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUI_AdminConsole(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "member", false)
	app.createUser(t, "root", true)

	member := app.browser(t)
	member.login("member")
	rr := member.get("/admin")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	root := app.browser(t)
	root.login("root")

	rr = root.post("/admin/categories", url.Values{"name": {"Terraform"}, "description": {"IaC"}})
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, "/admin/categories", rr.Header().Get("Location"))

	data := root.page("/admin/categories")
	assert.Equal(t, "Category created.", data["Flash"])
	categories, _ := data["Categories"].(map[string]any)
	assert.EqualValues(t, 1, categories["total"])

	rr = root.post("/admin/categories", url.Values{"name": {"Terraform"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.NotEmpty(t, root.page("/admin/categories")["Flash"])

	dashboard := root.page("/admin")
	assert.EqualValues(t, 1, dashboard["TotalCategories"])
	assert.EqualValues(t, 0, dashboard["TotalQuestions"])
}

func TestUI_EditProfile(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", false)

	b := app.browser(t)
	b.login("alice")

	rr := b.post("/profile/edit", url.Values{
		"username": {"alice"}, "email": {"alice@example.com"}, "change_password": {"on"},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = b.post("/profile/edit", url.Values{"username": {"alice2"}, "email": {"alice@example.com"}})
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())

	profile := b.page("/profile")
	user, _ := profile["User"].(map[string]any)
	assert.Equal(t, "alice2", user["username"])
	assert.NotEmpty(t, profile["Flash"])
}
