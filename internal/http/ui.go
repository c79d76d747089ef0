package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/auth"
	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/listing"
	"github.com/devops-offer/offer/internal/validation"
)

// UIController serves the public pages and the user's profile.
type UIController struct {
	layout
	listing   *listing.Service
	questions QuestionStore
	favorites FavoriteStore
	accounts  *auth.Service
	render    *Renderer
}

func NewUIController(
	listing *listing.Service,
	categories CategoryStore,
	questions QuestionStore,
	favorites FavoriteStore,
	session BrowserSession,
	accounts *auth.Service,
	render *Renderer,
	log logrus.FieldLogger,
) *UIController {
	return &UIController{
		layout:    layout{categories: categories, session: session, log: log},
		listing:   listing,
		questions: questions,
		favorites: favorites,
		accounts:  accounts,
		render:    render,
	}
}

// fail renders the error page for not-found errors and logs the rest.
func (ui *UIController) fail(c *gin.Context, err error, context string) {
	if errors.Is(err, database.ErrNotFound) {
		ui.render.Error(c, http.StatusNotFound, err.Error())
		return
	}
	ui.log.WithError(err).WithField("context", context).Error("Internal error")
	ui.render.Error(c, http.StatusInternalServerError, "Something went wrong.")
}

func (ui *UIController) uiID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		ui.render.Error(c, http.StatusNotFound, "Page not found.")
		return 0, false
	}
	return uint(id), true
}

// Home lists categories.
// GET /
func (ui *UIController) Home(c *gin.Context) {
	page, err := ui.listing.ListCategories(c.Request.Context(), uiPageParams(c))
	if err != nil {
		ui.fail(c, err, "home")
		return
	}
	ui.render.HTML(c, http.StatusOK, "index.html", ui.page(c, "DevOps offer", gin.H{
		"Categories": page,
	}))
}

// Category lists a category's questions, newest first, with optional search.
// GET /categories/:ref
func (ui *UIController) Category(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	category, page, err := ui.listing.ListQuestionsByCategory(c.Request.Context(), c.Param("ref"), uiPageParams(c), search)
	if err != nil {
		ui.fail(c, err, "category page")
		return
	}
	ui.render.HTML(c, http.StatusOK, "category.html", ui.page(c, category.Name, gin.H{
		"Category":  category,
		"Questions": page,
		"Search":    search,
	}))
}

// Question shows a question and its answer. A view is counted once per
// browser session.
// GET /questions/:id
func (ui *UIController) Question(c *gin.Context) {
	id, ok := ui.uiID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	question, err := ui.questions.GetByID(ctx, id)
	if err != nil {
		ui.fail(c, err, "question page")
		return
	}

	if ui.session.MarkViewed(ctx, id) {
		if err := ui.questions.IncrementViews(ctx, id); err != nil {
			ui.log.WithError(err).WithField("question_id", id).Warn("failed to count view")
		} else {
			question.Views++
		}
	}

	isFavorite := false
	if user := auth.CurrentUser(c); user != nil {
		isFavorite, err = ui.favorites.IsFavorite(ctx, user.ID, id)
		if err != nil {
			ui.fail(c, err, "question page")
			return
		}
	}

	ui.render.HTML(c, http.StatusOK, "question.html", ui.page(c, question.Title, gin.H{
		"Question":   question,
		"IsFavorite": isFavorite,
	}))
}

// AddFavorite bookmarks the question for the signed-in user.
// POST /questions/:id/favorite
func (ui *UIController) AddFavorite(c *gin.Context) {
	id, ok := ui.uiID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	_, err := ui.favorites.Add(ctx, auth.CurrentUserID(c), id)
	switch {
	case err == nil:
		ui.session.SetFlash(ctx, "Added to favorites.")
	case errors.Is(err, database.ErrConflict):
		ui.session.SetFlash(ctx, database.Reason(err))
	default:
		ui.fail(c, err, "add favorite")
		return
	}
	c.Redirect(http.StatusSeeOther, "/questions/"+strconv.FormatUint(uint64(id), 10))
}

// Profile shows the user and a page of their favorites.
// GET /profile
func (ui *UIController) Profile(c *gin.Context) {
	user := auth.CurrentUser(c)
	page, err := ui.listing.ListFavorites(c.Request.Context(), user.ID, uiPageParams(c))
	if err != nil {
		ui.fail(c, err, "profile")
		return
	}
	ui.render.HTML(c, http.StatusOK, "profile.html", ui.page(c, "Profile", gin.H{
		"Favorites":           page,
		"TotalPagesFavorites": page.TotalPages,
	}))
}

// EditProfilePage renders the profile form.
// GET /profile/edit
func (ui *UIController) EditProfilePage(c *gin.Context) {
	user := auth.CurrentUser(c)
	ui.render.HTML(c, http.StatusOK, "edit_profile.html", ui.page(c, "Edit profile", gin.H{
		"Username": user.Username,
		"Email":    user.Email,
	}))
}

// EditProfile saves the profile form. Password fields are only read when
// change_password is checked.
// POST /profile/edit
func (ui *UIController) EditProfile(c *gin.Context) {
	in := auth.ProfileInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
	}
	var err error
	if c.PostForm("change_password") != "" {
		in.CurrentPassword = c.PostForm("current_password")
		in.NewPassword = c.PostForm("new_password")
		in.NewPasswordConfirm = c.PostForm("new_password_confirm")
		if in.NewPassword == "" {
			err = validation.Field("new_password", "This field is required.")
		}
	}

	if err == nil {
		_, err = ui.accounts.UpdateProfile(c.Request.Context(), auth.CurrentUserID(c), in)
	}
	if err != nil {
		if verr, ok := validation.As(err); ok {
			ui.render.HTML(c, http.StatusBadRequest, "edit_profile.html", ui.page(c, "Edit profile", gin.H{
				"Username": in.Username,
				"Email":    in.Email,
				"Errors":   verr,
			}))
			return
		}
		ui.fail(c, err, "edit profile")
		return
	}

	ui.session.SetFlash(c.Request.Context(), "Profile updated.")
	c.Redirect(http.StatusSeeOther, "/profile")
}

// DeleteFavorite removes one of the user's favorites.
// POST /profile/favorites/:id/delete
func (ui *UIController) DeleteFavorite(c *gin.Context) {
	id, ok := ui.uiID(c)
	if !ok {
		return
	}
	if err := ui.favorites.Remove(c.Request.Context(), auth.CurrentUserID(c), id); err != nil {
		ui.fail(c, err, "delete favorite")
		return
	}
	ui.session.SetFlash(c.Request.Context(), "Removed from favorites.")
	c.Redirect(http.StatusSeeOther, "/profile")
}
