package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/listing"
	"github.com/devops-offer/offer/internal/pagination"
	"github.com/devops-offer/offer/internal/validation"
)

// AdminController serves the content management console under /admin.
// Every route requires an active superuser.
type AdminController struct {
	layout
	listing    *listing.Service
	categories CategoryStore
	questions  QuestionStore
	answers    AnswerStore
	render     *Renderer
}

func NewAdminController(
	listing *listing.Service,
	categories CategoryStore,
	questions QuestionStore,
	answers AnswerStore,
	session BrowserSession,
	render *Renderer,
	log logrus.FieldLogger,
) *AdminController {
	return &AdminController{
		layout:     layout{categories: categories, session: session, log: log},
		listing:    listing,
		categories: categories,
		questions:  questions,
		answers:    answers,
		render:     render,
	}
}

// RegisterRoutes mounts the console on a group already guarded by
// RequireSuperuser.
func (ac *AdminController) RegisterRoutes(router gin.IRoutes) {
	router.GET("", ac.Dashboard)
	router.GET("/categories", ac.Categories)
	router.POST("/categories", ac.CreateCategory)
	router.POST("/categories/:id", ac.UpdateCategory)
	router.POST("/categories/:id/delete", ac.DeleteCategory)
	router.GET("/questions", ac.Questions)
	router.POST("/questions", ac.CreateQuestion)
	router.POST("/questions/:id", ac.UpdateQuestion)
	router.POST("/questions/:id/delete", ac.DeleteQuestion)
	router.GET("/answers", ac.Answers)
	router.POST("/answers", ac.CreateAnswer)
	router.POST("/answers/:id", ac.UpdateAnswer)
	router.POST("/answers/:id/delete", ac.DeleteAnswer)
}

// formID reads an optional numeric form field; bad input reads as 0 and is
// rejected by the repositories as a missing value.
func formID(c *gin.Context, field string) uint {
	id, err := strconv.ParseUint(strings.TrimSpace(c.PostForm(field)), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

func (ac *AdminController) pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		ac.render.Error(c, http.StatusNotFound, "Page not found.")
		return 0, false
	}
	return uint(id), true
}

// finish reports the outcome of a mutation as a flash message and sends the
// browser back to the listing. Unexpected errors render a 500.
func (ac *AdminController) finish(c *gin.Context, err error, success, back string) {
	ctx := c.Request.Context()
	switch verr, isValidation := validation.As(err); {
	case err == nil:
		ac.session.SetFlash(ctx, success)
	case isValidation:
		ac.session.SetFlash(ctx, verr.Error())
	case errors.Is(err, database.ErrConflict):
		ac.session.SetFlash(ctx, database.Reason(err))
	case errors.Is(err, database.ErrNotFound):
		ac.session.SetFlash(ctx, err.Error())
	default:
		ac.log.WithError(err).WithField("path", c.FullPath()).Error("admin action failed")
		ac.render.Error(c, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	c.Redirect(http.StatusSeeOther, back)
}

func (ac *AdminController) internalError(c *gin.Context, err error, context string) {
	ac.log.WithError(err).WithField("context", context).Error("Internal error")
	ac.render.Error(c, http.StatusInternalServerError, "Something went wrong.")
}

// Dashboard shows content totals.
// GET /admin
func (ac *AdminController) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	first := pagination.Params{Page: 1, PageSize: 1}

	categories, err := ac.listing.ListCategories(ctx, first)
	if err != nil {
		ac.internalError(c, err, "admin dashboard")
		return
	}
	questions, err := ac.listing.ListQuestions(ctx, first, "")
	if err != nil {
		ac.internalError(c, err, "admin dashboard")
		return
	}
	answers, err := ac.listing.ListAnswers(ctx, first)
	if err != nil {
		ac.internalError(c, err, "admin dashboard")
		return
	}

	ac.render.HTML(c, http.StatusOK, "admin.html", ac.page(c, "Admin", gin.H{
		"TotalCategories": categories.Total,
		"TotalQuestions":  questions.Total,
		"TotalAnswers":    answers.Total,
	}))
}

// Categories lists categories.
// GET /admin/categories
func (ac *AdminController) Categories(c *gin.Context) {
	page, err := ac.listing.ListCategories(c.Request.Context(), uiPageParams(c))
	if err != nil {
		ac.internalError(c, err, "admin categories")
		return
	}
	ac.render.HTML(c, http.StatusOK, "admin_categories.html", ac.page(c, "Categories", gin.H{
		"Categories": page,
	}))
}

// POST /admin/categories
func (ac *AdminController) CreateCategory(c *gin.Context) {
	_, err := ac.categories.Create(c.Request.Context(), c.PostForm("name"), c.PostForm("description"))
	ac.finish(c, err, "Category created.", "/admin/categories")
}

// POST /admin/categories/:id
func (ac *AdminController) UpdateCategory(c *gin.Context) {
	id, ok := ac.pathID(c)
	if !ok {
		return
	}
	_, err := ac.categories.Update(c.Request.Context(), id, c.PostForm("name"), c.PostForm("description"))
	ac.finish(c, err, "Category updated.", "/admin/categories")
}

// POST /admin/categories/:id/delete
func (ac *AdminController) DeleteCategory(c *gin.Context) {
	id, ok := ac.pathID(c)
	if !ok {
		return
	}
	err := ac.categories.Delete(c.Request.Context(), id)
	ac.finish(c, err, "Category deleted.", "/admin/categories")
}

// Questions lists all questions in insertion order with optional search.
// GET /admin/questions
func (ac *AdminController) Questions(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	page, err := ac.listing.ListQuestions(c.Request.Context(), uiPageParams(c), search)
	if err != nil {
		ac.internalError(c, err, "admin questions")
		return
	}
	ac.render.HTML(c, http.StatusOK, "admin_questions.html", ac.page(c, "Questions", gin.H{
		"Questions": page,
		"Search":    search,
	}))
}

// POST /admin/questions
func (ac *AdminController) CreateQuestion(c *gin.Context) {
	_, err := ac.questions.Create(c.Request.Context(), c.PostForm("title"), formID(c, "category_id"))
	ac.finish(c, err, "Question created.", "/admin/questions")
}

// POST /admin/questions/:id
func (ac *AdminController) UpdateQuestion(c *gin.Context) {
	id, ok := ac.pathID(c)
	if !ok {
		return
	}
	_, err := ac.questions.Update(c.Request.Context(), id, c.PostForm("title"), formID(c, "category_id"))
	ac.finish(c, err, "Question updated.", "/admin/questions")
}

// POST /admin/questions/:id/delete
func (ac *AdminController) DeleteQuestion(c *gin.Context) {
	id, ok := ac.pathID(c)
	if !ok {
		return
	}
	err := ac.questions.Delete(c.Request.Context(), id)
	ac.finish(c, err, "Question deleted.", "/admin/questions")
}

// Answers lists answers.
// GET /admin/answers
func (ac *AdminController) Answers(c *gin.Context) {
	page, err := ac.listing.ListAnswers(c.Request.Context(), uiPageParams(c))
	if err != nil {
		ac.internalError(c, err, "admin answers")
		return
	}
	ac.render.HTML(c, http.StatusOK, "admin_answers.html", ac.page(c, "Answers", gin.H{
		"Answers": page,
	}))
}

// POST /admin/answers
func (ac *AdminController) CreateAnswer(c *gin.Context) {
	_, err := ac.answers.Create(c.Request.Context(), formID(c, "question_id"), c.PostForm("content"))
	ac.finish(c, err, "Answer created.", "/admin/answers")
}

// POST /admin/answers/:id
func (ac *AdminController) UpdateAnswer(c *gin.Context) {
	id, ok := ac.pathID(c)
	if !ok {
		return
	}
	_, err := ac.answers.Update(c.Request.Context(), id, c.PostForm("content"))
	ac.finish(c, err, "Answer updated.", "/admin/answers")
}

// POST /admin/answers/:id/delete
func (ac *AdminController) DeleteAnswer(c *gin.Context) {
	id, ok := ac.pathID(c)
	if !ok {
		return
	}
	err := ac.answers.Delete(c.Request.Context(), id)
	ac.finish(c, err, "Answer deleted.", "/admin/answers")
}
