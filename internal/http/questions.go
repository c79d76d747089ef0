package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/listing"
)

type questionRequest struct {
	Title      string `json:"title" binding:"required,max=512"`
	CategoryID uint   `json:"category_id" binding:"required"`
}

// QuestionsController serves /api/questions.
type QuestionsController struct {
	store   QuestionStore
	listing *listing.Service
	log     logrus.FieldLogger
}

func NewQuestionsController(store QuestionStore, listing *listing.Service, log logrus.FieldLogger) *QuestionsController {
	return &QuestionsController{store: store, listing: listing, log: log}
}

// List returns a page of all questions in insertion order.
// GET /api/questions
func (qc *QuestionsController) List(c *gin.Context) {
	p, ok := parsePageParams(c)
	if !ok {
		return
	}
	page, err := qc.listing.ListQuestions(c.Request.Context(), p, strings.TrimSpace(c.Query("search")))
	if err != nil {
		respondError(c, qc.log, err, "list questions")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get returns a question with its category and answer.
// GET /api/questions/:id
func (qc *QuestionsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	question, err := qc.store.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, qc.log, err, "get question")
		return
	}
	c.JSON(http.StatusOK, question)
}

// Create adds a question to an existing category.
// POST /api/questions
func (qc *QuestionsController) Create(c *gin.Context) {
	var req questionRequest
	if !bindJSON(c, &req) {
		return
	}
	question, err := qc.store.Create(c.Request.Context(), req.Title, req.CategoryID)
	if err != nil {
		respondError(c, qc.log, err, "create question")
		return
	}
	c.JSON(http.StatusCreated, question)
}

// Update changes the title and category of a question.
// PUT /api/questions/:id
func (qc *QuestionsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req questionRequest
	if !bindJSON(c, &req) {
		return
	}
	question, err := qc.store.Update(c.Request.Context(), id, req.Title, req.CategoryID)
	if err != nil {
		respondError(c, qc.log, err, "update question")
		return
	}
	c.JSON(http.StatusOK, question)
}

// Delete removes a question and its answer.
// DELETE /api/questions/:id
func (qc *QuestionsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := qc.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, qc.log, err, "delete question")
		return
	}
	c.Status(http.StatusNoContent)
}
