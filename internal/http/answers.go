package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/listing"
)

type answerCreateRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

type answerUpdateRequest struct {
	Content string `json:"content" binding:"required"`
}

// AnswersController serves /api/answers.
type AnswersController struct {
	store   AnswerStore
	listing *listing.Service
	log     logrus.FieldLogger
}

func NewAnswersController(store AnswerStore, listing *listing.Service, log logrus.FieldLogger) *AnswersController {
	return &AnswersController{store: store, listing: listing, log: log}
}

// List returns a page of answers.
// GET /api/answers
func (ac *AnswersController) List(c *gin.Context) {
	p, ok := parsePageParams(c)
	if !ok {
		return
	}
	page, err := ac.listing.ListAnswers(c.Request.Context(), p)
	if err != nil {
		respondError(c, ac.log, err, "list answers")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get returns one answer.
// GET /api/answers/:id
func (ac *AnswersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	answer, err := ac.store.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, ac.log, err, "get answer")
		return
	}
	c.JSON(http.StatusOK, answer)
}

// Create answers a question that has no answer yet.
// POST /api/answers
func (ac *AnswersController) Create(c *gin.Context) {
	var req answerCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	answer, err := ac.store.Create(c.Request.Context(), req.QuestionID, req.Content)
	if err != nil {
		respondError(c, ac.log, err, "create answer")
		return
	}
	c.JSON(http.StatusCreated, answer)
}

// Update replaces the content of an answer.
// PUT /api/answers/:id
func (ac *AnswersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req answerUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	answer, err := ac.store.Update(c.Request.Context(), id, req.Content)
	if err != nil {
		respondError(c, ac.log, err, "update answer")
		return
	}
	c.JSON(http.StatusOK, answer)
}

// Delete removes an answer.
// DELETE /api/answers/:id
func (ac *AnswersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ac.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ac.log, err, "delete answer")
		return
	}
	c.Status(http.StatusNoContent)
}
