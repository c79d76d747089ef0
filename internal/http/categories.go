package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/listing"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

// CategoriesController serves /api/categories.
type CategoriesController struct {
	store   CategoryStore
	listing *listing.Service
	log     logrus.FieldLogger
}

func NewCategoriesController(store CategoryStore, listing *listing.Service, log logrus.FieldLogger) *CategoriesController {
	return &CategoriesController{store: store, listing: listing, log: log}
}

// List returns a page of categories.
// GET /api/categories
func (cc *CategoriesController) List(c *gin.Context) {
	p, ok := parsePageParams(c)
	if !ok {
		return
	}
	page, err := cc.listing.ListCategories(c.Request.Context(), p)
	if err != nil {
		respondError(c, cc.log, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get returns one category by id or slug.
// GET /api/categories/:id
func (cc *CategoriesController) Get(c *gin.Context) {
	category, err := cc.store.GetByRef(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, cc.log, err, "get category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// Questions returns a page of the category's questions, newest first.
// GET /api/categories/:id/questions
func (cc *CategoriesController) Questions(c *gin.Context) {
	p, ok := parsePageParams(c)
	if !ok {
		return
	}
	category, page, err := cc.listing.ListQuestionsByCategory(c.Request.Context(), c.Param("id"), p, strings.TrimSpace(c.Query("search")))
	if err != nil {
		respondError(c, cc.log, err, "list category questions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category":    category,
		"items":       page.Items,
		"total":       page.Total,
		"page":        page.Page,
		"page_size":   page.PageSize,
		"total_pages": page.TotalPages,
		"has_more":    page.HasMore,
	})
}

// Create adds a category.
// POST /api/categories
func (cc *CategoriesController) Create(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := cc.store.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, cc.log, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// Update renames or re-describes a category.
// PUT /api/categories/:id
func (cc *CategoriesController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := cc.store.Update(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		respondError(c, cc.log, err, "update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// Delete removes a category that has no questions.
// DELETE /api/categories/:id
func (cc *CategoriesController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, cc.log, err, "delete category")
		return
	}
	c.Status(http.StatusNoContent)
}
