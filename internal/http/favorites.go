package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/auth"
	"github.com/devops-offer/offer/internal/listing"
)

type favoriteRequest struct {
	QuestionID uint `json:"question_id" binding:"required"`
}

// FavoritesController serves /api/favorites for the authenticated user.
type FavoritesController struct {
	store   FavoriteStore
	listing *listing.Service
	log     logrus.FieldLogger
}

func NewFavoritesController(store FavoriteStore, listing *listing.Service, log logrus.FieldLogger) *FavoritesController {
	return &FavoritesController{store: store, listing: listing, log: log}
}

// List returns a page of the user's favorites, newest first.
// GET /api/favorites
func (fc *FavoritesController) List(c *gin.Context) {
	p, ok := parsePageParams(c)
	if !ok {
		return
	}
	page, err := fc.listing.ListFavorites(c.Request.Context(), auth.CurrentUserID(c), p)
	if err != nil {
		respondError(c, fc.log, err, "list favorites")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Add favorites a question.
// POST /api/favorites
func (fc *FavoritesController) Add(c *gin.Context) {
	var req favoriteRequest
	if !bindJSON(c, &req) {
		return
	}
	favorite, err := fc.store.Add(c.Request.Context(), auth.CurrentUserID(c), req.QuestionID)
	if err != nil {
		respondError(c, fc.log, err, "add favorite")
		return
	}
	c.JSON(http.StatusCreated, favorite)
}

// Remove deletes one of the user's favorites.
// DELETE /api/favorites/:id
func (fc *FavoritesController) Remove(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := fc.store.Remove(c.Request.Context(), auth.CurrentUserID(c), id); err != nil {
		respondError(c, fc.log, err, "remove favorite")
		return
	}
	c.Status(http.StatusNoContent)
}
