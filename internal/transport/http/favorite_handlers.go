package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/service/catalog"
)

// FavoriteHandlers serves the favorites endpoints.
type FavoriteHandlers struct {
	catalog *catalog.Service
	log     *zerolog.Logger
}

// NewFavoriteHandlers creates favorites handlers.
func NewFavoriteHandlers(catalogService *catalog.Service, logger *zerolog.Logger) *FavoriteHandlers {
	return &FavoriteHandlers{catalog: catalogService, log: logger}
}

// List returns the caller's favorite product ids.
// GET /api/favorites
func (h *FavoriteHandlers) List(c *gin.Context) {
	ids, err := h.catalog.Favorites(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list favorites")
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, ids)
}

// Add favorites a product.
// POST /api/favorites/:id
func (h *FavoriteHandlers) Add(c *gin.Context) {
	productID, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.catalog.AddFavorite(c.Request.Context(), currentUserID(c), productID); err != nil {
		fail(c, err)
		return
	}
	ok[any](c, http.StatusOK, nil)
}

// Remove unfavorites a product.
// DELETE /api/favorites/:id
func (h *FavoriteHandlers) Remove(c *gin.Context) {
	productID, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.catalog.RemoveFavorite(c.Request.Context(), currentUserID(c), productID); err != nil {
		fail(c, err)
		return
	}
	ok[any](c, http.StatusOK, nil)
}
