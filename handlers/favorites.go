package handlers

import (
	"net/http"

	"audionav/logging"
	"audionav/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FavoritesHandler exposes the pinned entries.
type FavoritesHandler struct {
	store services.FavoritesStore
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(store services.FavoritesStore) *FavoritesHandler {
	return &FavoritesHandler{store: store}
}

// ListFavorites returns every pinned entry.
func (h *FavoritesHandler) ListFavorites(c *gin.Context) {
	favorites, err := h.store.List(c.Request.Context())
	if err != nil {
		logging.WithContext(c.Request.Context()).Error("list favorites failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load favorites",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"favorites": favorites,
		"count":     len(favorites),
	})
}
