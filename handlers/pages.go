package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"postboard/store"
)

type PageHandler struct {
	store *store.Store
	log   *zap.Logger
}

func NewPageHandler(s *store.Store, log *zap.Logger) *PageHandler {
	return &PageHandler{store: s, log: log}
}

// Home renders the landing page with every post.
func (h *PageHandler) Home(c *gin.Context) {
	posts, err := h.store.ListPosts(c.Request.Context())
	if err != nil {
		h.log.Error("list posts failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	c.HTML(http.StatusOK, "home.html", gin.H{"Posts": posts})
}
