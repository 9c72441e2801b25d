package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"postboard/cache"
	"postboard/metrics"
	"postboard/models"
	"postboard/store"
)

type PostHandler struct {
	store     *store.Store
	responses cache.ResponseCache
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewPostHandler(s *store.Store, responses cache.ResponseCache, m *metrics.Metrics, log *zap.Logger) *PostHandler {
	return &PostHandler{store: s, responses: responses, metrics: m, log: log}
}

// paramID reads a positive integer path parameter, answering 400 when it is not one.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.store.CreatePost(c.Request.Context(), req.Author, req.Body)
	if err != nil {
		h.log.Error("create post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}
	h.metrics.PostsCreated.Inc()

	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetPosts(c *gin.Context) {
	posts, err := h.store.ListPosts(c.Request.Context())
	if err != nil {
		h.log.Error("list posts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost returns the post with its responses embedded.
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	post, err := h.store.GetPost(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	} else if err != nil {
		h.log.Error("get post failed", zap.Int("post_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	responses, err := cachedResponses(c, h.store, h.responses, h.log, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch responses"})
		return
	}
	post.Responses = responses
	post.ResponseCount = len(responses)

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	err := h.store.DeletePost(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	} else if err != nil {
		h.log.Error("delete post failed", zap.Int("post_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	if err := h.responses.Invalidate(c.Request.Context(), id); err != nil {
		h.log.Warn("cache invalidation failed", zap.Int("post_id", id), zap.Error(err))
	}
	h.log.Info("post deleted", zap.Int("post_id", id), zap.Int("moderator_id", c.GetInt("moderatorID")))

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
