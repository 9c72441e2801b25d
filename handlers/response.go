package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"postboard/cache"
	"postboard/events"
	"postboard/metrics"
	"postboard/models"
	"postboard/store"
)

type ResponseHandler struct {
	store     *store.Store
	responses cache.ResponseCache
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewResponseHandler(s *store.Store, responses cache.ResponseCache, publisher events.Publisher, m *metrics.Metrics, log *zap.Logger) *ResponseHandler {
	return &ResponseHandler{store: s, responses: responses, publisher: publisher, metrics: m, log: log}
}

// cachedResponses reads a post's responses through the cache. Cache failures are
// logged and fall through to the database. The generation is taken before the
// query so a list read ahead of a concurrent write is never cached.
func cachedResponses(c *gin.Context, s *store.Store, rc cache.ResponseCache, log *zap.Logger, postID int) ([]models.Response, error) {
	ctx := c.Request.Context()

	responses, hit, err := rc.Get(ctx, postID)
	if err != nil {
		log.Warn("cache read failed", zap.Int("post_id", postID), zap.Error(err))
	} else if hit {
		return responses, nil
	}

	gen, genErr := rc.Generation(ctx, postID)
	if genErr != nil {
		log.Warn("cache generation read failed", zap.Int("post_id", postID), zap.Error(genErr))
	}

	responses, err = s.ListResponses(ctx, postID)
	if err != nil {
		log.Error("list responses failed", zap.Int("post_id", postID), zap.Error(err))
		return nil, err
	}
	if genErr == nil {
		if err := rc.Set(ctx, postID, gen, responses); err != nil {
			log.Warn("cache write failed", zap.Int("post_id", postID), zap.Error(err))
		}
	}
	return responses, nil
}

// CreatePostResponse handles POST /posts/:id/responses.
func (h *ResponseHandler) CreatePostResponse(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.CreateResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.create(c, postID, req)
}

// CreateResponse handles POST /responses, where the post id is in the body.
func (h *ResponseHandler) CreateResponse(c *gin.Context) {
	var req models.CreateResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PostID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post_id is required"})
		return
	}
	h.create(c, req.PostID, req)
}

func (h *ResponseHandler) create(c *gin.Context, postID int, req models.CreateResponseRequest) {
	ctx := c.Request.Context()

	resp, err := h.store.CreateResponse(ctx, postID, req.Author, req.Body)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	} else if err != nil {
		h.log.Error("create response failed", zap.Int("post_id", postID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create response"})
		return
	}
	h.metrics.ResponsesCreated.Inc()

	if err := h.responses.Invalidate(ctx, postID); err != nil {
		h.log.Warn("cache invalidation failed", zap.Int("post_id", postID), zap.Error(err))
	}
	h.publish(ctx, resp)

	c.JSON(http.StatusCreated, resp)
}

// publish reports the new response. The response is already stored, so a
// failed publish is logged rather than returned to the client.
func (h *ResponseHandler) publish(ctx context.Context, resp *models.Response) {
	event := &models.ResponseEvent{
		Type:       events.ResponseCreated,
		ResponseID: resp.ID,
		PostID:     resp.PostID,
		Author:     resp.Author,
		Body:       resp.Body,
		CreatedAt:  resp.CreatedAt,
	}
	if err := h.publisher.PublishResponse(ctx, event); err != nil {
		h.log.Error("publish response event failed", zap.Int("response_id", resp.ID), zap.Error(err))
	}
}

// GetPostResponses handles GET /posts/:id/responses.
func (h *ResponseHandler) GetPostResponses(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	h.list(c, postID)
}

// GetResponses handles GET /responses?post_id=.
func (h *ResponseHandler) GetResponses(c *gin.Context) {
	raw := c.Query("post_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post_id query parameter is required"})
		return
	}
	postID, err := strconv.Atoi(raw)
	if err != nil || postID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post_id"})
		return
	}
	h.list(c, postID)
}

func (h *ResponseHandler) list(c *gin.Context, postID int) {
	if _, err := h.store.GetPost(c.Request.Context(), postID); errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	} else if err != nil {
		h.log.Error("get post failed", zap.Int("post_id", postID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	responses, err := cachedResponses(c, h.store, h.responses, h.log, postID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch responses"})
		return
	}

	c.JSON(http.StatusOK, responses)
}

func (h *ResponseHandler) DeleteResponse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	resp, err := h.store.GetResponse(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Response not found"})
		return
	} else if err != nil {
		h.log.Error("get response failed", zap.Int("response_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch response"})
		return
	}

	if err := h.store.DeleteResponse(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Error("delete response failed", zap.Int("response_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete response"})
		return
	}

	if err := h.responses.Invalidate(ctx, resp.PostID); err != nil {
		h.log.Warn("cache invalidation failed", zap.Int("post_id", resp.PostID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Response deleted successfully"})
}
