package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"postboard/middleware"
	"postboard/models"
	"postboard/store"
)

type AuthHandler struct {
	store        *store.Store
	tokenService *middleware.TokenService
	log          *zap.Logger
}

func NewAuthHandler(s *store.Store, tokens *middleware.TokenService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{store: s, tokenService: tokens, log: log}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	moderator, err := h.store.ModeratorByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !middleware.VerifyPassword(moderator.PasswordHash, req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	} else if err != nil {
		h.log.Error("moderator lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify credentials"})
		return
	}

	tokens, err := h.tokenService.Generate(moderator.ID)
	if err != nil {
		h.log.Error("token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}
