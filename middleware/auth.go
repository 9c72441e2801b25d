package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"postboard/models"
)

const tokenTTL = 12 * time.Hour

// ModeratorLookup confirms that a token subject still exists.
type ModeratorLookup interface {
	ModeratorExists(ctx context.Context, id int) (bool, error)
}

// AuthMiddleware creates a gin middleware that only lets moderators through.
func AuthMiddleware(tokens *TokenService, moderators ModeratorLookup, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be in the format: Bearer {token}"})
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			log.Debug("token validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		exists, err := moderators.ModeratorExists(c.Request.Context(), claims.ModeratorID)
		if err != nil {
			log.Error("moderator lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify moderator"})
			return
		}
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Only moderators can do this"})
			return
		}

		c.Set("moderatorID", claims.ModeratorID)
		c.Next()
	}
}

// TokenService signs and validates moderator access tokens.
type TokenService struct {
	JWTSecret []byte
	now       func() time.Time
}

func NewTokenService(jwtSecret []byte) *TokenService {
	return &TokenService{JWTSecret: jwtSecret, now: time.Now}
}

// Generate creates an access token for the moderator.
func (s *TokenService) Generate(moderatorID int) (*models.LoginResponse, error) {
	now := s.now()
	expires := now.Add(tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.Claims{
		ModeratorID: moderatorID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(s.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("error signing token: %w", err)
	}
	return &models.LoginResponse{AccessToken: signed, ExpiresAt: expires.UTC()}, nil
}

// Parse validates a signed token and returns its claims.
func (s *TokenService) Parse(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.JWTSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// VerifyPassword checks if a password matches the hashed version
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// HashPassword creates a bcrypt hash of a password
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}
