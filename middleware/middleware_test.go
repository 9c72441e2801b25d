package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeModerators struct {
	ids map[int]bool
	err error
}

func (f fakeModerators) ModeratorExists(_ context.Context, id int) (bool, error) {
	return f.ids[id], f.err
}

func newAuthRouter(tokens *TokenService, mods ModeratorLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secret", AuthMiddleware(tokens, mods, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"moderator": c.GetInt("moderatorID")})
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := NewTokenService([]byte("test-secret"))
	r := newAuthRouter(tokens, fakeModerators{ids: map[int]bool{7: true}})

	login, err := tokens.Generate(7)
	require.NoError(t, err)

	w := get(r, "Bearer "+login.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"moderator":7}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Token "+login.AccessToken).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer not-a-jwt").Code)

	other, err := tokens.Generate(8)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, "Bearer "+other.AccessToken).Code)
}

func TestAuthMiddlewareLookupError(t *testing.T) {
	tokens := NewTokenService([]byte("test-secret"))
	r := newAuthRouter(tokens, fakeModerators{err: errors.New("db down")})

	login, err := tokens.Generate(1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, get(r, "Bearer "+login.AccessToken).Code)
}

func TestTokenServiceRejectsExpiredAndForeignTokens(t *testing.T) {
	tokens := NewTokenService([]byte("test-secret"))
	tokens.now = func() time.Time { return time.Now().Add(-2 * tokenTTL) }
	old, err := tokens.Generate(1)
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Parse(old.AccessToken)
	assert.Error(t, err)

	fresh, err := tokens.Generate(1)
	require.NoError(t, err)
	_, err = NewTokenService([]byte("other-secret")).Parse(fresh.AccessToken)
	assert.Error(t, err)

	claims, err := tokens.Parse(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 1, claims.ModeratorID)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "battery staple"))
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", RateLimit(0.001, 2), func(c *gin.Context) { c.Status(http.StatusCreated) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestLimiterPoolEvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newLimiterPool(1, 1)
	p.now = func() time.Time { return now }
	p.lastSweep = now

	busy := p.get("10.0.0.1")
	p.get("10.0.0.2")
	require.Len(t, p.m, 2)

	now = now.Add(limiterIdleTTL / 2)
	assert.Same(t, busy, p.get("10.0.0.1"))

	now = now.Add(limiterIdleTTL / 2)
	p.get("10.0.0.1")
	assert.Len(t, p.m, 1, "idle client is swept")
	_, ok := p.m["10.0.0.2"]
	assert.False(t, ok)
	assert.Same(t, busy, p.get("10.0.0.1"), "active client keeps its bucket")
}
