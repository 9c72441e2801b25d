package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"postboard/cache"
	"postboard/events"
	"postboard/handlers"
	"postboard/metrics"
	"postboard/middleware"
	"postboard/store"
	"postboard/web"
)

// Dependencies are the collaborators shared by the handlers.
type Dependencies struct {
	Store     *store.Store
	Cache     cache.ResponseCache
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Tokens    *middleware.TokenService
	Log       *zap.Logger

	RateLimitRPS   float64
	RateLimitBurst int
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine, deps Dependencies) error {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Noop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("error parsing templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)
	r.Use(deps.Metrics.Middleware())

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.Store)
	pageHandler := handlers.NewPageHandler(deps.Store, deps.Log)
	authHandler := handlers.NewAuthHandler(deps.Store, deps.Tokens, deps.Log)
	postHandler := handlers.NewPostHandler(deps.Store, deps.Cache, deps.Metrics, deps.Log)
	responseHandler := handlers.NewResponseHandler(deps.Store, deps.Cache, deps.Publisher, deps.Metrics, deps.Log)

	// Site
	r.GET("/", pageHandler.Home)
	r.StaticFS("/assets", http.FS(web.Assets()))
	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/metrics", deps.Metrics.Handler())

	// Public routes
	r.POST("/login", authHandler.Login)

	r.GET("/posts", postHandler.GetPosts)
	r.POST("/posts", postHandler.CreatePost)
	r.GET("/posts/:id", postHandler.GetPost)

	limit := middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst)
	r.GET("/posts/:id/responses", responseHandler.GetPostResponses)
	r.POST("/posts/:id/responses", limit, responseHandler.CreatePostResponse)
	r.GET("/responses", responseHandler.GetResponses)
	r.POST("/responses", limit, responseHandler.CreateResponse)

	// Moderator routes
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.Tokens, deps.Store, deps.Log))
	{
		protected.DELETE("/posts/:id", postHandler.DeletePost)
		protected.DELETE("/responses/:id", responseHandler.DeleteResponse)
	}

	return nil
}
