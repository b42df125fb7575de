package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/config"
	"github.com/stemsi/surveychain/internal/handler"
	"github.com/stemsi/surveychain/internal/middleware"
	"github.com/stemsi/surveychain/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Profile      *handler.ProfileHandler
	Verification *handler.VerificationHandler
	Form         *handler.FormHandler
	Editor       *handler.EditorHandler
	WS           *handler.WSHandler
	Health       *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	manager *auth.Manager,
	limiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log can carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	router.GET("/health", handlers.Health.Health)

	requireSession := middleware.RequireSession(manager)

	// ─── 1. Auth Group (Rate Limited) ──────────────────────────────────
	authAPI := router.Group("/api/v1/auth")
	authAPI.Use(limiter.Middleware())
	{
		authAPI.POST("/login", handlers.Auth.Login)
		authAPI.POST("/logout", requireSession, handlers.Auth.Logout)
		authAPI.GET("/me", requireSession, handlers.Auth.Me)
	}

	// ─── 2. Caller Group ───────────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(requireSession, middleware.CacheControl(0))
	{
		api.GET("/profile", handlers.Profile.GetProfile)
		api.PUT("/profile", handlers.Profile.UpdateProfile)
		api.GET("/wallet/balance", handlers.Profile.GetBalance)
		api.POST("/verification", limiter.Middleware(), handlers.Verification.Verify)
	}

	// ─── 3. Forms Group ────────────────────────────────────────────────
	forms := api.Group("/forms")
	{
		forms.GET("", handlers.Form.ListForms)
		forms.GET("/mine", handlers.Form.ListOwnedForms)
		forms.POST("", handlers.Form.CreateForm)
		forms.GET("/:id", handlers.Form.GetForm)
		forms.POST("/:id/responses", limiter.Middleware(), handlers.Form.SubmitResponse)
		forms.GET("/:id/summary", handlers.Form.GetSummary)
		forms.GET("/:id/journal", handlers.Form.ListJournal)
	}

	// ─── 4. Editor Group (creator only) ────────────────────────────────
	editor := forms.Group("/:id/editor")
	{
		editor.POST("", handlers.Editor.OpenEditor)
		editor.GET("", handlers.Editor.GetEditor)
		editor.DELETE("", handlers.Editor.CloseEditor)

		editor.POST("/questions", handlers.Editor.AddQuestion)
		editor.PUT("/questions/:index", handlers.Editor.UpdateQuestion)
		editor.DELETE("/questions/:index", handlers.Editor.RemoveQuestion)
		editor.POST("/questions/:index/duplicate", handlers.Editor.DuplicateQuestion)
		editor.PUT("/questions/:index/type", handlers.Editor.ChangeQuestionType)
		editor.POST("/questions/:index/options", handlers.Editor.AddOption)
		editor.PUT("/questions/:index/options/:option", handlers.Editor.UpdateOption)
		editor.DELETE("/questions/:index/options/:option", handlers.Editor.RemoveOption)

		editor.POST("/reorder", handlers.Editor.Reorder)
		editor.PATCH("/metadata", handlers.Editor.UpdateMetadata)
		editor.POST("/flush", handlers.Editor.Flush)
		editor.POST("/resync", handlers.Editor.Resync)
		editor.POST("/publish", handlers.Editor.Publish)
	}

	// ─── 5. WebSocket Group (token via query) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(requireSession)
	{
		ws.GET("/forms/:id/events", handlers.WS.FormEvents)
	}

	return router
}
