// Package server assembles the stores, services and HTTP routes.
package server

import (
	"log/slog"
	"net/http"

	"docvault/internal/auth"
	"docvault/internal/blob"
	"docvault/internal/config"
	"docvault/internal/documents"
	"docvault/internal/folders"
	"docvault/internal/memos"
	"docvault/internal/middleware"
	"docvault/internal/notify"
	"docvault/internal/search"
	"docvault/internal/sharing"
	"docvault/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Blobs  blob.Store
	Redis  *redis.Client // optional
	Logger *slog.Logger
}

type App struct {
	Router        *gin.Engine
	Hub           *notify.Hub
	Notifications *notify.Service
	Sweeper       *notify.Sweeper
}

func New(deps Deps) *App {
	cfg, logger := deps.Config, deps.Logger

	notificationStore := notify.NewGormStore(deps.DB)
	hub := notify.NewHub(deps.Redis, logger)
	notifications := notify.NewService(notificationStore, hub, logger)

	documentStore := documents.NewGormStore(deps.DB)
	folderStore := folders.NewGormStore(deps.DB)
	userStore := users.NewGormStore(deps.DB)

	documentService := documents.NewService(documentStore, deps.Blobs, folderStore, notifications, cfg.Blob.SignedURLTTL, logger)
	userService := users.NewService(userStore, notifications, documentService, logger)

	policy := auth.OriginPolicy{AllowedOrigins: cfg.AllowedOrigins, AllowAll: cfg.AllowAllOrigins}

	h := handlers{
		auth:          auth.NewHandler(deps.DB, cfg.JWTKey, cfg.TokenTTL, cfg.CookieSecure, logger),
		users:         users.NewHandler(userService, logger),
		documents:     documents.NewHandler(documentService, cfg.MaxUploadBytes, logger),
		sharing:       sharing.NewHandler(sharing.NewService(documentStore, userStore, notifications, logger), logger),
		folders:       folders.NewHandler(folders.NewService(folderStore, documentStore), logger),
		memos:         memos.NewHandler(memos.NewService(deps.DB, notifications, logger), logger),
		search:        search.NewHandler(search.NewService(userService, documentService), logger),
		notifications: notify.NewHandler(notifications, hub, policy.CheckOrigin, logger),
	}

	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(auth.CORSMiddleware(policy))
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())
	}
	registerRoutes(r, h, auth.MiddleWare(cfg.JWTKey, deps.DB, logger), auth.RequireAdmin(logger))

	return &App{
		Router:        r,
		Hub:           hub,
		Notifications: notifications,
		Sweeper:       notify.NewSweeper(notificationStore, cfg.NotificationRetention, logger),
	}
}

func (a *App) Close() {
	a.Hub.Close()
}

type handlers struct {
	auth          *auth.Handler
	users         *users.Handler
	documents     *documents.Handler
	sharing       *sharing.Handler
	folders       *folders.Handler
	memos         *memos.Handler
	search        *search.Handler
	notifications *notify.Handler
}

func registerRoutes(r *gin.Engine, h handlers, authenticated, adminOnly gin.HandlerFunc) {
	r.POST("/login", h.auth.Login)
	r.POST("/register", h.auth.Register)
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := r.Group("/")
	protected.Use(authenticated)

	protected.POST("/logout", h.auth.Logout)
	protected.GET("/profile", h.auth.Profile)

	protected.GET("/users", adminOnly, h.users.List)
	protected.GET("/users/suggestions", h.users.Suggestions)
	protected.GET("/users/:id", h.users.Get)
	protected.PUT("/users/:id", h.users.Update)
	protected.DELETE("/users/:id", adminOnly, h.users.Delete)
	protected.PATCH("/users/:id/make-admin", h.users.MakeAdmin)
	protected.PATCH("/users/:id/revoke-admin", h.users.RevokeAdmin)

	protected.POST("/upload", h.documents.Upload)
	protected.GET("/documents", h.documents.List)
	protected.GET("/documents/suggestions", h.documents.Suggestions)
	protected.GET("/documents/:id", h.documents.Get)
	protected.GET("/documents/:id/download", h.documents.Download)
	protected.DELETE("/documents/:id", h.documents.Delete)
	protected.POST("/documents/:id/share", h.sharing.Share)
	protected.GET("/documents/:id/shares", h.sharing.Members)
	protected.DELETE("/documents/:id/share/:userId", h.sharing.Unshare)

	protected.POST("/createFolder", h.folders.Create)
	protected.GET("/folders", h.folders.List)
	protected.GET("/folders/:id/documents", h.folders.Documents)
	protected.PATCH("/folders/:id/move", h.folders.Move)
	protected.PATCH("/folders/:id", h.folders.Rename)
	protected.DELETE("/folders/:id", h.folders.Delete)

	protected.GET("/memos", h.memos.List)
	protected.POST("/memos", adminOnly, h.memos.Create)
	protected.PUT("/memos/:id", adminOnly, h.memos.Update)
	protected.DELETE("/memos/:id", adminOnly, h.memos.Delete)

	protected.GET("/global-search", h.search.Search)

	protected.GET("/notifications", h.notifications.List)
	protected.GET("/notifications/ws", h.notifications.Stream)
	protected.PUT("/notifications/:id/read", h.notifications.MarkRead)
	protected.DELETE("/notifications/:id", h.notifications.Delete)
}
