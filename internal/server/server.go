package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
	"github.com/emilythestrangee/readshelf/backend/internal/config"
	"github.com/emilythestrangee/readshelf/backend/internal/database"
	"github.com/emilythestrangee/readshelf/backend/internal/googlebooks"
	"github.com/emilythestrangee/readshelf/backend/internal/handlers"
	"github.com/emilythestrangee/readshelf/backend/internal/mailer"
	"github.com/emilythestrangee/readshelf/backend/internal/middleware"
	"github.com/emilythestrangee/readshelf/backend/internal/ratelimit"
	"github.com/emilythestrangee/readshelf/backend/internal/service"
	"github.com/emilythestrangee/readshelf/backend/internal/storage"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

type Server struct {
	cfg         *config.Config
	log         *zap.Logger
	handler     *handlers.Handler
	auth        *service.AuthService
	authLimiter *ratelimit.KeyedRateLimiter
}

// New wires the services and handlers. store may be nil when object storage
// is not configured; upload endpoints then answer with SERVER_CONFIG.
func New(cfg *config.Config, db database.Service, store *storage.Storage, log *zap.Logger) *Server {
	gdb := db.GetDB()
	v := validation.New()

	var (
		uploader  service.ObjectUploader
		presigner service.Presigner
	)
	if store != nil {
		uploader = store
		presigner = store
	}

	m := mailer.New(cfg.Mail, cfg.App.ClientURL, log)
	books := googlebooks.NewClient(cfg.GoogleBooks, log)

	svc := handlers.Services{
		Auth:       service.NewAuthService(gdb, cfg.Auth, m, v, log),
		Users:      service.NewUserService(gdb, v, log),
		Social:     service.NewSocialService(gdb, log),
		Feed:       service.NewFeedService(gdb, v, log),
		Engagement: service.NewEngagementService(gdb, v, log),
		Books:      service.NewBookService(gdb, books, uploader, v, log),
		Uploads:    service.NewUploadService(presigner, v, log),
	}

	return &Server{
		cfg:         cfg,
		log:         log,
		handler:     handlers.NewHandler(db, svc, v),
		auth:        svc.Auth,
		authLimiter: ratelimit.New(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst),
	}
}

// HTTPServer returns the configured http.Server
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Server.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  s.cfg.Server.IdleTimeout,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.authLimiter.Stop()
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(s.log), middleware.RequestLogger(s.log), middleware.ErrorHandler(s.log))

	// CORS configuration
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * 3600,
	}
	if allowsAll(s.cfg.Server.CORSOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.Server.CORSOrigins
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))

	h := s.handler
	requireAuth := middleware.RequireAuth(s.auth)

	r.GET("/health", h.Health.Health)

	auth := r.Group("/auth")
	{
		limited := auth.Group("", middleware.RateLimit(s.authLimiter))
		limited.POST("/signup", h.Auth.Signup)
		limited.POST("/login", h.Auth.Login)
		limited.POST("/forgot-password", h.Auth.ForgotPassword)
		limited.POST("/reset-password", h.Auth.ResetPassword)

		auth.POST("/logout", requireAuth, h.Auth.Logout)
	}

	users := r.Group("/users")
	{
		users.GET("/search", h.User.Search)
		users.GET("/profile", requireAuth, h.User.GetProfile)
		users.PUT("/profile", requireAuth, h.User.UpdateProfile)
		users.GET("/:username", h.User.GetByUsername)
	}

	social := r.Group("/social")
	{
		social.GET("/followers/:userId", h.Social.Followers)
		social.GET("/following/:userId", h.Social.Following)

		social.POST("/follow", requireAuth, h.Social.Follow)
		social.DELETE("/follow/:userId", requireAuth, h.Social.Unfollow)
		social.GET("/suggestions", requireAuth, h.Social.Suggestions)
	}

	r.GET("/feed", requireAuth, h.Feed.GetFeed)

	posts := r.Group("/posts")
	{
		posts.GET("/:id/comments", h.Engagement.GetComments)

		protected := posts.Group("", requireAuth)
		protected.POST("", h.Feed.CreatePost)
		protected.GET("/:id", h.Feed.GetPost)
		protected.POST("/:id/like", h.Engagement.LikePost)
		protected.DELETE("/:id/like", h.Engagement.UnlikePost)
		protected.POST("/:id/comments", h.Engagement.CreateComment)
	}

	books := r.Group("/books")
	{
		books.GET("", h.Book.ListBooks)
		books.GET("/search", h.Book.SearchGoogle)
		books.GET("/search/isbn/:isbn", h.Book.SearchISBN)
		books.GET("/:id", h.Book.GetBook)

		books.POST("/from-google", requireAuth, h.Book.ImportGoogle)
		books.POST("/custom", requireAuth, h.Book.CreateCustom)
	}

	r.POST("/uploads/presign", requireAuth, h.Upload.Presign)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{Message: "route not found", Code: apperrors.CodeNotFound})
	})

	return r
}

func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
