package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"anoa.com/devconnector/internal/config"
	"anoa.com/devconnector/internal/middleware"
	"anoa.com/devconnector/pkg/token"
	"anoa.com/devconnector/pkg/validator"

	githubHttp "anoa.com/devconnector/internal/modules/github/delivery/http"
	githubService "anoa.com/devconnector/internal/modules/github/service"

	notifHttp "anoa.com/devconnector/internal/modules/notification/delivery/http"
	notifService "anoa.com/devconnector/internal/modules/notification/service"

	postHttp "anoa.com/devconnector/internal/modules/post/delivery/http"
	postRepo "anoa.com/devconnector/internal/modules/post/repository"
	postService "anoa.com/devconnector/internal/modules/post/service"

	profileHttp "anoa.com/devconnector/internal/modules/profile/delivery/http"
	profileRepo "anoa.com/devconnector/internal/modules/profile/repository"
	profileService "anoa.com/devconnector/internal/modules/profile/service"

	searchService "anoa.com/devconnector/internal/modules/search/service"

	userHttp "anoa.com/devconnector/internal/modules/user/delivery/http"
	userRepo "anoa.com/devconnector/internal/modules/user/repository"
	userService "anoa.com/devconnector/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *cron.Cron
}

// NewServer wires every module. redisClient and meiliClient are optional;
// without them rate limiting, caching, notifications and search are off.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, meiliClient meilisearch.ServiceManager) (*Server, error) {
	validator.Setup()
	tokens := token.NewService(cfg.JWTSecret, cfg.JWTTTL)

	userRepo := userRepo.NewUserRepository(db)
	userSvc := userService.NewUserService(userRepo, tokens, cfg.BcryptCost)
	userHandler := userHttp.NewUserHandler(userSvc)

	profileSvc := profileService.NewProfileService(profileRepo.NewProfileRepository(db))
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	githubSvc := githubService.NewGithubService(cfg.GithubAPIURL, cfg.GithubToken, redisClient, cfg.GithubCacheTTL)
	githubHandler := githubHttp.NewGithubHandler(githubSvc)

	// Notification Module
	notificationSvc := notifService.NewNotificationService(redisClient)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, cfg.AllowedOrigins)

	var searchSvc searchService.SearchService
	if meiliClient != nil {
		searchSvc = searchService.NewMeiliSearchService(meiliClient)
	}

	postSvc := postService.NewPostService(
		postRepo.NewPostRepository(db),
		userRepo,
		redisClient,
		notificationSvc,
		searchSvc,
		postService.RateLimits{Post: cfg.RateLimitPost, Comment: cfg.RateLimitComment},
	)
	postHandler := postHttp.NewPostHandler(postSvc)

	scheduler, err := newScheduler(cfg, postSvc, searchSvc != nil)
	if err != nil {
		return nil, err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(middleware.RequestLogger("/"))
	router.Use(middleware.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API Running")
	})

	authMiddleware := middleware.NewAuthMiddleware(tokens)
	requireAuth := authMiddleware.RequireAuth()

	api := router.Group("/api")

	api.POST("/user", userHandler.Register)

	auth := api.Group("/auth")
	{
		auth.GET("", requireAuth, userHandler.Me)
		auth.POST("", userHandler.Login)
	}

	profile := api.Group("/profile")
	{
		profile.GET("", profileHandler.GetAllProfiles)
		profile.GET("/user/:user_id", profileHandler.GetProfileByUserID)
		profile.GET("/github/:username", githubHandler.GetRepos)

		profile.GET("/me", requireAuth, profileHandler.GetCurrentProfile)
		profile.POST("", requireAuth, profileHandler.UpsertProfile)
		profile.DELETE("", requireAuth, profileHandler.DeleteAccount)
		profile.PUT("/experience", requireAuth, profileHandler.AddExperience)
		profile.DELETE("/experience/:exp_id", requireAuth, profileHandler.DeleteExperience)
		profile.PUT("/education", requireAuth, profileHandler.AddEducation)
		profile.DELETE("/education/:edu_id", requireAuth, profileHandler.DeleteEducation)
	}

	post := api.Group("/post")
	post.Use(requireAuth)
	{
		post.GET("", postHandler.GetPosts)
		post.POST("", postHandler.CreatePost)
		post.GET("/search", postHandler.SearchPosts)
		post.GET("/:post_id", postHandler.GetPostByID)
		post.DELETE("/:post_id", postHandler.DeletePost)
		post.PUT("/like/:post_id", postHandler.LikePost)
		post.PUT("/unlike/:post_id", postHandler.UnlikePost)
		post.POST("/comment/:post_id", postHandler.AddComment)
		post.DELETE("/comment/:post_id/:comment_id", postHandler.DeleteComment)
	}

	api.GET("/notifications/ws", requireAuth, notificationHandler.HandleWebSocket)

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.scheduler.Start()
	defer func() {
		<-s.scheduler.Stop().Done()
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.TokenHeader},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
