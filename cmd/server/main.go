package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"brainquest/config"
	"brainquest/controllers"
	"brainquest/db"
	"brainquest/internal/cache"
	"brainquest/internal/logger"
	"brainquest/internal/media"
	"brainquest/internal/scheduler"
	"brainquest/internal/stats"
	"brainquest/middlewares"
	"brainquest/routes"
	"brainquest/services"
	"brainquest/utils"
	"brainquest/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	if cfg.JWT.Secret == "" {
		appLog.Fatal("JWT secret is not configured")
	}
	utils.SetJWTSecret(cfg.JWT.Secret)

	ctx := context.Background()

	database, err := db.ConnectMongoDB(cfg.Database.URI)
	if err != nil {
		appLog.Fatal("failed to connect to MongoDB", "error", err)
	}
	appLog.Info("connected to MongoDB", "database", database.Name())
	if err := db.EnsureIndexes(ctx, database); err != nil {
		appLog.Fatal("failed to create indexes", "error", err)
	}

	users := db.NewUserRepository(database)
	puzzles := db.NewPuzzleRepository(database)
	challenges := db.NewChallengeRepository(database)
	badges := db.NewBadgeRepository(database)
	sessions := db.NewSessionRepository(database)
	admins := db.NewAdminRepository(database)

	if err := db.SeedCatalog(ctx, badges, challenges); err != nil {
		appLog.Fatal("failed to seed catalog", "error", err)
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLog.Warn("redis unavailable, running without cache and rate limiting", "error", err)
		rdb = nil
	}
	catalog := cache.NewCatalog(rdb, badges, challenges, cfg.Redis.CatalogTTL, appLog)
	limiter := cache.NewRateLimiter(rdb, cfg.RateLimit.CheckAnswerPerMinute, time.Minute)

	var images controllers.ImageStore
	if cfg.S3.Bucket != "" {
		store, err := media.NewS3Store(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.BaseURL)
		if err != nil {
			appLog.Fatal("failed to configure S3", "error", err)
		}
		images = store
	} else {
		appLog.Warn("no S3 bucket configured, image uploads disabled")
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		appLog.Fatal("failed to configure answer verifier", "provider", cfg.Verifier.Provider, "error", err)
	}

	hub := websocket.NewHub(appLog)

	streak := services.NewStreakService(users, cfg.Streak.ResetTo, appLog)
	progress := services.NewProgressService(users, hub, appLog)
	progress.RegisterFollowups(
		services.NewLevelService(users, hub, appLog),
		services.NewBadgeService(users, catalog, hub, appLog),
		streak,
		services.NewChallengeService(challenges, users, sessions, catalog, progress, hub, appLog),
	)
	training := services.NewTrainingService(puzzles, sessions, verifier, progress, appLog)
	rotation := services.NewRotationService(puzzles, challenges, users, catalog, cfg.Daily.Puzzles, cfg.Daily.Challenges, appLog)

	rbac, err := middlewares.NewMongoRBAC(cfg.Database.URI, admins, appLog)
	if err != nil {
		appLog.Fatal("failed to initialize RBAC", "error", err)
	}

	var sched *scheduler.Scheduler
	if *cfg.Scheduler.Enabled {
		sched, err = scheduler.New(rotation, cfg.Scheduler.DailyCron, cfg.Scheduler.RolloverCron,
			stats.Location(cfg.Scheduler.Timezone), cfg.Scheduler.JobTimeout, appLog)
		if err != nil {
			appLog.Fatal("failed to configure scheduler", "error", err)
		}
		sched.Start()
	}

	router := setupRouter(cfg, handlers{
		training:     controllers.NewTrainingController(training, sessions, limiter, appLog),
		users:        controllers.NewUserController(users, streak, appLog),
		puzzles:      controllers.NewPuzzleController(puzzles, images, appLog),
		gamification: controllers.NewGamificationController(catalog, rotation, appLog),
		ws:           websocket.NewHandler(hub, cfg.Server.CORSOrigins),
		rbac:         rbac,
	})

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}
	go func() {
		appLog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("server shutdown failed", "error", err)
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		appLog.Error("mongo disconnect failed", "error", err)
	}
}

func newVerifier(ctx context.Context, cfg *config.Config) (services.AnswerVerifier, error) {
	v := cfg.Verifier
	switch v.Provider {
	case "openrouter":
		client := services.NewChatClient(v.OpenRouter.APIKey, v.OpenRouter.URL)
		return services.NewChatVerifier(client, v.Model, v.Timeout), nil
	default:
		return services.NewGeminiVerifier(ctx, v.GeminiKey, v.Model, v.Timeout)
	}
}

type handlers struct {
	training     *controllers.TrainingController
	users        *controllers.UserController
	puzzles      *controllers.PuzzleController
	gamification *controllers.GamificationController
	ws           *websocket.Handler
	rbac         *middlewares.RBAC
}

func setupRouter(cfg *config.Config, h handlers) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	router.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Server is running!"})
	})

	api := router.Group("/api")
	api.Use(middlewares.AuthMiddleware())
	{
		routes.SetupUserRoutes(api, h.users)
		routes.SetupPuzzleRoutes(api, h.puzzles)
		routes.SetupTrainRoutes(api, h.training)
		routes.SetupGamificationRoutes(api, h.gamification)
		routes.SetupAdminRoutes(api, h.gamification, h.rbac)

		api.GET("/ws/progress", h.ws.Progress)
	}

	return router
}
