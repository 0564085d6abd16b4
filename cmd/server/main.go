package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"

	config "github.com/varunm24/socialflow/configs"
	"github.com/varunm24/socialflow/internal/api/handlers"
	"github.com/varunm24/socialflow/internal/api/middleware"
	"github.com/varunm24/socialflow/internal/executor"
	job "github.com/varunm24/socialflow/internal/jobs"
	"github.com/varunm24/socialflow/internal/lock"
	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/platform"
	"github.com/varunm24/socialflow/internal/queue"
	"github.com/varunm24/socialflow/internal/repository"
	"github.com/varunm24/socialflow/internal/scheduler"
	"github.com/varunm24/socialflow/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer redisClient.Close()

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	asynqClient := asynq.NewClient(redisConn)
	defer asynqClient.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("request failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	postAccountRepo := repository.NewPostAccountRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	queueClient := queue.NewClient(asynqClient)

	authService := service.NewAuthService(cfg, userRepo)
	userService := service.NewUserService(userRepo)
	r2Service := service.NewR2Service(cfg)
	postService := service.NewPostService(db, postRepo, postAccountRepo, socialAccountRepo, mediaAssetRepo, r2Service, queueClient)
	platformService := service.NewPlatformService(cfg, socialAccountRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)
	usageService := service.NewUsageService(subscriptionRepo, usageRepo)
	paymentService := service.NewPaymentService(paymentRepo, subscriptionRepo, postRepo, postAccountRepo, queueClient)

	credProvider := platform.NewProvider(*cfg, socialAccountRepo)
	publishers := map[string]platform.Publisher{
		models.PlatformInstagram: platform.NewInstagramPublisher(socialAccountRepo),
		models.PlatformYoutube:   platform.NewYoutubePublisher(),
	}

	lockManager := lock.NewManager(redisClient, cfg.LockTTL, cfg.LockWait)
	postExecutor := executor.New(postRepo, postAccountRepo, socialAccountRepo, usageService, lockManager, credProvider, publishers)
	queueWorker := queue.NewQueue(postRepo, postExecutor)

	authMiddleware := middleware.NewAuthMiddleware(cfg, apiKeyService)

	auth := handlers.NewAuthHandler(cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	platformHandler := handlers.NewPlatformHandler(platformService, cfg)
	app.Get("/auth/:platform", platformHandler.AddSocialAccount)
	app.Get("/auth/:platform/callback", platformHandler.CallbackHandler)

	payment := handlers.NewPaymentHandler(paymentService)
	app.Post("/webhook/payment", payment.PaymentWebhook)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/cancel", post.CancelPost)
	api.Post("/posts/repost", post.RepostPost)
	api.Post("/posts/remove", post.RemovePost)

	api.Get("/accounts", platformHandler.ListSocialAccounts)
	api.Post("/accounts/remove", platformHandler.DeleteSocialAccount)
	api.Post("/accounts/instagram/connect", platformHandler.ConnectInstagram)

	api.Post("/billing/subscribe", payment.CreateSubscriptionCheckout)
	api.Post("/billing/post", payment.CreatePostCheckout)

	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, credProvider)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	postScheduler := scheduler.New(postRepo, queueClient, cfg.SchedulerInterval)
	go postScheduler.Run(ctx)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeExecutePost, queueWorker.HandleExecutePostTask)

		slog.Info("starting task worker")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("server is running", "addr", "http://localhost:3000")

	gracefulShutdown(app, cancel)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("shutting down server")

	cancel()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	slog.Info("server shutdown complete")
}
