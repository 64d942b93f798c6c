package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/arjunmk/postpilot/configs"
	"github.com/arjunmk/postpilot/internal/api/handlers"
	job "github.com/arjunmk/postpilot/internal/jobs"
	"github.com/arjunmk/postpilot/internal/queue"
	"github.com/arjunmk/postpilot/internal/repository"
	"github.com/arjunmk/postpilot/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
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

	socialAccountRepo := repository.NewSocialAccountRepository(db)
	postRepo := repository.NewPostRepository(db)
	imageGenRepo := repository.NewImageGenerationRepository(db)

	storageService := service.NewStorageService(*cfg)
	facebookService := service.NewFacebookService(*cfg, socialAccountRepo)
	publisherService := service.NewPublisherService(*cfg, postRepo, socialAccountRepo)
	postService := service.NewPostService(db, postRepo, socialAccountRepo, publisherService)
	imageService := service.NewImageService(*cfg, imageGenRepo, storageService)

	api := app.Group("/api")

	auth := handlers.NewAuthHandler(*cfg, facebookService)
	api.Get("/auth/facebook/login", auth.FacebookLogin)
	api.Get("/auth/facebook/callback", auth.FacebookCallback)

	account := handlers.NewAccountHandler(facebookService)
	api.Get("/accounts", account.ListAccounts)
	api.Post("/accounts", account.ConnectAccount)
	api.Delete("/accounts/:id", account.DisconnectAccount)

	post := handlers.NewPostHandler(postService, publisherService, client)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts", post.CreatePost)
	api.Post("/posts/:id/approve", post.ApprovePost)
	api.Post("/posts/:id/publish", post.PublishPost)

	image := handlers.NewImageHandler(imageService)
	api.Post("/images/generate", image.GenerateImage)

	// cron jobs
	tokenRefreshJob := job.NewTokenRefreshJob(socialAccountRepo, facebookService)
	scheduleSweepJob := job.NewScheduleSweepJob(postRepo, client)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", tokenRefreshJob.RefreshTokens)
	c.AddFunc("@every 00h01m00s", scheduleSweepJob.Sweep)
	c.Start()

	// queue
	queueW := queue.NewQueue(postRepo, publisherService)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
