package main

import (
	"database/sql"
	"fmt"
	"log"
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
	config "github.com/postloom/postloom/configs"
	"github.com/postloom/postloom/internal/api/handlers"
	"github.com/postloom/postloom/internal/api/middleware"
	job "github.com/postloom/postloom/internal/jobs"
	"github.com/postloom/postloom/internal/queue"
	"github.com/postloom/postloom/internal/repository"
	"github.com/postloom/postloom/internal/service"
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
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
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

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	scheduledPostRepo := repository.NewScheduledPostRepository(db)
	generationJobRepo := repository.NewGenerationJobRepository(db)
	postUsageRepo := repository.NewPostUsageRepository(db)

	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	openaiService := service.NewOpenAIService(*cfg)
	r2Service := service.NewR2Service(*cfg)
	linkedinService := service.NewLinkedinService(*cfg, socialAccountRepo)
	facebookService := service.NewFacebookService(*cfg, socialAccountRepo)
	twitterService := service.NewTwitterService(*cfg, socialAccountRepo)
	instagramService := service.NewInstagramService(*cfg, socialAccountRepo)
	publisher := service.NewPublisher(*cfg, socialAccountRepo,
		linkedinService, facebookService, twitterService, instagramService)
	postService := service.NewPostService(postRepo, postUsageRepo, openaiService, r2Service, publisher)
	platformService := service.NewPlatformService(*cfg, socialAccountRepo)
	schedulerService := service.NewSchedulerService(scheduledPostRepo, publisher)
	poller := service.NewPoller(schedulerService, service.DefaultPollInterval)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, authService, userService)
	app.Post("/auth/register", auth.Register)
	app.Post("/auth/login", auth.Login)
	app.Post("/auth/logout", auth.Logout)

	platform := handlers.NewPlatformHandler(*cfg, platformService,
		linkedinService, facebookService, twitterService, instagramService)
	app.Get("/auth/:platform/callback", platform.Callback)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	// static route first so :platform cannot capture it
	api.Get("/auth/profile", auth.GetProfile)
	api.Put("/auth/profile", auth.UpdateProfile)
	api.Get("/auth/:platform", platform.Connect)
	api.Get("/accounts", platform.ListAccounts)
	api.Delete("/accounts/:id", platform.RemoveAccount)

	post := handlers.NewPostHandler(postService, generationJobRepo, client)
	api.Post("/posts/generate", post.Generate)
	api.Post("/posts/generate-async", post.GenerateAsync)
	api.Get("/posts/jobs/:id", post.GetGenerationJob)
	api.Get("/posts/usage", post.GetUsage)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Put("/posts/:id", post.UpdatePost)
	api.Delete("/posts/:id", post.DeletePost)
	api.Post("/posts/:id/publish", post.PublishPost)

	scheduler := handlers.NewSchedulerHandler(schedulerService, postService, poller)
	api.Post("/scheduler/schedule", scheduler.SchedulePost)
	api.Post("/scheduler/schedule-existing", scheduler.ScheduleExistingPost)
	api.Get("/scheduler/scheduled", scheduler.ListScheduled)
	api.Delete("/scheduler/scheduled/:id", scheduler.CancelScheduled)
	api.Put("/scheduler/scheduled/:id/reschedule", scheduler.Reschedule)
	api.Post("/scheduler/process", scheduler.ProcessScheduled)

	// cron jobs
	processDueJob := job.NewProcessDueJob(poller)

	// queue
	queueW := queue.NewQueue(generationJobRepo, postService)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", processDueJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeGeneratePost, queueW.HandleGeneratePostTask)

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
