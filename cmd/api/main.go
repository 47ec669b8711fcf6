package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	natsgo "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sidang-go-api/internal/config"
	"github.com/noah-isme/sidang-go-api/internal/database"
	"github.com/noah-isme/sidang-go-api/internal/handler"
	"github.com/noah-isme/sidang-go-api/internal/middleware"
	"github.com/noah-isme/sidang-go-api/internal/models"
	"github.com/noah-isme/sidang-go-api/internal/repository"
	"github.com/noah-isme/sidang-go-api/internal/router"
	"github.com/noah-isme/sidang-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Evaluator{},
		&models.StudentGroup{},
		&models.DefenseSchedule{},
		&models.PanelistEvaluation{},
		&models.StudentEvaluation{},
		&models.FormSchema{},
		&models.EvaluationEvent{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, dashboard cache disabled")
	}

	var natsConn *natsgo.Conn
	if cfg.NatsURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NatsURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, evaluation events will not fan out")
		} else {
			defer natsConn.Close()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	panelistRepo := repository.NewPanelistEvaluationRepository(db)
	studentRepo := repository.NewStudentEvaluationRepository(db)
	evaluatorRepo := repository.NewEvaluatorRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	formSchemaRepo := repository.NewFormSchemaRepository(db)
	eventRepo := repository.NewEvaluationEventRepository(db)

	eventRecorder := service.NewEventRecorder(eventRepo, natsConn, cfg.EventSubject, validate, logger)
	assignmentService := service.NewAssignmentService(panelistRepo, studentRepo, evaluatorRepo, scheduleRepo, eventRecorder, validate, logger, cfg.AssignFanout)
	evaluationService := service.NewEvaluationService(panelistRepo, studentRepo, formSchemaRepo, eventRecorder, validate, logger)
	dashboardService := service.NewDashboardService(panelistRepo, studentRepo, scheduleRepo, redisClient, cfg.DashboardCacheTTL, validate, logger)
	formSchemaService := service.NewFormSchemaService(formSchemaRepo, validate, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, dashboardService, logger)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, dashboardService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)
	formSchemaHandler := handler.NewFormSchemaHandler(formSchemaService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: assignmentHandler,
		EvaluationHandler: evaluationHandler,
		DashboardHandler:  dashboardHandler,
		FormSchemaHandler: formSchemaHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
