package router

import (
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/unithreads/backend/internal/handlers"
	"github.com/unithreads/backend/internal/middleware"
	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/internal/repositories"
	"github.com/unithreads/backend/internal/scheduler"
	"github.com/unithreads/backend/pkg/config"
	"github.com/unithreads/backend/pkg/logger"
	"github.com/unithreads/backend/pkg/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	logger.Log.Info("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mongoDB *mongo.Database, firebaseAuthClient *auth.Client, resolver storage.Resolver, cfg *config.Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}

	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Like{},
		&models.SavedPost{},
		&models.PollVote{},
		&models.Follow{},
		&models.FollowRequest{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}
	logger.Log.Info("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	likeRepo := repositories.NewPostgresLikeRepository(pgdb)
	savedPostRepo := repositories.NewPostgresSavedPostRepository(pgdb)
	pollVoteRepo := repositories.NewPostgresPollVoteRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	followRequestRepo := repositories.NewPostgresFollowRequestRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)

	enricher := handlers.NewPostEnricher(userRepo, likeRepo, savedPostRepo, resolver)

	// --- Unprotected routes ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)

	if cfg.WebhookSecret != "" {
		webhookHandler, err := handlers.NewWebhookHandler(userRepo, cfg.WebhookSecret)
		if err != nil {
			return err
		}
		webhookHandler.RegisterWebhookRoutes(e)
		logger.Log.Info("Identity webhook endpoint configured.")
	} else {
		logger.Log.Warn("IDENTITY_WEBHOOK_SECRET not set; identity webhook endpoint disabled.")
	}

	// Scheduled post sweep, driven by an external timer.
	publisher := scheduler.NewPublisher(postRepo)
	scheduledHandler := handlers.NewScheduledPostHandler(postRepo, userRepo, publisher)
	scheduledHandler.RegisterInternalRoutes(e)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	userHandler := handlers.NewUserHandler(userRepo, resolver)
	userHandler.RegisterProfileRoutes(api)

	postHandler := handlers.NewPostHandler(postRepo, userRepo, enricher)
	postHandler.RegisterPostRoutes(api)

	feedHandler := handlers.NewFeedHandler(postRepo, userRepo, followRepo, enricher)
	feedHandler.RegisterFeedRoutes(api)

	draftHandler := handlers.NewDraftHandler(postRepo, userRepo)
	draftHandler.RegisterDraftRoutes(api)

	scheduledHandler.RegisterScheduledRoutes(api)

	followHandler := handlers.NewFollowHandler(followRepo, followRequestRepo, userRepo, notificationRepo)
	followHandler.RegisterFollowRoutes(api)

	followRequestHandler := handlers.NewFollowRequestHandler(followRequestRepo, followRepo, userRepo, notificationRepo)
	followRequestHandler.RegisterFollowRequestRoutes(api)

	likeHandler := handlers.NewLikeHandler(likeRepo, postRepo, userRepo, notificationRepo)
	likeHandler.RegisterLikeRoutes(api)

	pollHandler := handlers.NewPollHandler(pollVoteRepo, postRepo, userRepo)
	pollHandler.RegisterPollRoutes(api)

	savedPostHandler := handlers.NewSavedPostHandler(savedPostRepo, postRepo, userRepo, enricher)
	savedPostHandler.RegisterSavedPostRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)

	logger.Log.Info("All application routes configured.")
	return nil
}
