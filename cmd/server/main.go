package main

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/router"
	"github.com/unithreads/backend/pkg/config"
	"github.com/unithreads/backend/pkg/firebase"
	"github.com/unithreads/backend/pkg/logger"
	"github.com/unithreads/backend/pkg/storage"
	"github.com/unithreads/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Initialize Firebase
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.StorageBucket)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Media reference resolver backed by the Firebase storage bucket
	resolver, err := storage.NewFirebaseResolver(ctx, firebaseApp.FirebaseApp, cfg.StorageBucket)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize media resolver: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	mongoDB := db.Mongo.Database(cfg.MongoDBName)
	if err := router.SetupRoutes(e, db.Postgres, mongoDB, firebaseApp.AuthClient, resolver, cfg); err != nil {
		logger.Log.Fatalf("Failed to set up routes: %v", err)
	}

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
