package main

import (
	"context"
	"log"

	"github.com/incomingclass/backend/internal/router"
	"github.com/incomingclass/backend/pkg/config"
	"github.com/incomingclass/backend/pkg/firebase"
	"github.com/incomingclass/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Firebase auth client for Google sign-in (optional)
	ctx := context.Background()
	firebaseAuth, err := firebase.InitAuthClient(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, db.Redis, firebaseAuth)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
