package main

import (
	"os"

	"github.com/yigit/scholarhub/internal/pkg/logger"
	"github.com/yigit/scholarhub/internal/server"
)

// @title ScholarHub API
// @version 1.0
// @description Scholarship management API: scholarships, applications, reviews, payments and notifications.

// @contact.name API Support
// @contact.email support@scholarhub.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT access token, sent as "Bearer <token>"

func main() {
	srv, err := server.NewServer()
	if err != nil {
		// setup failures are already logged in detail by bootstrap
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// blocks until shutdown
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
