package main

import (
	"github.com/planhive/planhive/backend/internal/config"
	"github.com/planhive/planhive/backend/internal/handlers"
	"github.com/planhive/planhive/backend/internal/models"
	"github.com/planhive/planhive/backend/internal/services"
	"github.com/planhive/planhive/backend/internal/utils"
	"github.com/planhive/planhive/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	hub               *services.Hub
	authHandler       *handlers.AuthHandler
	userHandler       *handlers.UserHandler
	projectHandler    *handlers.ProjectHandler
	taskHandler       *handlers.TaskHandler
	invitationHandler *handlers.InvitationHandler
	wsHandler         *handlers.WSHandler
}

// bootstrap initializes all application dependencies: database, hub, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	// Start refresh token cleanup scheduler
	services.StartTokenCleanupScheduler(db)

	// Hub for live connections
	hub := services.NewHub(cfg.Hub.SendBuffer)

	return &appServices{
		hub:               hub,
		authHandler:       handlers.NewAuthHandler(db, cfg, hub),
		userHandler:       handlers.NewUserHandler(db, hub),
		projectHandler:    handlers.NewProjectHandler(db),
		taskHandler:       handlers.NewTaskHandler(db),
		invitationHandler: handlers.NewInvitationHandler(db, hub),
		wsHandler:         handlers.NewWSHandler(hub),
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	services.StopTokenCleanupScheduler()
	logger.Info().Msg("All schedulers stopped")
}
