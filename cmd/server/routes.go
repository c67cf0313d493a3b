package main

import (
	"github.com/gin-gonic/gin"
	"github.com/planhive/planhive/backend/internal/middleware"
	"github.com/planhive/planhive/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for credential endpoints
	authLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "planhive"})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/signup", svc.authHandler.SignUp)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}

		// Live connection endpoint (token validated during the upgrade)
		api.GET("/ws", svc.wsHandler.Serve)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Users
			protected.GET("/users", svc.userHandler.List)
			protected.GET("/users/:id", svc.userHandler.GetByID)
			protected.GET("/users/:id/projects", svc.userHandler.ListProjects)
			protected.GET("/users/:id/connections", svc.userHandler.OnlineCollaborators)

			// Projects
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects", svc.projectHandler.List)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)
			protected.PATCH("/projects/:id/completed", svc.projectHandler.SetCompleted)
			protected.PATCH("/projects/:id/date", svc.projectHandler.SetDate)
			protected.GET("/projects/:id/progress", svc.projectHandler.Progress)
			protected.GET("/projects/:id/collaborators", svc.projectHandler.ListCollaborators)
			protected.POST("/projects/:id/collaborators", svc.projectHandler.AddCollaborator)
			protected.DELETE("/projects/:id/collaborators/:userId", svc.projectHandler.RemoveCollaborator)

			// Tasks (nested under their project for creation and listing)
			protected.POST("/projects/:id/tasks", svc.taskHandler.Create)
			protected.GET("/projects/:id/tasks", svc.taskHandler.ListByProject)
			protected.GET("/tasks/:id", svc.taskHandler.GetByID)
			protected.PUT("/tasks/:id", svc.taskHandler.Update)
			protected.DELETE("/tasks/:id", svc.taskHandler.Delete)
			protected.PATCH("/tasks/:id/completed", svc.taskHandler.SetCompleted)
			protected.PATCH("/tasks/:id/status", svc.taskHandler.SetStatus)
			protected.PATCH("/tasks/:id/date", svc.taskHandler.SetDate)
			protected.POST("/tasks/:id/collaborators", svc.taskHandler.AddCollaborator)
			protected.DELETE("/tasks/:id/collaborators/:userId", svc.taskHandler.RemoveCollaborator)

			// Invitations
			protected.GET("/invitations", svc.invitationHandler.List)
			protected.POST("/invitations/accept", svc.invitationHandler.Accept)
			protected.POST("/invitations/decline", svc.invitationHandler.Decline)
		}
	}
}
