package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/projectdesk/internal/handlers"
	"github.com/huangang/projectdesk/internal/middleware"
	"github.com/huangang/projectdesk/internal/services"
	"github.com/huangang/projectdesk/internal/views"
	"github.com/huangang/projectdesk/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, app *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS(app.cfg.CORS.AllowOrigins))
	r.SetHTMLTemplate(views.Templates())

	authHandler := handlers.NewAuthHandler(app.accounts, app.sessions, app.profiles, app.cookies)
	dashboardHandler := handlers.NewDashboardHandler(app.sessions, app.profiles, app.projects, app.cookies)
	projectHandler := handlers.NewProjectHandler(app.projects)
	profileHandler := handlers.NewProfileHandler(app.profiles)
	healthHandler := handlers.NewHealthHandler(app.db, app.hub)
	sseHandler := handlers.NewSSEHandler(app.sessions)

	limited := app.authLimiter.Middleware()

	r.GET("/health", healthHandler.CheckHealth)

	// Pages
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, services.RouteDashboard)
	})
	r.GET("/login", authHandler.LoginPage)
	r.POST("/login", limited, authHandler.Login)
	r.GET("/register", authHandler.RegisterPage)
	r.POST("/register", limited, authHandler.Register)
	r.POST("/logout", authHandler.Logout)
	r.GET("/dashboard", dashboardHandler.Page)

	pages := r.Group("")
	pages.Use(middleware.LoginRequired(app.sessions, app.cookies), middleware.ProfileLoader(app.profiles), middleware.AuditLog())
	{
		pages.POST("/dashboard/projects", dashboardHandler.Submit)
	}

	// API routes
	api := r.Group("/api")
	api.Use(middleware.AuditLog())
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", limited, authHandler.APILogin)
			auth.POST("/register", limited, authHandler.APIRegister)
		}

		api.GET("/dashboard", dashboardHandler.APIDashboard)

		protected := api.Group("")
		protected.Use(middleware.AuthRequired(app.sessions, app.cookies), middleware.ProfileLoader(app.profiles))
		{
			protected.GET("/auth/me", authHandler.Me)
			protected.POST("/auth/logout", authHandler.APILogout)

			protected.GET("/projects", projectHandler.List)
			protected.GET("/projects/:id", projectHandler.GetByID)

			protected.GET("/profiles", profileHandler.List)
			protected.GET("/profiles/designers", profileHandler.Designers)

			protected.GET("/events/session", sseHandler.StreamSessionEvents)

			managers := protected.Group("")
			managers.Use(middleware.ManagerRequired())
			{
				managers.POST("/projects", projectHandler.Create)
				managers.PUT("/projects/:id", projectHandler.Update)
				managers.DELETE("/projects/:id", projectHandler.Delete)
			}
		}
	}
}
