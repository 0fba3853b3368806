package app

import (
	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/gateway"
	"taskhub/internal/handlers"
	"taskhub/internal/membership"
	"taskhub/internal/service"
	"taskhub/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, rdb *redis.Client, log *logrus.Logger) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api/v1")

	client := gateway.New(cfg.Remote.BaseURL,
		gateway.WithTimeout(cfg.Remote.Timeout.Duration()),
		gateway.WithLogger(log.WithField("component", "gateway")),
	)
	reconciler := membership.New(client,
		membership.WithProbeConcurrency(cfg.Remote.ProbeConcurrency),
		membership.WithLogger(log.WithField("component", "membership")),
	)
	runner := workflow.NewRunner(client, workflow.NewGuard(), log.WithField("component", "workflow"))
	board := service.NewBoardService(client, reconciler, log.WithField("component", "board"))
	users := service.NewUserService(client)

	sessionStore := auth.NewStore(rdb, cfg.Session.TTL.Duration(), auth.WithSecureCookies(cfg.HTTP.SecureCookie))
	authHandler := handlers.NewAuthHandler(sessionStore, client)
	registerAuthRoutes(api, authHandler, sessionStore)

	protected := api.Group("", auth.RequireSession(sessionStore))
	registerUserRoutes(protected, handlers.NewUserHandler(users, sessionStore))
	registerGroupRoutes(protected, handlers.NewGroupHandler(board, runner))
	registerTaskRoutes(protected, handlers.NewTaskHandler(board, runner))
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Taskhub API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler, sessions *auth.Store) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", auth.RequireSession(sessions), h.Me)
}

func registerUserRoutes(api *gin.RouterGroup, h *handlers.UserHandler) {
	api.GET("/users", h.List)
	api.POST("/users", h.Create)
	api.PUT("/users/:id", h.Update)
	api.DELETE("/users/:id", h.Delete)
	api.POST("/users/:id/toggle-active", h.ToggleActive)
}

func registerGroupRoutes(api *gin.RouterGroup, h *handlers.GroupHandler) {
	api.GET("/groups", h.List)
	api.POST("/groups", h.Create)
	api.DELETE("/groups/:id", h.Delete)
	api.GET("/groups/:id/tasks", h.Tasks)
	api.GET("/groups/:id/roster", h.Roster)
	api.POST("/groups/:id/share/:userId", h.Share)
}

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	api.POST("/tasks", h.Create)
	api.GET("/tasks/:id", h.Get)
	api.PATCH("/tasks/:id", h.Update)
	api.DELETE("/tasks/:id", h.Delete)
}
