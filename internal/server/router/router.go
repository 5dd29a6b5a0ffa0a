package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/server/handlers"
)

const requestIDHeader = "X-Request-ID"

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth   *handlers.AuthHandler
	Cattle *handlers.CattleHandler
	Milk   *handlers.MilkHandler
	Stats  *handlers.StatsHandler
}

// Options tunes router behavior that depends on configuration.
type Options struct {
	CORSOrigins []string
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	r.GET("/healthz", health)
	r.GET("/health", health)

	api := r.Group("/api")

	users := api.Group("/users")
	users.POST("/signup", h.Auth.Signup)
	users.POST("/login", h.Auth.Login)

	private := api.Group("", h.Auth.RequireAuth())

	cattle := private.Group("/cattle")
	cattle.GET("", h.Cattle.List)
	cattle.POST("/add", h.Cattle.Create)
	cattle.GET("/:id", h.Cattle.Get)
	cattle.PUT("/:id", h.Cattle.Update)
	cattle.DELETE("/:id", h.Cattle.Delete)

	milk := private.Group("/milk")
	milk.POST("/production", h.Milk.SetProduction)
	milk.DELETE("/production/:id", h.Milk.DeleteProduction)
	milk.POST("/sales", h.Milk.AddSale)
	milk.DELETE("/sales/:id", h.Milk.DeleteSale)

	stats := milk.Group("/stats")
	stats.GET("/daily", h.Stats.Daily)
	stats.GET("/summary", h.Stats.Summary)
	stats.GET("/summary-by-cattle", h.Stats.SummaryByCattle)
	stats.GET("/revenue-daily", h.Stats.RevenueDaily)
	stats.GET("/revenue-weekly", h.Stats.RevenueWeekly)
	stats.GET("/revenue-monthly", h.Stats.RevenueMonthly)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})

	logger.Info("router initialized")

	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")))
	}
}
