package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"advocatehub/internal/advocate"
	"advocatehub/internal/auth"
	"advocatehub/internal/live"
	"advocatehub/pkg/logging"
	"advocatehub/pkg/models"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router needs. Store may be nil, in which case
// searches use the bundled dataset and seeding is unavailable.
type Deps struct {
	Store    *advocate.Repo
	Seed     []models.RawRecord
	Tokens   auth.TokenService
	PassHash string
	Hub      *live.Hub
	Logger   *zap.Logger
}

// New builds the HTTP router.
func New(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Hub == nil {
		d.Hub = live.NewHub()
	}

	router := gin.New()
	router.Use(gin.Recovery(), logging.GinLogger(d.Logger))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	var (
		source advocate.RowSource
		seeder advocate.Seeder
		pinger Pinger
	)
	if d.Store != nil {
		source, seeder, pinger = d.Store, d.Store, d.Store
	}

	svc := advocate.NewService(source, d.Seed, d.Logger.Named("search"))
	advHandler := advocate.NewHandler(svc, seeder, d.Seed, d.Logger.Named("advocates"))
	advHandler.OnSeed = d.Hub.NotifyReload

	advocates := router.Group("/advocates")
	advHandler.RegisterRoutes(advocates)
	advocates.GET("/live", live.WSHandler(d.Hub, svc, d.Logger.Named("live")))

	admin := router.Group("/advocates")
	admin.Use(auth.AuthMiddleware(d.Tokens, auth.RoleAdmin))
	advHandler.RegisterAdminRoutes(admin)

	authHandler := auth.NewHandler(d.Tokens, d.PassHash)
	authHandler.RegisterRoutes(router.Group("/auth"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := d.Hub.Stats()
		if pinger == nil {
			c.JSON(http.StatusOK, gin.H{
				"status":     "ready",
				"db":         "none",
				"ws_clients": stats.WSClients,
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pinger.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": stats.WSClients,
		})
	})

	return router
}
