package http

import (
	"context"
	"net/http"

	"github.com/dkeye/audiopolicy/internal/adapters/feed"
	"github.com/dkeye/audiopolicy/internal/adapters/sim"
	"github.com/dkeye/audiopolicy/internal/app/dispatch"
	"github.com/dkeye/audiopolicy/internal/app/orch"
	"github.com/dkeye/audiopolicy/internal/config"
	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Deps is what the admin surface reads from. Sim is set only for the
// simulated backend and enables event injection.
type Deps struct {
	Loop     *dispatch.Loop
	Orch     *orch.Orchestrator
	Feed     *feed.Hub
	Gatherer prometheus.Gatherer
	Events   core.NotificationHandler
	Sim      *sim.Server
	Limiter  *RateLimiter
}

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	api.GET("/clients", func(c *gin.Context) {
		views, err := snapshot(c.Request.Context(), d)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"clients": views, "count": len(views)})
	})

	if d.Feed != nil {
		api.GET("/ws/events", func(c *gin.Context) {
			log.Info().Str("module", "adapters.http").Str("request_id", c.GetString("request_id")).Msg("ws events endpoint hit")
			d.Feed.Serve(ctx, c)
		})
	}

	if d.Sim != nil {
		api.POST("/sim/events", rateLimited(d.Limiter), func(c *gin.Context) {
			var ev simEvent
			if err := c.ShouldBindJSON(&ev); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			n := ev.notification(cfg.RoleKey)
			var views []core.ClientView
			err := d.Loop.Do(c.Request.Context(), func() {
				d.Sim.Deliver(d.Events, n)
				views = d.Orch.Snapshot()
			})
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"clients": views, "count": len(views)})
		})
	}

	log.Info().Str("module", "adapters.http").Bool("sim", d.Sim != nil).Msg("router setup")
	return r
}

func snapshot(ctx context.Context, d Deps) ([]core.ClientView, error) {
	var views []core.ClientView
	err := d.Loop.Do(ctx, func() { views = d.Orch.Snapshot() })
	return views, err
}

func rateLimited(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl != nil && !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
			return
		}
		c.Next()
	}
}
