package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"sia-service/internal/adapters/primary/http/handlers"
	"sia-service/internal/adapters/primary/http/middleware"
	"sia-service/internal/adapters/secondary/butler"
	"sia-service/internal/adapters/secondary/postgres"
	"sia-service/internal/config"
	"sia-service/internal/core/domain"
	"sia-service/internal/core/ports"
	"sia-service/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	collections, err := config.LoadCollections(cfg.Collections)
	if err != nil {
		log.Fatalf("load data collections: %v", err)
	}
	for _, c := range collections {
		log.WithFields(log.Fields{
			"collection": c.Name,
			"label":      c.Label,
			"butler":     string(c.ButlerType),
		}).Info("data collection configured")
	}

	collectionSvc, err := services.NewCollectionService(collections)
	if err != nil {
		log.Fatalf("collection registry: %v", err)
	}

	// Direct collections query the ObsCore database; the pool is only
	// created when at least one is configured.
	var (
		pool         *pgxpool.Pool
		directEngine ports.QueryEngine
		directProber ports.AvailabilityProber
	)
	if hasButlerType(collections, domain.ButlerDirect) {
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			log.Fatalf("parse db config: %v", err)
		}
		poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

		pool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
		if err != nil {
			log.Fatalf("create db pool: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			log.Fatalf("ping db: %v", err)
		}
		log.Info("obscore database connection established")

		directEngine = postgres.NewObsCoreRepository(pool)
		directProber = postgres.NewAvailabilityProber(pool)
	}

	// Remote collections forward the query with the caller's token.
	var (
		remoteEngine ports.QueryEngine
		remoteProber ports.AvailabilityProber
	)
	if hasButlerType(collections, domain.ButlerRemote) {
		client := butler.NewClient(cfg.Remote.Timeout)
		remoteEngine = client
		remoteProber = client
	}

	querySvc := services.NewQueryService(directEngine, remoteEngine, cfg.Query.DefaultMaxRec, cfg.Query.MaxMaxRec)
	selfDescSvc := services.NewSelfDescriptionService(cfg.Query.MaxMaxRec)
	availabilitySvc := services.NewAvailabilityService(directProber, remoteProber)

	h := handlers.New(collectionSvc, querySvc, selfDescSvc, availabilitySvc, cfg.Query.Timeout)

	// Setup router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), middleware.BearerToken(), gin.Recovery())

	anon := router.Group("/")
	authed := router.Group("/")
	if cfg.Auth.Enabled {
		authed.Use(middleware.RequireAuth())
	}
	authed.Use(middleware.RateLimit(cfg.Query.RateLimit, cfg.Query.RateBurst))
	h.RegisterRoutes(anon, authed)

	router.GET("/healthz", func(c *gin.Context) {
		if pool != nil {
			if err := pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func hasButlerType(collections []*domain.Collection, t domain.ButlerType) bool {
	for _, c := range collections {
		if c.ButlerType == t {
			return true
		}
	}
	return false
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
