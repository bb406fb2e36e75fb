package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moogmodular/asksats-sub000/internal/api"
	"github.com/moogmodular/asksats-sub000/internal/blob"
	"github.com/moogmodular/asksats-sub000/internal/config"
	"github.com/moogmodular/asksats-sub000/internal/lightning"
	"github.com/moogmodular/asksats-sub000/internal/notify"
	"github.com/moogmodular/asksats-sub000/internal/repository"
	"github.com/moogmodular/asksats-sub000/internal/service"
	"github.com/moogmodular/asksats-sub000/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	logger := utils.NewLogger()

	// Create repository and payment node. Dev mode runs entirely in
	// process: an in-memory ledger and a fake node that confirms nothing.
	var repo repository.Repository
	var node lightning.Node
	if cfg.Server.DevMode {
		logger.Info("dev mode: using in-memory repository and fake payment node")
		repo = repository.NewMemoryRepository()
		node = lightning.NewFakeNode()
	} else {
		db, err := config.SetupDatabase(cfg)
		if err != nil {
			logger.Fatal("Failed to set up database: %v", err)
		}
		defer db.Close()

		repo = repository.NewPostgresRepository(db)
		node = lightning.NewRestClient(cfg.Lightning.RESTAddr, cfg.Lightning.MacaroonHex)
	}

	// Create blob presigner
	presigner := blob.NewPresigner(cfg.Blob.Secret, cfg.Blob.BaseURL,
		time.Duration(cfg.Blob.TTLSeconds)*time.Second)

	// Create notification relay and worker. Events are queued after the
	// owning transaction commits and delivered best-effort.
	var relay notify.Relay = notify.NopRelay{}
	if cfg.Redis.Addr != "" {
		redisRelay := notify.NewRedisRelay(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "asks")
		defer redisRelay.Close()
		relay = redisRelay
	}
	events := make(chan notify.Event, 256)
	worker := notify.NewWorker(events, relay, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	// Create service
	svc := service.NewDefaultService(repo, node, presigner, events, logger, cfg.Auth.JWTSecret)

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
