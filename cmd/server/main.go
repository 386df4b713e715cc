package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/tabula-metadata-backend/api"
	"github.com/SlpAus/tabula-metadata-backend/internal/metadata"
	"github.com/SlpAus/tabula-metadata-backend/internal/platform/config"
	"github.com/SlpAus/tabula-metadata-backend/internal/platform/database"
	"github.com/SlpAus/tabula-metadata-backend/internal/platform/shutdown"
	"github.com/SlpAus/tabula-metadata-backend/internal/platform/startup"
	"github.com/SlpAus/tabula-metadata-backend/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	database.InitDB(cfg.Database.Sqlite.Path)

	// Blocking startup barrier: no request is served before the store
	// is migrated and the cache rehydrated.
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("application initialization failed, refusing to start: %v", err))
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	manager := lifecycle.NewManager()
	if interval := cfg.Metadata.CacheRefreshInterval; interval > 0 {
		handle, err := manager.NewServiceHandle("metadata-cache-refresher")
		if err != nil {
			panic(fmt.Sprintf("failed to register cache refresher: %v", err))
		}
		go func() {
			defer handle.Close()
			metadata.RunCacheRefresher(handle, interval)
		}()
	}

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("server ready, listening on %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("failed to start server: " + err.Error())
		}
	}()

	shutdown.NewCoordinator(manager).ListenForSignalsAndShutdown(server)
}
