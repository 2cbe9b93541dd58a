package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/YongHui-X/ecoplate/internal/config"
	"github.com/YongHui-X/ecoplate/internal/domain"
	"github.com/YongHui-X/ecoplate/internal/httpserver"
	"github.com/YongHui-X/ecoplate/internal/security"
	"github.com/YongHui-X/ecoplate/internal/store/postgres"
	"github.com/YongHui-X/ecoplate/internal/store/sqlite"
	"github.com/YongHui-X/ecoplate/internal/ws"
)

// @title           EcoPlate API
// @version         1.0
// @description     Backend API for the EcoPlate food-waste reduction platform.

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host            localhost:8000
// @BasePath        /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var db *sql.DB
	var repos *domain.Repositories
	switch cfg.DBDriver {
	case "postgres":
		db, err = postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		if err := postgres.Migrate(db); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		repos = postgres.NewRepositories(db)
	case "sqlite":
		db, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		if err := sqlite.Migrate(db); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		repos = sqlite.NewRepositories(db)
	default:
		log.Fatalf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
	defer db.Close()

	// Security components
	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	passwordHasher := security.NewPasswordHasher(0)

	// Live-channel components: the hub and dispatcher are constructed here
	// and injected into both the /ws handler and the REST handlers that push.
	hub := ws.NewHub()
	dispatcher := ws.NewDispatcher(hub)

	router := httpserver.NewRouter(cfg, repos, hub, dispatcher, tokenSvc, passwordHasher)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Starting EcoPlate server on %s\n", cfg.HTTPAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
