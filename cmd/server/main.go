package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lizza/config"
	"lizza/internal/database"
	"lizza/internal/livestore"
	"lizza/internal/router"
	"lizza/internal/ws"
	"lizza/pkg/cloudinary"
	"lizza/pkg/pii"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db)

	cipher, err := pii.NewCipher(cfg.Tracking.EncryptionKey)
	if err != nil {
		log.Fatalf("pii: %v (set DATA_KEY)", err)
	}

	// Redis is optional: without it the presence engine runs degraded (no
	// out-of-bounds timers, empty live tracking) rather than refusing to start.
	var store *livestore.Store
	if cfg.Redis.Addr != "" {
		store, err = livestore.New(&cfg.Redis, cfg.Tracking.PositionTTL)
		if err != nil {
			log.Fatalf("livestore: %v", err)
		}
	} else {
		log.Printf("[server] REDIS_ADDR not set, live tracking degraded")
	}

	var cloud cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
	} else {
		log.Printf("[server] Cloudinary not configured, document uploads disabled")
	}

	hub := ws.NewHub()

	engine := router.Setup(cfg, db, store, cloud, cipher, hub)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	hub.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
