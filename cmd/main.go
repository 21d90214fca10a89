package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medchat/backend/internal/api/handler"
	"medchat/backend/internal/auth"
	"medchat/backend/internal/chathub"
	"medchat/backend/internal/config"
	"medchat/backend/internal/directory"
	"medchat/backend/internal/gateway"
	"medchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func setupLogging(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithError(err).Fatal("cannot parse LOG_LEVEL")
	}
	log.SetLevel(lvl)

	formatter := new(log.TextFormatter)
	formatter.TimestampFormat = "2006-01-02T15:04:05.999Z07:00"
	formatter.FullTimestamp = true
	log.SetFormatter(formatter)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	setupLogging(cfg.LogLevel)
	log.Info("starting medchat backend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenPostgres(ctx, cfg.DatabaseDSN, storage.GormLogLevel(cfg.LogLevel))
	if err != nil {
		log.WithError(err).Fatal("failed to connect PostgreSQL")
	}
	store := storage.NewStorageService(db)
	if err := store.Migrate(); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	var cache directory.Cache
	if cfg.RedisURL != "" {
		rc, err := directory.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect Redis")
		}
		defer rc.Close()
		cache = rc
		log.Info("display-name cache enabled")
	}

	dir := directory.NewService(db, cache, cfg.NameCacheTTL)
	gw := gateway.NewService(store, dir)
	hub := chathub.NewManagerService(chathub.NewRegistry(), gw)
	authn := auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	if lvl, _ := log.ParseLevel(cfg.LogLevel); lvl < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	handler.NewHandler(gw, hub, cfg.AllowedOrigins).Register(r, auth.Middleware(authn))

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
