package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"

	"github.com/workcity/chat-admin/internal/api"
	"github.com/workcity/chat-admin/internal/config"
	"github.com/workcity/chat-admin/internal/logger"
	"github.com/workcity/chat-admin/internal/session"
	"github.com/workcity/chat-admin/internal/tracing"
)

func main() {
	cfg := config.Load()

	logger.Init()
	zlog.Info().Msg("logger initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    "chat-admin",
		ServiceVersion: cfg.ServiceVersion,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		zlog.Fatal().Err(err).Msg("tracing init failed")
	}

	var (
		storage session.Storage
		rdb     *redis.Client
	)
	switch cfg.SessionStore {
	case config.SessionStoreMemory:
		storage = session.NewMemoryStorage()
		zlog.Warn().Msg("sessions kept in process memory; they will not survive a restart")
	default:
		rdb, err = config.NewRedisClient(cfg)
		if err != nil {
			zlog.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable")
		}
		defer rdb.Close()
		storage = session.NewRedisStorage(rdb, session.DefaultKeyPrefix)
	}

	router, err := api.NewRouter(cfg, storage, rdb)
	if err != nil {
		zlog.Fatal().Err(err).Msg("router setup failed")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		zlog.Info().Str("port", cfg.Port).Str("session_store", cfg.SessionStore).Msg("chat-admin starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("http shutdown")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("tracer shutdown")
	}
}
