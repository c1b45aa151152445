package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/ryuhosoy/mobile-gym-app/internal/chat"
	"github.com/ryuhosoy/mobile-gym-app/internal/config"
	"github.com/ryuhosoy/mobile-gym-app/internal/handler"
	"github.com/ryuhosoy/mobile-gym-app/internal/identity"
	"github.com/ryuhosoy/mobile-gym-app/internal/places"
	"github.com/ryuhosoy/mobile-gym-app/internal/store"
	"github.com/ryuhosoy/mobile-gym-app/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	log.Init(cfg.Log)
	logger := log.L()

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Backend).
		Msg("starting gym app service")

	// Initialize realtime store
	var st store.Store
	switch cfg.Store.Backend {
	case "redis":
		st, err = store.NewRedisStore(cfg.Store.Redis)
		if err != nil {
			logger.Fatal().Err(err).Str("address", cfg.Store.Redis.Address).Msg("failed to connect to redis")
		}
		logger.Info().Str("address", cfg.Store.Redis.Address).Msg("connected to redis store")
	default:
		st = store.NewMemoryStore()
		logger.Info().Msg("using in-memory store")
	}
	defer st.Close()

	// Initialize identity and chat services
	tokens := identity.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	ident := identity.NewService(st, tokens)
	rooms := chat.NewRooms(st)

	placesClient := places.NewClient(places.Config{
		BaseURL:  cfg.Places.BaseURL,
		APIKey:   cfg.Places.APIKey,
		Language: cfg.Places.Language,
		Timeout:  cfg.Places.Timeout,
	})

	// Setup HTTP router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinMiddleware(logger))

	handler.NewHandler(st, ident, rooms, placesClient).RegisterRoutes(r)
	handler.NewWSHandler(st, ident).RegisterRoutes(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}

	logger.Info().Msg("gym app service stopped")
}
