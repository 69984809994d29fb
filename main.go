package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/geolocation"
	"github.com/fakhrymubarak/weather-dashboard/internal/handler"
	"github.com/fakhrymubarak/weather-dashboard/internal/middleware"
	"github.com/fakhrymubarak/weather-dashboard/internal/redis"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

// newServer wires the dashboard around a single state store.
func newServer(store *state.Store) (*http.Server, *service.WeatherService) {
	resolver := geolocation.NewResolver(geolocation.NewLocatorFromConfig())
	repo := repository.NewWeatherRepository(resolver, repository.Options{})
	svc := service.NewWeatherService(repo, store)

	port := config.GetServerPort()
	if env := os.Getenv("PORT"); env != "" {
		port = env
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler.NewWeatherHandler(svc).Routes(),
		ReadHeaderTimeout: config.GetServerTimeoutDuration("read_header_timeout", 15*time.Second),
		ReadTimeout:       config.GetServerTimeoutDuration("read_timeout", 15*time.Second),
		WriteTimeout:      config.GetServerTimeoutDuration("write_timeout", 30*time.Second),
		IdleTimeout:       config.GetServerTimeoutDuration("idle_timeout", 60*time.Second),
	}
	return srv, svc
}

func main() {
	logger := config.GetLogger()
	defer logger.Sync()

	store := state.NewStore()
	if config.IsRedisEnabled() {
		store.Subscribe(redis.NewSnapshotPublisher(redis.GetClient(), config.GetRedisChannel()))
		logger.Infow("Publishing state snapshots", "addr", config.GetRedisAddr(), "channel", config.GetRedisChannel())
	}

	srv, svc := newServer(store)
	middleware.StartRateLimiterCleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial conditions for the device location, like the dashboard's landing view.
	go func() {
		if _, err := svc.LoadCurrentConditions(ctx, "", ""); err != nil {
			logger.Warnw("Initial conditions unavailable", "error", err)
		}
	}()

	go func() {
		logger.Infow("Weather dashboard running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Graceful shutdown failed", "error", err)
	}
}
