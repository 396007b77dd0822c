// Package web exposes a small read-only HTTP surface for health checks and
// event inspection. It never mutates the store; all writes go through the
// Telegram conversation flow.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/eventbot/internal/profile"
	"github.com/hrygo/eventbot/server/middleware"
	"github.com/hrygo/eventbot/server/reminder"
	"github.com/hrygo/eventbot/store"
)

// Service serves the read-only status API.
type Service struct {
	profile *profile.Profile
	store   *store.Store
	daemon  *reminder.Daemon
	logger  *slog.Logger

	echoServer *echo.Echo
}

// NewService wires the status API against the store and the daemon.
func NewService(p *profile.Profile, st *store.Store, daemon *reminder.Daemon) *Service {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RateLimit(10, 20))

	s := &Service{
		profile:    p,
		store:      st,
		daemon:     daemon,
		logger:     slog.Default(),
		echoServer: e,
	}

	e.GET("/healthz", s.health)
	apiGroup := e.Group("/api/v1")
	apiGroup.GET("/events", s.listEvents)
	apiGroup.GET("/events/today", s.todayEvents)
	return s
}

// SetLogger sets a custom logger.
func (s *Service) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Service) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("status api listening", "address", address)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.echoServer.Shutdown(shutdownCtx)
	}
}

func (s *Service) health(c echo.Context) error {
	status := "ok"
	if !s.daemon.IsRunning() {
		status = "daemon_stopped"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  status,
		"mode":    s.profile.Mode,
		"version": s.profile.Version,
	})
}

func (s *Service) listEvents(c echo.Context) error {
	events, err := s.store.ListEvents(c.Request().Context())
	if err != nil {
		s.logger.Error("failed to list events", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load events")
	}
	return c.JSON(http.StatusOK, events)
}

// todayEvents mirrors the bot's today view: non-recurring events dated
// today plus resolved yearly occurrences, with their derived annotations.
func (s *Service) todayEvents(c echo.Context) error {
	events, err := s.store.ListEvents(c.Request().Context())
	if err != nil {
		s.logger.Error("failed to list events", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load events")
	}

	now := time.Now()
	today := now.Format(store.DateLayout)

	type todayEvent struct {
		store.Event
		Age                   int  `json:"age,omitempty"`
		IsPreviousDayReminder bool `json:"is_previous_day_reminder,omitempty"`
	}
	result := []todayEvent{}
	for _, event := range events {
		if !event.IsYearly() && event.Date == today {
			result = append(result, todayEvent{Event: *event})
		}
	}
	for _, resolved := range reminder.ResolveYearly(now, events) {
		result = append(result, todayEvent{
			Event:                 resolved.Event,
			Age:                   resolved.Age,
			IsPreviousDayReminder: resolved.IsPreviousDayReminder,
		})
	}
	return c.JSON(http.StatusOK, result)
}
