package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/medlink/teleconsult/internal/application/config"
	"github.com/medlink/teleconsult/internal/application/constant"
	"github.com/medlink/teleconsult/internal/application/metric"
	"github.com/medlink/teleconsult/internal/infra/adapters/memory"
	"github.com/medlink/teleconsult/internal/infra/adapters/postgres"
	"github.com/medlink/teleconsult/internal/infra/adapters/postgres/repository"
	"github.com/medlink/teleconsult/internal/infra/ports/http/handlers"
	"github.com/medlink/teleconsult/internal/infra/ports/http/server"
	"github.com/medlink/teleconsult/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: slog.LevelInfo},
			),
		),
	)

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	slog.Info("Running app", slog.Bool("debug", cfg.Debug))

	dbConn, err := postgres.NewPostgres(ctx, cfg.Postgres.DSN())
	if err != nil {
		slog.Error("connect to postgres", slog.Any(constant.Error, err))
		os.Exit(1)
	}
	defer dbConn.Close()

	userRepo := repository.NewUserRepo(dbConn)
	appointmentRepo := repository.NewAppointmentRepo(dbConn)

	// Call rooms hold exactly two participants; conversations are unbounded.
	// Each relay owns its registry and connection table, constructed here and
	// injected, so a test can stand up either relay in isolation.
	callRegistry := memory.NewSessionRegistry(usecase.CallRoomCapacity)
	callConns := memory.NewWSConnectionRepository()
	chatRegistry := memory.NewSessionRegistry(0)
	chatConns := memory.NewWSConnectionRepository()

	userUsecase := usecase.NewUserUsecase([]byte(cfg.JWTSecret), userRepo)
	appointmentUsecase := usecase.NewAppointmentUsecase(appointmentRepo, userRepo)
	signalingUsecase := usecase.NewSignalingUsecase(appointmentRepo, callRegistry, callConns, cfg.NegotiationTimeout)
	chatUsecase := usecase.NewChatUsecase(chatRegistry, chatConns)

	authHandler := handlers.NewAuthHandler(userUsecase)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentUsecase, userUsecase)
	iceHandler := handlers.NewIceHandler(cfg)
	wsHandler := handlers.NewWebSocketHandler(cfg, signalingUsecase, callConns)
	chatWSHandler := handlers.NewChatWebSocketHandler(cfg, chatUsecase, chatConns)

	echoSrv := server.New(cfg, authHandler, appointmentHandler, iceHandler, wsHandler, chatWSHandler)
	metricSrv := metric.NewServer()

	srvCh := make(chan error, 1)
	go func() {
		srvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	go func() {
		if err := metricSrv.Start(":" + cfg.MetricsPort); err != nil {
			slog.Error("metrics server failed", slog.Any(constant.Error, err))
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server due to context cancel")
	case err := <-srvCh:
		slog.Error(
			"HTTP server failed",
			slog.Any(constant.Error, err),
		)

		os.Exit(1)
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown server", slog.Any(constant.Error, err))
	}

	if err := metricSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metrics server", slog.Any(constant.Error, err))
	}
}
