package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/xoxo-backend/internal/config"
	"github.com/rocketscienceinc/xoxo-backend/internal/matchmaking"
	"github.com/rocketscienceinc/xoxo-backend/internal/repository"
	"github.com/rocketscienceinc/xoxo-backend/internal/repository/storage"
	"github.com/rocketscienceinc/xoxo-backend/internal/repository/storage/sqlite"
	"github.com/rocketscienceinc/xoxo-backend/internal/room"
	"github.com/rocketscienceinc/xoxo-backend/internal/service"
	"github.com/rocketscienceinc/xoxo-backend/internal/session"
	"github.com/rocketscienceinc/xoxo-backend/internal/usecase"
	"github.com/rocketscienceinc/xoxo-backend/transport/rest"
	"github.com/rocketscienceinc/xoxo-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := sqlite.New(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	historyRepo := repository.NewHistoryRepository(sqliteStorage.Connection)
	meterRepo := repository.NewGameMeterRepository(redisStorage.Connection)

	reporter := service.NewReporter(logger, historyRepo, meterRepo)
	go reporter.Run(ctx)

	admission := service.NewAdmissionService(logger, meterRepo, conf.Admission.DailyGameLimit)

	sessions := session.NewRegistry()
	rooms := room.NewRegistry(logger)
	queue := matchmaking.NewQueue(logger, rooms, matchmaking.Policy(conf.Matchmaking.RequeuePolicy))

	engine := usecase.NewEngine(logger, sessions, rooms, queue, admission, reporter, conf.Matchmaking.GridSizes)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(logger, conf.HTTPPort, historyRepo); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, engine)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
