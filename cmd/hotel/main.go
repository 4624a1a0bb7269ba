package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jethotel/internal/access"
	"jethotel/internal/api"
	"jethotel/internal/audit"
	"jethotel/internal/cache"
	"jethotel/internal/config"
	"jethotel/internal/database"
	"jethotel/internal/events"
	"jethotel/internal/google"
	"jethotel/internal/metrics"
	"jethotel/internal/notify"
	"jethotel/internal/reminders"
	"jethotel/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	if _, err := db.EnsureAdmin(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminName); err != nil {
		logger.Fatal().Err(err).Msg("seed admin user")
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}
	roomCache := cache.NewAvailabilityCache(rdb, cfg.CacheTTL(), &logger)

	telegram, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.Debug, cfg.Telegram.AdminChatIDs, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create telegram notifier")
	}
	// Without a bot, chat ids go to the log like every other recipient.
	var chats notify.Notifier
	if telegram.Enabled() {
		chats = telegram
	}
	dispatcher := notify.NewDispatcher(
		notify.Router{Telegram: chats, Fallback: notify.NewLogNotifier(&logger)},
		notify.DispatcherConfig{
			QueueSize:     cfg.Notifications.QueueSize,
			Workers:       cfg.Notifications.Workers,
			RatePerSecond: cfg.Notifications.RatePerSecond,
			Burst:         cfg.Notifications.Burst,
			RetryDelays:   cfg.Notifications.RetryDelays(),
		},
		&logger,
	)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	bus := events.NewEventBus(&logger)
	bus.Subscribe(countEvent, events.ReservationCreated, events.ReservationCancelled)

	if cfg.Google.CredentialsFile != "" && cfg.Google.LedgerSpreadsheetID != "" {
		ledger, err := google.NewLedgerSync(ctx, cfg.Google.CredentialsFile, cfg.Google.LedgerSpreadsheetID, cfg.Google.LedgerSheetName, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("ledger sync disabled")
		} else {
			bus.Subscribe(ledger.Handle,
				events.ReservationCreated, events.ReservationCancelled,
				events.PaymentConfirmed, events.PaymentApproved)
			go ledger.Run(ctx)
		}
	}

	booking := service.NewBookingService(service.Deps{
		Store:           db,
		Events:          bus,
		Delivery:        dispatcher,
		Cache:           roomCache,
		AdminRecipients: telegram.AdminRecipients(),
		Logger:          &logger,
	})

	watcher := config.NewRoomsWatcher(cfg.Seed.RoomsFile, cfg.RoomsWatchInterval(), &logger)
	if err := watcher.Start(ctx, func(rooms *config.RoomsConfig) {
		if err := booking.SyncRooms(ctx, rooms); err != nil {
			logger.Error().Err(err).Msg("sync rooms")
		}
	}); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Seed.RoomsFile).Msg("rooms file unavailable, using default catalogue")
		if n, cerr := db.CountRooms(ctx); cerr == nil && n == 0 {
			if err := booking.SyncRooms(ctx, config.DefaultRooms()); err != nil {
				logger.Fatal().Err(err).Msg("seed default rooms")
			}
		}
	}

	auditSvc := audit.NewService(audit.Config{
		RetentionDays: cfg.Audit.RetentionDays,
		ExportOnStart: cfg.Audit.ExportOnStart,
		AppName:       cfg.App.Name,
		OutputDir:     cfg.Audit.Path,
	}, db, booking, nil, telegram, db, &logger)
	if cfg.Audit.Enabled {
		auditSvc.Start()
		defer auditSvc.Stop()
	}

	if cfg.Reminders.Enabled {
		reminderSvc := reminders.NewService(reminders.Config{
			CheckInterval: time.Duration(cfg.Reminders.CheckIntervalMinutes) * time.Minute,
			DaysBefore:    cfg.Reminders.DaysBefore,
		}, db, dispatcher, &logger)
		reminderSvc.Start()
		defer reminderSvc.Stop()
	}

	go database.NewBackupService(db, cfg.Backup, &logger).Start(ctx)

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)
	if cfg.Monitoring.GRPCHealthPort > 0 {
		go startGRPCHealth(ctx, cfg.Monitoring.GRPCHealthPort, db, &logger)
	}
	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	httpServer := api.NewHTTPServer(
		api.Config{Address: cfg.HTTP.Address, APIKey: cfg.HTTP.APIKey},
		booking,
		access.NewService(db, logger),
		auditSvc,
		&logger,
	)
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	logger.Info().Str("app", cfg.App.Name).Msg("hotel service started")
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Logging.Format == "json" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func countEvent(e events.Event) error {
	switch e.Type {
	case events.ReservationCreated:
		metrics.IncReservation("created")
	case events.ReservationCancelled:
		metrics.IncReservation("cancelled")
	}
	return nil
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	if port == 0 {
		port = 8090
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("health server error")
	}
}

// startGRPCHealth serves grpc.health.v1 and follows the database ping.
func startGRPCHealth(ctx context.Context, port int, db *database.DB, logger *zerolog.Logger) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		logger.Error().Err(err).Int("port", port).Msg("grpc health listen")
		return
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			status := healthpb.HealthCheckResponse_SERVING
			pingCtx, cancel := context.WithTimeout(ctx, time.Second)
			if err := db.PingContext(pingCtx); err != nil {
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
			cancel()
			hs.SetServingStatus("", status)

			select {
			case <-ctx.Done():
				hs.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
			}
		}
	}()

	if err := srv.Serve(lis); err != nil {
		logger.Error().Err(err).Msg("grpc health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
