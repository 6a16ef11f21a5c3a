package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/nicolaananda/barber-pos-sub000/internal/config"
	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/handler"
	"github.com/nicolaananda/barber-pos-sub000/internal/lock"
	"github.com/nicolaananda/barber-pos-sub000/internal/notify"
	"github.com/nicolaananda/barber-pos-sub000/internal/ports"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
	"github.com/nicolaananda/barber-pos-sub000/internal/server"
	"github.com/nicolaananda/barber-pos-sub000/internal/service"
	"github.com/nicolaananda/barber-pos-sub000/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stdout, nil)).Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()
	if cfg.DBAutoMigrate {
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("failed to apply schema", "err", err)
			os.Exit(1)
		}
	}

	// Firebase Auth (optional)
	var firebaseAuth *auth.Client
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, firebaseOptions(cfg)...)
		if err != nil {
			logger.Error("failed to init firebase app", "err", err)
			os.Exit(1)
		}
		client, err := app.Auth(ctx)
		if err != nil {
			logger.Error("failed to init firebase auth", "err", err)
			os.Exit(1)
		}
		firebaseAuth = client
	}

	healthExtra := map[string]ports.HealthChecker{}

	// Redis lock (optional); without it every replica dispatches.
	var locker ports.Locker
	if cfg.RedisAddress != "" {
		rl, err := lock.NewRedis(ctx, cfg.RedisAddress)
		if err != nil {
			logger.Warn("redis unavailable, outbox runs without lock", "err", err)
		} else {
			defer rl.Close()
			locker = rl
			healthExtra["redis"] = rl
		}
	}

	// Payment proofs go to GCS when a bucket is configured, local disk otherwise.
	var proofs ports.ProofStorage = storage.Local{Dir: cfg.UploadDir, BaseURL: strings.TrimRight(cfg.PublicBaseURL, "/") + "/uploads"}
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCS(ctx, cfg.GCSBucket, cfg.GCSCredentialsJSON)
		if err != nil {
			logger.Error("failed to init gcs", "err", err)
			os.Exit(1)
		}
		defer gcs.Close()
		proofs = gcs
	}

	whatsapp := notify.NewFonnte(cfg.FonnteURL, cfg.FonnteToken, logger)
	if !whatsapp.Enabled() {
		logger.Warn("FONNTE_TOKEN not set, WhatsApp messages will be dropped")
	}

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	serviceRepo := repository.ServiceRepository{DB: pg}
	customerRepo := repository.CustomerRepository{DB: pg}
	txRepo := repository.TransactionRepository{DB: pg, Sequencer: repository.InvoiceSequencer{Location: cfg.Location}}
	shiftRepo := repository.ShiftRepository{DB: pg}
	bookingRepo := repository.BookingRepository{DB: pg}
	offDayRepo := repository.OffDayRepository{DB: pg}
	financeRepo := repository.FinanceRepository{DB: pg}
	activityRepo := repository.ActivityLogRepository{DB: pg}
	dashboardRepo := repository.DashboardRepository{DB: pg, Location: cfg.Location}
	outboxRepo := repository.OutboxRepository{DB: pg}

	// services
	outboxSvc := &service.OutboxService{
		Store:       outboxRepo,
		Notifier:    whatsapp,
		Locker:      locker,
		Logger:      logger,
		MaxAttempts: cfg.OutboxMaxAttempts,
		Interval:    cfg.OutboxInterval,
	}
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger, FirebaseAuth: firebaseAuth}
	userSvc := service.UserService{Users: userRepo}
	shiftSvc := service.ShiftService{Store: shiftRepo, Users: userRepo, Logger: logger}
	txSvc := service.TransactionService{
		Transactions: txRepo,
		Users:        userRepo,
		Shifts:       shiftSvc,
		Audit:        activityRepo,
		Outbox:       outboxSvc,
		Location:     cfg.Location,
		ShopName:     cfg.ShopName,
		Logger:       logger,
	}
	payrollSvc := service.PayrollService{Transactions: txRepo, Users: userRepo, Catalog: serviceRepo, Location: cfg.Location}
	bookingSvc := service.BookingService{
		Bookings:    bookingRepo,
		Users:       userRepo,
		Catalog:     serviceRepo,
		OffDays:     offDayRepo,
		Customers:   customerRepo,
		Outbox:      outboxSvc,
		Proofs:      proofs,
		OpeningHour: cfg.OpeningHour,
		ClosingHour: cfg.ClosingHour,
		ShopName:    cfg.ShopName,
		Logger:      logger,
	}

	go outboxSvc.Run(ctx)

	router := server.NewRouter(cfg, logger, server.Handlers{
		Health:        handler.HealthHandler{DB: pg, Extra: healthExtra},
		Docs:          handler.DocsHandler{OpenAPIPath: cfg.OpenAPIPath, Title: cfg.ShopName},
		Auth:          handler.AuthHandler{Service: &authSvc},
		Users:         handler.UserHandler{Service: userSvc},
		Catalog:       handler.CatalogHandler{Repo: serviceRepo},
		Customers:     handler.CustomerHandler{Repo: customerRepo},
		Transactions:  handler.TransactionHandler{Service: txSvc, Location: cfg.Location},
		Shifts:        handler.ShiftHandler{Service: shiftSvc},
		Payroll:       handler.PayrollHandler{Service: payrollSvc, Location: cfg.Location},
		Bookings:      handler.BookingHandler{Service: bookingSvc},
		OffDays:       handler.OffDayHandler{Repo: offDayRepo, Location: cfg.Location},
		Finance:       handler.FinanceHandler{Repo: financeRepo, Location: cfg.Location},
		Dashboard:     handler.DashboardHandler{Repo: dashboardRepo, Location: cfg.Location},
		ActivityLogs:  handler.ActivityLogHandler{Repo: activityRepo},
		Notifications: handler.NotificationHandler{Outbox: outboxSvc},
	})

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func firebaseOptions(cfg config.Config) []option.ClientOption {
	if cfg.FirebaseCredFile == "" {
		return nil
	}

	cred := cfg.FirebaseCredFile
	// Allow inline JSON or base64-encoded JSON in env to avoid writing a file.
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}

	return []option.ClientOption{option.WithCredentialsFile(cred)}
}
