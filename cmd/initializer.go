package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"payfastBack/internal/config"
	"payfastBack/internal/handlers"
	"payfastBack/internal/metrics"
	"payfastBack/internal/payfast"
	"payfastBack/internal/repositories"
	"payfastBack/internal/services"
	"payfastBack/internal/tasks"
	"payfastBack/internal/timeutil"
	"payfastBack/utils"
)

type application struct {
	logger  *slog.Logger
	cfg     config.Config
	metrics *metrics.Metrics
	tasks   *tasks.Tracker
	tokens  *utils.Manager

	payfastHandler *handlers.PayfastHandler
	invoiceHandler *handlers.InvoiceHandler
	documents      http.Handler

	db  *sql.DB
	rdb *redis.Client
}

func initializeApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		logger:  logger,
		cfg:     cfg,
		metrics: metrics.New(),
		tasks:   tasks.NewTracker(logger.With("component", "tasks")),
	}

	if cfg.OperatorSecret != "" {
		m, err := utils.NewManager(cfg.OperatorSecret)
		if err != nil {
			return nil, err
		}
		app.tokens = m
	}

	// Invoice storage
	var store services.InvoiceStore
	switch cfg.Storage.Backend {
	case "s3":
		client, err := utils.NewS3Client(cfg.Storage)
		if err != nil {
			return nil, err
		}
		store = repositories.NewS3InvoiceStore(client, cfg.Storage.S3Bucket, cfg.Storage.S3Prefix, cfg.Storage.S3PublicBase)
	default:
		fs, err := repositories.NewFileInvoiceStore(cfg.Storage.InvoiceDir)
		if err != nil {
			return nil, err
		}
		store = fs
		app.documents = fs.DocumentHandler()
	}

	// Duplicate guard
	var guard services.DuplicateGuard = repositories.NewMemoryGuard()
	if cfg.Redis.Addr != "" {
		app.rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		if err := app.rdb.Ping(ctx).Err(); err != nil {
			app.close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		guard = repositories.NewRedisGuard(app.rdb)
	}

	// ITN audit log
	var audit services.AuditLog
	var auditReader handlers.ITNLogReader
	if cfg.Database.URL != "" {
		db, err := openDB(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			app.close()
			return nil, err
		}
		app.db = db
		logRepo := repositories.NewITNLogRepo(db, cfg.Database.Driver)
		if err := logRepo.EnsureSchema(ctx); err != nil {
			app.close()
			return nil, err
		}
		audit, auditReader = logRepo, logRepo
	}

	invoices := &services.InvoiceService{
		Store:    store,
		Renderer: services.NewInvoiceRenderer(cfg.Company, cfg.CurrencyPrefix),
		Mailer:   services.NewSMTPMailer(cfg.SMTP),
		SMTP:     cfg.SMTP,
		Company:  cfg.Company,
		Currency: cfg.CurrencyPrefix,
		Metrics:  app.metrics,
		Logger:   logger.With("component", "invoices"),
	}

	itn, err := services.NewITNService(services.ITNDeps{
		Gateway:         cfg.Gateway,
		Prices:          cfg.Prices,
		Invoices:        invoices,
		Postback:        payfast.NewClient(&http.Client{Timeout: cfg.PostbackTimeout}, cfg.Gateway.Endpoints.Validate),
		Guard:           guard,
		GuardTTL:        cfg.Redis.GuardTTL,
		Audit:           audit,
		Clock:           timeutil.NewClock(cfg.Timezone),
		PostbackTimeout: cfg.PostbackTimeout,
		Metrics:         app.metrics,
		Logger:          logger.With("component", "itn"),
	})
	if err != nil {
		app.close()
		return nil, err
	}

	app.payfastHandler = &handlers.PayfastHandler{
		Service: services.NewPayfastService(cfg.Gateway, cfg.Prices),
		ITN:     itn,
		Tasks:   app.tasks,
		Log:     auditReader,
		Logger:  logger.With("component", "payfast"),
	}
	app.invoiceHandler = &handlers.InvoiceHandler{
		Service: invoices,
		Logger:  logger.With("component", "invoices"),
	}
	return app, nil
}

func (app *application) close() {
	if app.db != nil {
		app.db.Close()
	}
	if app.rdb != nil {
		app.rdb.Close()
	}
}

func openDB(driver, dsn string) (*sql.DB, error) {
	if driver == "mysql" {
		mc, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		mc.ParseTime = true
		dsn = mc.FormatDSN()
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
