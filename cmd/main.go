package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"payfastBack/internal/config"
	"payfastBack/utils"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file loaded", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	addr := flag.String("addr", ":"+cfg.Port, "HTTP network address")
	issueToken := flag.Bool("issue-operator-token", false, "print an operator token for the invoice endpoints and exit")
	tokenTTL := flag.Duration("operator-token-ttl", 24*time.Hour, "lifetime of a token printed by -issue-operator-token")
	tokenSubject := flag.String("operator-subject", "operator", "subject of a token printed by -issue-operator-token")
	flag.Parse()

	if *issueToken {
		if err := printOperatorToken(cfg.OperatorSecret, *tokenSubject, *tokenTTL); err != nil {
			logger.Error("issue operator token", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, *addr, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func printOperatorToken(secret, subject string, ttl time.Duration) error {
	m, err := utils.NewManager(secret)
	if err != nil {
		return fmt.Errorf("OPERATOR_JWT_SECRET: %w", err)
	}
	tok, err := m.NewOperatorToken(subject, ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func run(cfg config.Config, addr string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := initializeApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{cfg.AllowOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	srv := &http.Server{
		Addr:              addr,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		Handler:           addSecurityHeaders(c.Handler(app.routes())),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info("starting server",
			"addr", addr,
			"mode", cfg.Gateway.Mode,
			"storage", cfg.Storage.Backend,
			"duplicate_guard_redis", cfg.Redis.Addr != "",
			"itn_audit_log", cfg.Database.URL != "",
			"operator_auth", cfg.OperatorSecret != "",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if derr := app.tasks.Drain(shutdownCtx); derr != nil {
			logger.Error("pending ITN pipelines abandoned", "error", derr)
		}
		return err
	})

	return eg.Wait()
}
