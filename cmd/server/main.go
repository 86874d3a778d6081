package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"reservas/internal/api"
	"reservas/internal/config"
	"reservas/internal/lib/logger/sl"
	"reservas/internal/repository"
	"reservas/internal/service"
)

const shutdownTimeout = 30 * time.Second

func main() {
	godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reservas",
		Short:         "Restaurant reservation intake: web form API, storage and notifications",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE:  runServe,
	})
	root.AddCommand(newReservationsCmd())

	return root
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := setupLogger(cfg.Env)
	log.Info("starting application", slog.String("env", cfg.Env), slog.String("store", cfg.StoreDriver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	mailer := service.NewMailer(cfg)
	senderCfg := service.SenderConfigFrom(cfg)
	sender := service.NewSenderService(mailer, service.NewSMSSender(cfg), senderCfg, log)
	if !sender.Enabled() {
		log.Warn("no mail or sms transport configured, notifications will only be logged")
	}

	hours := service.BusinessHours{
		OpenDays:  cfg.OpenDays,
		OpenTime:  cfg.OpenTime,
		CloseTime: cfg.CloseTime,
		Location:  cfg.Location,
	}
	svc := service.NewReservationService(store, sender, service.NewRandomCodeGenerator(), hours, log)

	if cfg.DigestCron != "" {
		jobs := service.NewJobService(store, mailer, senderCfg, log)
		c, err := jobs.Schedule(cfg.DigestCron)
		if err != nil {
			return err
		}
		defer c.Stop()
		log.Info("daily digest scheduled", slog.String("cron", cfg.DigestCron))
	}

	router := api.NewRouter(api.NewUserReservationHandler(svc, log), api.RouterOptions{
		StaticDir:       cfg.StaticDir,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
		TrustProxy:      cfg.TrustProxy,
		AccessLog:       os.Stdout,
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", slog.String("addr", srv.Addr), slog.String("site", cfg.SiteName))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("stopping application")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop http server", sl.Err(err))
	}
	// in-flight notifications are bounded by NOTIFY_TIMEOUT
	sender.Wait()
	log.Info("application stopped")
	return nil
}

// openStore returns the configured reservation store and its cleanup func.
func openStore(ctx context.Context, cfg config.Config) (repository.ReservationStore, func() error, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		repo, err := repository.NewPostgresReservationRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		repo, err := repository.NewFileReservationRepository(cfg.ReservationsFile())
		if err != nil {
			return nil, nil, err
		}
		return repo, func() error { return nil }, nil
	}
}

func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case config.EnvDev:
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return logger
}
