package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mutter0815/TripIntake/internal/intake"
	"github.com/Mutter0815/TripIntake/internal/notify"
	"github.com/Mutter0815/TripIntake/internal/store"
	"github.com/Mutter0815/TripIntake/pkg/config"
	"github.com/Mutter0815/TripIntake/pkg/db"
	"github.com/Mutter0815/TripIntake/pkg/logx"
	"github.com/Mutter0815/TripIntake/pkg/mail"
	"github.com/Mutter0815/TripIntake/pkg/ratelimit"
	"github.com/Mutter0815/TripIntake/pkg/rmq"
	"github.com/Mutter0815/TripIntake/services/intake-api/server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "intake-api",
		Short:         "Trip planning intake API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(envFile)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(envFile)
			},
		},
	)
	return root
}

func migrate(envFile string) error {
	logx.Init()
	defer logx.Sync()

	src, err := config.NewSource(envFile)
	if err != nil {
		return err
	}
	dsn, err := config.LoadDB(src)
	if err != nil {
		return err
	}
	sqlDB, err := db.Open(dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	v, err := db.Migrate(ctx, sqlDB)
	if err != nil {
		return err
	}
	logx.L().Infow("migrations_applied", "version", v)
	return nil
}

func newSender(cfg config.MailConfig) mail.Sender {
	if cfg.Provider == "smtp" {
		return mail.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return mail.NewResend(cfg.ResendAPIKey)
}

func serve(envFile string) error {
	logx.Init()
	defer logx.Sync()

	src, err := config.NewSource(envFile)
	if err != nil {
		return err
	}
	cfg, err := config.LoadAPI(src)
	if err != nil {
		logx.L().Errorw("config_error", "error", err)
		return err
	}

	sqlDB, err := db.Open(cfg.DBDSN)
	if err != nil {
		logx.L().Errorw("db_open_error", "error", err)
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logx.L().Warnw("db_close_error", "error", err)
		} else {
			logx.L().Infow("db_closed")
		}
	}()

	if cfg.MigrateOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		v, err := db.Migrate(ctx, sqlDB)
		cancel()
		if err != nil {
			logx.L().Errorw("db_migrate_error", "error", err)
			return err
		}
		logx.L().Infow("migrations_applied", "version", v)
	}

	st := store.New(sqlDB)
	notifier := notify.New(newSender(cfg.Mail), notify.Config{
		From:          cfg.Mail.From,
		OperatorEmail: cfg.Mail.OperatorEmail,
		ReplyTo:       cfg.Mail.ReplyTo,
	})

	opts := []intake.Option{intake.WithTimeouts(cfg.StoreTimeout, cfg.MailTimeout)}
	if cfg.RMQURL != "" {
		pub, err := rmq.NewPublisher(cfg.RMQURL, cfg.Queue)
		if err != nil {
			logx.L().Errorw("rmq_init_error", "error", err)
			return err
		}
		defer func() {
			if err := pub.Close(); err != nil {
				logx.L().Warnw("rmq_publisher_close_error", "error", err)
			} else {
				logx.L().Infow("rmq_publisher_closed")
			}
		}()
		opts = append(opts, intake.WithEvents(pub))
	}
	svc := intake.NewService(intake.NewValidator(cfg.MinFill), st, notifier, opts...)

	srvOpts := server.Options{CORSOrigins: cfg.CORSOrigins}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := ratelimit.Dial(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			logx.L().Errorw("redis_init_error", "error", err)
			return err
		}
		defer rc.Close()
		srvOpts.Limiter = ratelimit.NewRedis(rc, cfg.RateLimit, time.Minute)
	}

	h := server.NewHandlers(svc, st, cfg.AdminToken)
	srv := server.NewHTTPServer(":"+cfg.Port, h, srvOpts)

	errCh := make(chan error, 1)
	go func() {
		logx.L().Infow("api_listen_start", "addr", srv.Addr, "mail_provider", cfg.Mail.Provider,
			"events", cfg.RMQURL != "", "rate_limit", cfg.RedisURL != "", "operator_api", cfg.AdminToken != "")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logx.L().Infow("signal_received", "signal", sig.String())
	case err := <-errCh:
		logx.L().Errorw("http_server_error", "error", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logx.L().Errorw("server_shutdown_error", "error", err)
	} else {
		logx.L().Infow("server_shutdown_success")
	}

	logx.L().Infow("intake-api stopped gracefully")
	return nil
}
