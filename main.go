package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docvault/internal/blob"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/server"
	"docvault/internal/users"
	"docvault/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "docvault",
		Short:        "Document management server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newGrantAdminCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func newGrantAdminCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "grant-admin",
		Short: "Give an existing user admin rights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

			db := database.NewDatabaseManager(cfg, logger)
			if err := db.Connect(); err != nil {
				return fmt.Errorf("error connecting to database: %w", err)
			}
			defer db.Close()

			store := users.NewGormStore(db.DB)
			user, err := store.GetByEmail(cmd.Context(), utils.NormalizeEmail(email))
			if err != nil {
				return fmt.Errorf("no user with email %s: %w", email, err)
			}
			changed, err := store.SetAdmin(cmd.Context(), user.ID, true)
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", user.Email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already an admin\n", user.Email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to promote")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func serve(ctx context.Context) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(cfg.ErrorLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open error log file: %w", err)
	}
	defer func(logFile *os.File) {
		err := logFile.Close()
		if err != nil {
			log.Fatalln("Failed to close error_logger file")
		}
	}(logFile)

	error_logger := slog.New(slog.NewTextHandler(
		io.MultiWriter(logFile, os.Stderr),
		&slog.HandlerOptions{Level: cfg.SlogLevel()},
	))

	db := database.NewDatabaseManager(cfg, error_logger)
	if err := db.Connect(); err != nil {
		error_logger.Error("Error connecting to database", "error", err)
		return err
	}
	defer func(db *database.Manager) {
		if err := db.Close(); err != nil {
			error_logger.Error("Error closing database", "error", err)
		}
	}(db)

	var redisClient *redis.Client
	if cfg.HasRedis() {
		redisClient, err = utils.NewRedisClient(cfg)
		if err != nil {
			return err
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			error_logger.Error("Error connecting to redis", "error", err)
			return err
		}
		defer redisClient.Close()
	}

	blobs, err := blob.New(ctx, cfg.Blob)
	if err != nil {
		error_logger.Error("Error creating blob store", "backend", cfg.Blob.Backend, "error", err)
		return err
	}

	app := server.New(server.Deps{
		Config: cfg,
		DB:     db.DB,
		Blobs:  blobs,
		Redis:  redisClient,
		Logger: error_logger,
	})
	defer app.Close()

	if err := app.Sweeper.Start(cfg.NotificationSweepCron); err != nil {
		return err
	}
	defer app.Sweeper.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		error_logger.Info("Server listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			error_logger.Error("Error starting server", "error", err)
			return err
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			error_logger.Error("Error shutting down server", "error", err)
			return err
		}
	}
	return nil
}
