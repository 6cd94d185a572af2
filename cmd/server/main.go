package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pvidal/battlegrid/internal/admin"
	"github.com/pvidal/battlegrid/internal/dependencies/clock"
	"github.com/pvidal/battlegrid/internal/dependencies/random"
	"github.com/pvidal/battlegrid/internal/server"
	"github.com/pvidal/battlegrid/internal/services/auth"
	"github.com/pvidal/battlegrid/internal/services/match"
	"github.com/pvidal/battlegrid/internal/services/session"
	"github.com/pvidal/battlegrid/internal/storage"
	filestorage "github.com/pvidal/battlegrid/internal/storage/file"
	"github.com/pvidal/battlegrid/internal/storage/memory"
	redisstorage "github.com/pvidal/battlegrid/internal/storage/redis"
)

type options struct {
	addr        string
	adminAddr   string
	storageType string
	usersFile   string
	resultsFile string
	redisURL    string
}

func main() {
	opts := options{}

	rootCmd := &cobra.Command{
		Use:   "battlegrid-server",
		Short: "TCP game server for battlegrid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&opts.addr, "addr", ":4000", "Game server listen address")
	rootCmd.Flags().StringVar(&opts.adminAddr, "admin-addr", ":8080", "Admin HTTP listen address")
	storageDefault := os.Getenv("STORAGE_TYPE")
	if storageDefault == "" {
		storageDefault = "file"
	}
	rootCmd.Flags().StringVar(&opts.storageType, "storage", storageDefault, "Storage backend: memory, file or redis (env: STORAGE_TYPE)")
	rootCmd.Flags().StringVar(&opts.usersFile, "users-file", "users.db", "User record file (file storage)")
	rootCmd.Flags().StringVar(&opts.resultsFile, "results-file", "results.db", "Result record file (file storage)")
	rootCmd.Flags().StringVar(&opts.redisURL, "redis-url", "", "Redis URL (redis storage)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newStore(opts options) (storage.Store, error) {
	if opts.redisURL == "" {
		opts.redisURL = os.Getenv("REDIS_URL")
	}
	switch opts.storageType {
	case "memory":
		return memory.New(), nil
	case "file":
		return filestorage.New(filestorage.Config{
			UsersPath:   opts.usersFile,
			ResultsPath: opts.resultsFile,
		})
	case "redis":
		if opts.redisURL == "" {
			return nil, fmt.Errorf("--redis-url is required with redis storage")
		}
		cfg := redisstorage.DefaultConfig()
		cfg.URL = opts.redisURL
		return redisstorage.New(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", opts.storageType)
	}
}

func run(opts options) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	authService := auth.New(store, random.New(), logger)
	if err := authService.Load(ctx); err != nil {
		return fmt.Errorf("loading users: %w", err)
	}

	sessions := session.NewRegistry(logger)
	matches := match.NewRegistry(logger)

	srv := server.New(logger, authService, sessions, matches, store, clock.New())
	if err := srv.Listen(opts.addr); err != nil {
		return err
	}

	adminSrv := admin.New(opts.adminAddr, logger, authService, sessions, matches)
	go func() {
		if err := adminSrv.Start(); err != nil {
			logger.Error("admin server failed", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		if err := adminSrv.Shutdown(context.Background()); err != nil {
			logger.Error("admin shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if err := srv.Serve(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
