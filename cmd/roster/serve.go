package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fentz26/roster/internal/backend"
	"github.com/fentz26/roster/internal/gateway"
)

var (
	listenAddr string
	dbPath     string
	redisURL   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the roster backend",
	Long:  `Starts the development backend that stores tasks and housekeepers in SQLite and serves them over HTTP for the http gateway.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	serveCmd.Flags().StringVar(&redisURL, "redis", "", "Redis URL for the read cache")
}

func runServe(cmd *cobra.Command, args []string) error {
	sc := cfg.Server
	if cmd.Flags().Changed("listen") {
		sc.Listen = listenAddr
	}
	if cmd.Flags().Changed("db") {
		sc.DBPath = dbPath
	}
	if cmd.Flags().Changed("redis") {
		sc.RedisURL = redisURL
	}

	logger := log.WithField("db", sc.DBPath)
	logger.Info("starting roster backend")

	s, err := backend.NewStore(sc.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if sc.Seed {
		seeded, err := s.Seed(context.Background(), gateway.FixtureHousekeepers(), gateway.FixtureTasks())
		if err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
		if seeded {
			logger.Info("seeded empty database with fixture data")
		}
	}

	var rc *redis.Client
	if sc.RedisURL != "" {
		opts, err := redis.ParseURL(sc.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		rc = redis.NewClient(opts)
		defer rc.Close()
		logger.WithField("ttl", sc.CacheTTL).Info("redis cache enabled")
	}

	server := backend.NewServer(backend.NewCache(s, rc, sc.CacheTTL), sc.Listen, logger)

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		logger.Infof("received signal %v, initiating graceful shutdown", sig)
	case err := <-serverErr:
		if err != nil {
			logger.WithError(err).Error("server error")
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown error")
	}
	logger.Info("roster backend stopped")
	return nil
}
