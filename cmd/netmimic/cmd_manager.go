package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netmimic/netmimic/pkg/manager"
	"github.com/netmimic/netmimic/pkg/stub"
	"github.com/netmimic/netmimic/pkg/util"
)

var (
	managerHost string
	managerPort int
	redisAddr   string
	redisDB     int
)

var managerCmd = &cobra.Command{
	Use:   "manager <project-dir>",
	Short: "Run the manager",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := openProject(args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Stub state lives in memory unless a redis address is given;
		// redis lets several managers share one state store.
		var stubs stub.Repository
		if redisAddr != "" {
			redisRepo := stub.NewRedisRepository(redisAddr, redisDB)
			if err := redisRepo.Ping(ctx); err != nil {
				return fmt.Errorf("connecting to redis at %s: %w", redisAddr, err)
			}
			defer redisRepo.Close()
			stubs = redisRepo
		} else {
			stubs = stub.NewMemoryRepository()
		}

		app := manager.NewApp(proj, stubs)
		if err := app.Startup(ctx); err != nil {
			return err
		}

		server := manager.NewServer(fmt.Sprintf("%s:%d", managerHost, managerPort), app)
		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		util.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	managerCmd.Flags().StringVar(&managerHost, "host", "0.0.0.0", "Host to listen on")
	managerCmd.Flags().IntVar(&managerPort, "port", 10080, "Port to listen on")
	managerCmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for shared stub state (host:port)")
	managerCmd.Flags().IntVar(&redisDB, "redis-db", 0, "Redis database number")
}
