// cmd/historian/main.go drains room actions from the Redis queue into Postgres.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/unoroom/internal/cache"
	"github.com/jason-s-yu/unoroom/internal/config"
	"github.com/jason-s-yu/unoroom/internal/database"
	"github.com/jason-s-yu/unoroom/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "historian",
	Short:        "Persist queued room actions to Postgres",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.New(), cfgFile)
		if err != nil {
			return err
		}
		return run(signalContext(context.Background()), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.unoroom.yaml or $HOME/.unoroom.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger()
	if cfg.Redis.Addr == "" || cfg.Database.URL == "" {
		return errors.New("historian needs both redis.addr and database.url")
	}

	rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	if err := database.ConnectDB(ctx, cfg.Database.URL); err != nil {
		return err
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	svc := historian.New(rdb, database.InsertRoomActions, historian.Options{
		Queue:         cfg.Redis.Queue,
		BatchSize:     cfg.Historian.BatchSize,
		FlushInterval: cfg.Historian.FlushInterval,
		Logger:        logger,
	})
	logger.Infof("historian draining %q", cfg.Redis.Queue)
	svc.Run(ctx)
	logger.Infof("historian stopped after flushing %d actions", svc.Flushed())
	return nil
}

func signalContext(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		signal.Stop(sigs)
		cancel()
	}()
	return ctx
}
