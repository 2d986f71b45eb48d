// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/unoroom/internal/cache"
	"github.com/jason-s-yu/unoroom/internal/config"
	"github.com/jason-s-yu/unoroom/internal/database"
	"github.com/jason-s-yu/unoroom/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfgFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rooms over WebSocket (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.New(), cfgFile)
		if err != nil {
			return err
		}
		return serve(SignalContext(context.Background()), cfg)
	},
}

var rootCmd = &cobra.Command{
	Use:          "unoroom",
	Short:        "Real-time UNO room server",
	SilenceUsage: true,
	RunE:         serveCmd.RunE,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.unoroom.yaml or $HOME/.unoroom.yaml)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger()

	opts := handlers.ServerOptions{
		Logger:         logger,
		AIDelay:        cfg.AIDelay,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxMessageSize: cfg.MaxMessageSize,
		RateEvery:      cfg.RateLimit.Every,
		RateBurst:      cfg.RateLimit.Burst,
	}

	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts.Recorder = cache.NewRedisRecorder(rdb, cfg.Redis.Queue)
		logger.Infof("recording room actions to redis queue %q", cfg.Redis.Queue)
	} else {
		logger.Warn("redis address not set, room actions will not be recorded")
	}

	if cfg.Database.URL != "" {
		if err := database.ConnectDB(ctx, cfg.Database.URL); err != nil {
			return err
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		opts.ResultSink = database.RecordRoomResult
	} else {
		logger.Warn("database url not set, room results will not be archived")
	}

	srv := handlers.NewRoomServer(opts)
	httpSrv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: srv.NewRouter(cfg.AllowedOrigins),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", httpSrv.Addr).Info("room server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	srv.Wait()
	logger.WithFields(logrus.Fields{"rooms": srv.Store.Len()}).Info("room server stopped")
	return nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(ctx context.Context) context.Context {
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
