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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/cart_ledger/internal/config"
	"github.com/Skotchmaster/cart_ledger/internal/db"
	"github.com/Skotchmaster/cart_ledger/internal/httpserver"
	"github.com/Skotchmaster/cart_ledger/internal/mykafka"
	"github.com/Skotchmaster/cart_ledger/internal/repo"
	"github.com/Skotchmaster/cart_ledger/internal/service"
)

type ServeOptions struct {
	Migrate bool
}

func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cart HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "run migrations before serving")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	cfg, logger, gdb, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("db close error", "error", err)
		}
	}()

	var publisher service.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer func() {
			if err := prod.Close(); err != nil {
				logger.Error("kafka close error", "error", err)
			}
		}()
		publisher = prod
	} else {
		logger.Warn("KAFKA_BROKERS not set, cart events disabled")
	}

	e, err := newServer(ctx, cfg, logger, gdb, publisher, opts.Migrate)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("cart listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-stop:
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newServer builds the echo app on gdb. With migrate set the schema is created on that
// same handle, so an in-memory SQLite database keeps it for the life of the server.
func newServer(ctx context.Context, cfg config.Config, logger *slog.Logger, gdb *gorm.DB, publisher service.Publisher, migrate bool) (*echo.Echo, error) {
	if migrate {
		if err := db.Migrate(ctx, gdb); err != nil {
			return nil, err
		}
		logger.Info("migration complete")
	}

	cartService := service.New(repo.New(gdb), publisher, cfg.KafkaTopic)

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(httpserver.Common(logger)...)

	httpserver.Register(e, &httpserver.Deps{
		CartHandler: &httpserver.CartHTTP{Svc: cartService},
		DB:          gdb,
	})
	return e, nil
}
