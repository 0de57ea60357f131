package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/app"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/clock"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/config"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/metrics"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/storage/postgres"
	transporthttp "github.com/youngre511/PeachBlossom-eStore-sub004/internal/transport/http"
	"github.com/youngre511/PeachBlossom-eStore-sub004/migrations"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("api exited")
	}
}

func run(logger zerolog.Logger) error {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	loadEnvFile(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		return err
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		return err
	}

	clk := clock.NewSystem()

	ledgerRepo := postgres.NewLedgerRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	codeRepo := postgres.NewCodeRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	ledgerSvc := app.NewLedgerService(ledgerRepo, clk, app.WithHoldTTL(cfg.HoldTTL))
	cartSvc := app.NewCartService(ledgerSvc)
	codeSvc := app.NewCodeService(codeRepo, clk)
	stockSvc := app.NewStockService(productRepo, ledgerSvc, codeSvc, clk)
	checkoutSvc := app.NewCheckoutService(orderRepo, cartSvc, codeSvc, clk)
	sweeper := app.NewSweeper(ledgerSvc, clk, cfg.ReclaimInterval, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/products", transporthttp.HandleProducts(stockSvc, ledgerSvc))
	mux.Handle("/products/", transporthttp.HandleProducts(stockSvc, ledgerSvc))
	mux.Handle("/carts/", transporthttp.HandleCarts(cartSvc, checkoutSvc))
	mux.Handle("/orders/", transporthttp.HandleOrders(checkoutSvc))
	mux.Handle("/admin/products", transporthttp.HandleCreateProduct(stockSvc))
	mux.Handle("/admin/stock-adjustments", transporthttp.HandleStockAdjustments(stockSvc))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(stopCtx)

	group.Go(func() error {
		logger.Info().Str("port", cfg.Port).Msg("api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return sweeper.Run(groupCtx)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
