package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pigoex/exchange-core/internal/config"
	"github.com/pigoex/exchange-core/internal/engine"
	"github.com/pigoex/exchange-core/internal/handler"
	"github.com/pigoex/exchange-core/internal/ident"
	"github.com/pigoex/exchange-core/internal/ledger"
	"github.com/pigoex/exchange-core/internal/pricefeed"
	"github.com/pigoex/exchange-core/internal/service"
	"github.com/pigoex/exchange-core/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Core state.
	ldgr := ledger.New()
	orderStore := store.NewOrderStore()
	tradeStore := store.NewTradeStore()
	feed := pricefeed.NewStaticFeed()

	// Notification sink (no-op when NOTIFY_URL is unset).
	notifier := service.NewNotifyService(cfg.NotifyURL, cfg.NotifyTimeout)

	// Settlement engine and its dispatcher.
	settlement := engine.NewSettlement(
		ldgr,
		orderStore,
		tradeStore,
		feed,
		ident.New("TRD"),
		cfg.FeeRate,
		cfg.MarketSpread,
		notifier,
		logger,
	)
	dispatcher := engine.NewDispatcher(settlement, cfg.SettlementQueueSize, logger)

	// Services.
	orderSvc := service.NewOrderService(ldgr, orderStore, tradeStore, dispatcher, notifier, ident.New("ORD"))
	walletSvc := service.NewWalletService(ldgr, notifier)
	marketSvc := service.NewMarketService(engine.NewBookView(orderStore), tradeStore, feed)

	// Router.
	router := handler.NewRouter(orderSvc, walletSvc, marketSvc, logger)

	// Start settlement goroutine with cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops settlement goroutine).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
