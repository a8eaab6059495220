package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"portfolio_engine/internal/app/service"
	"portfolio_engine/internal/client"
	"portfolio_engine/internal/infrastructure/configloader"
	"portfolio_engine/internal/infrastructure/node"
	"portfolio_engine/internal/infrastructure/restapi"
	"portfolio_engine/internal/infrastructure/tokenregistry"
	"portfolio_engine/internal/infrastructure/walletloader"
	"portfolio_engine/internal/pkg/logger"
	"portfolio_engine/internal/pkg/metrics"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

func main() {
	cfgPath := getEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", "path", cfgPath, "error", err)
	}

	zapLogger := buildZapLogger(cfg.Logging.Level)
	defer zapLogger.Sync()

	// Route slog (and everything behind port.Logger) through the zap core.
	logger.SetDefault(slog.New(zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{})))
	appLogger := logger.NewSlogAdapter()

	appLogger.Info("Configuration loaded", "path", cfgPath)

	metrics.MustRegisterMetrics()

	registry, err := tokenregistry.Load(cfg.Files.TokenRegistry, appLogger)
	if err != nil {
		logger.Fatal("Failed to load token registry", "path", cfg.Files.TokenRegistry, "error", err)
	}

	mobulaClient := client.NewMobulaClient(
		cfg.Mobula.BaseURL,
		time.Duration(cfg.Mobula.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
		cfg.TokenPriceSvc.MaxTokensPerBatchRequest,
	)
	coinGeckoClient := client.NewCoinGeckoClient(
		cfg.CoinGecko.BaseURL,
		time.Duration(cfg.CoinGecko.RequestTimeoutMillis)*time.Millisecond,
		cfg.CoinGecko.RateLimitPerSecond,
		cfg.CoinGecko.BurstLimit,
		zapLogger,
	)
	nodeClient := node.NewClient(
		cfg.Node.BaseURL,
		time.Duration(cfg.Node.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)

	priceService := service.NewTokenPriceService(mobulaClient, coinGeckoClient, registry, appLogger, cfg, nil)
	lpValuer := service.NewLPValuer(priceService, nodeClient, registry, appLogger, nil)
	portfolioService := service.NewPortfolioService(nodeClient, priceService, lpValuer, registry, appLogger, cfg)

	walletProvider := walletloader.NewWalletFileLoader(cfg.Files.Wallets, appLogger.Info)

	priceHandler := restapi.NewPriceHandler(priceService)
	portfolioHandler := restapi.NewPortfolioHandler(portfolioService, walletProvider)
	router := restapi.SetupRouter(priceHandler, portfolioHandler)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		appLogger.Info("Server starting", "addr", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}
	appLogger.Info("Server exiting")
}

func buildZapLogger(level string) *zap.Logger {
	var zapLogger *zap.Logger
	var err error
	if strings.EqualFold(level, "debug") {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		logger.Fatal("Failed to initialize zap logger", "error", err)
	}
	return zapLogger
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
