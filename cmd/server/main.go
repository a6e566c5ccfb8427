package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"go-aggregator/internal/breaker"
	"go-aggregator/internal/client"
	"go-aggregator/internal/config"
	"go-aggregator/internal/handler"
	"go-aggregator/internal/service"
)

func main() {
	logger := zerolog.New(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
	).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	httpClient := client.NewHTTPClient(
		cfg.UserServiceURL,
		cfg.OrderServiceURL,
		cfg.PaymentServiceURL,
	)
	registry := breaker.NewRegistry(cfg.BreakerConfig(), logger)
	guard := service.NewPaymentGuard(
		httpClient,
		registry.Get("payment"),
		cfg.PaymentTimeout(),
		logger,
	)
	aggregator := service.NewAggregator(httpClient, httpClient, guard, logger)
	aggregateHandler := handler.NewAggregateHandler(aggregator, logger)

	server := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			switch string(ctx.Path()) {
			case "/aggregate":
				aggregateHandler.GetAggregate(ctx)
			case "/health":
				aggregateHandler.GetHealth(ctx)
			default:
				ctx.SetStatusCode(fasthttp.StatusNotFound)
			}
		},
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.AppPort)
		logger.Info().Str("addr", addr).Msg("aggregation server listening")
		if err := server.ListenAndServe(addr); err != nil {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully")
	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	httpClient.Close()
	logger.Info().Msg("server stopped")
}
