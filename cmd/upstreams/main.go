package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"go-aggregator/internal/config"
	"go-aggregator/internal/upstream"
)

func main() {
	logger := zerolog.New(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
	).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	mocks := upstream.NewServer(cfg.UserDelay(), cfg.OrderDelay(), cfg.PaymentDelay(), logger)

	server := &fasthttp.Server{
		Handler:     mocks.Handler,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.UpstreamPort)
		logger.Info().
			Str("addr", addr).
			Dur("userDelay", cfg.UserDelay()).
			Dur("orderDelay", cfg.OrderDelay()).
			Dur("paymentDelay", cfg.PaymentDelay()).
			Msg("mock upstream services listening")
		if err := server.ListenAndServe(addr); err != nil {
			logger.Fatal().Err(err).Msg("upstreams failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down upstreams")
	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("upstreams forced to shutdown")
	}
}
