package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"go-aggregator/internal/breaker"
	"go-aggregator/internal/client"
	"go-aggregator/internal/types"
)

// PaymentFetcher is the slice of the upstream client the guard depends on.
type PaymentFetcher interface {
	FetchPayment(ctx context.Context, forceFail bool) (*types.PaymentRecord, error)
}

// PaymentGuard wraps the payment fetch with a hard per-call timeout and the
// circuit breaker. Fetch never fails: every timeout, upstream error or
// circuit rejection is absorbed into a fallback record.
type PaymentGuard struct {
	fetcher PaymentFetcher
	breaker *breaker.CircuitBreaker
	timeout time.Duration
	logger  zerolog.Logger
}

func NewPaymentGuard(
	fetcher PaymentFetcher,
	cb *breaker.CircuitBreaker,
	timeout time.Duration,
	logger zerolog.Logger,
) *PaymentGuard {
	return &PaymentGuard{
		fetcher: fetcher,
		breaker: cb,
		timeout: timeout,
		logger:  logger,
	}
}

type paymentResult struct {
	record *types.PaymentRecord
	err    error
}

func (g *PaymentGuard) Fetch(ctx context.Context, forceFail bool) types.PaymentRecord {
	if err := g.breaker.Acquire(); err != nil {
		// rejected calls never enter the sliding window
		g.logger.Warn().
			Str("state", g.breaker.State().String()).
			Msg("payment call rejected by circuit breaker")
		return types.FallbackPayment("circuit open", g.breaker.State().String())
	}

	// Buffered so a completion arriving after the deadline is discarded
	// without blocking the goroutine and without recording a second outcome.
	resultCh := make(chan paymentResult, 1)
	go func() {
		record, err := g.fetcher.FetchPayment(ctx, forceFail)
		resultCh <- paymentResult{record: record, err: err}
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		if res.err != nil {
			g.breaker.Record(breaker.OutcomeFailure)
			reason := res.err.Error()
			if client.IsTimeout(res.err) {
				reason = "timeout exceeded"
			}
			g.logger.Error().Err(res.err).Msg("payment fetch failed")
			return types.FallbackPayment(reason, g.breaker.State().String())
		}
		g.breaker.Record(breaker.OutcomeSuccess)
		return *res.record
	case <-timer.C:
		g.breaker.Record(breaker.OutcomeFailure)
		g.logger.Error().
			Dur("timeout", g.timeout).
			Msg("payment fetch exceeded timeout")
		return types.FallbackPayment("timeout exceeded", g.breaker.State().String())
	}
}
