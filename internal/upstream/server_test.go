package upstream

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"go-aggregator/internal/breaker"
	"go-aggregator/internal/client"
	"go-aggregator/internal/service"
)

// startServer serves the mock upstreams on an ephemeral port and returns
// their base URL.
func startServer(t *testing.T, s *Server) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &fasthttp.Server{Handler: s.Handler}
	go func() {
		_ = srv.Serve(listener)
	}()
	t.Cleanup(func() {
		_ = srv.Shutdown()
	})

	return fmt.Sprintf("http://%s", listener.Addr().String())
}

func newStack(
	baseURL string,
	breakerCfg breaker.Config,
	paymentTimeout time.Duration,
) (*service.Aggregator, *breaker.CircuitBreaker) {
	httpClient := client.NewHTTPClient(baseURL, baseURL, baseURL)
	registry := breaker.NewRegistry(breakerCfg, zerolog.Nop())
	cb := registry.Get("payment")
	guard := service.NewPaymentGuard(httpClient, cb, paymentTimeout, zerolog.Nop())
	return service.NewAggregator(httpClient, httpClient, guard, zerolog.Nop()), cb
}

func defaultBreakerConfig() breaker.Config {
	return breaker.Config{
		WindowSize:           5,
		FailureRateThreshold: 50,
		MinimumCalls:         5,
		OpenWaitDuration:     10 * time.Second,
		HalfOpenPermits:      2,
	}
}

func TestEndToEndConcurrentVsSequential(t *testing.T) {
	s := NewServer(30*time.Millisecond, 70*time.Millisecond, 20*time.Millisecond, zerolog.Nop())
	baseURL := startServer(t, s)
	aggregator, _ := newStack(baseURL, defaultBreakerConfig(), time.Second)

	concurrent, err := aggregator.AggregateConcurrent(context.Background(), false)
	require.NoError(t, err)
	sequential, err := aggregator.AggregateSequential(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, "U-1", concurrent.User.UserID)
	assert.Equal(t, "O-42", concurrent.Order.OrderID)
	assert.Equal(t, "PAY-1001", concurrent.Payment.PaymentID)

	assert.GreaterOrEqual(t, sequential.ElapsedMillis, int64(120))
	assert.Less(t, concurrent.ElapsedMillis, sequential.ElapsedMillis)
}

func TestEndToEndPaymentTimeout(t *testing.T) {
	s := NewServer(0, 0, 150*time.Millisecond, zerolog.Nop())
	baseURL := startServer(t, s)
	aggregator, cb := newStack(baseURL, defaultBreakerConfig(), 40*time.Millisecond)

	start := time.Now()
	result, err := aggregator.AggregateConcurrent(context.Background(), false)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, result.Payment.IsFallback())
	assert.Contains(t, result.Payment.Reason, "timeout")
	assert.Less(t, elapsed, 130*time.Millisecond)
	assert.Equal(t, 1, cb.Metrics().Failures)
}

func TestEndToEndBreakerOpensAndSkipsUpstream(t *testing.T) {
	s := NewServer(0, 0, 0, zerolog.Nop())
	baseURL := startServer(t, s)
	aggregator, cb := newStack(baseURL, defaultBreakerConfig(), time.Second)

	for i := 0; i < 5; i++ {
		result, err := aggregator.AggregateConcurrent(context.Background(), true)
		require.NoError(t, err)
		require.True(t, result.Payment.IsFallback())
	}
	require.Equal(t, breaker.StateOpen, cb.State())
	require.Equal(t, int64(5), s.PaymentHits())

	result, err := aggregator.AggregateConcurrent(context.Background(), false)
	require.NoError(t, err)

	assert.True(t, result.Payment.IsFallback())
	assert.Contains(t, result.Payment.Reason, "circuit")
	assert.Equal(t, int64(5), s.PaymentHits(), "open circuit must not reach the payment upstream")
	assert.Equal(t, 5, cb.Metrics().WindowLength)
}

func TestEndToEndBreakerRecovers(t *testing.T) {
	cfg := defaultBreakerConfig()
	cfg.OpenWaitDuration = 80 * time.Millisecond

	s := NewServer(0, 0, 0, zerolog.Nop())
	baseURL := startServer(t, s)
	aggregator, cb := newStack(baseURL, cfg, time.Second)

	for i := 0; i < 5; i++ {
		_, err := aggregator.AggregateConcurrent(context.Background(), true)
		require.NoError(t, err)
	}
	require.Equal(t, breaker.StateOpen, cb.State())

	time.Sleep(100 * time.Millisecond)

	// first call after the wait is the half-open trial; it succeeds and
	// closes the circuit
	result, err := aggregator.AggregateConcurrent(context.Background(), false)
	require.NoError(t, err)

	assert.False(t, result.Payment.IsFallback())
	assert.Equal(t, breaker.StateClosed, cb.State())
}
