package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"go-aggregator/internal/breaker"
	"go-aggregator/internal/service"
	"go-aggregator/internal/types"
)

type fixedUsers struct {
	err error
}

func (f *fixedUsers) FetchUser(ctx context.Context) (*types.UserRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.UserRecord{UserID: "U-1", Name: "Alice"}, nil
}

type fixedOrders struct{}

func (f *fixedOrders) FetchOrder(ctx context.Context) (*types.OrderRecord, error) {
	return &types.OrderRecord{OrderID: "O-42", Item: "keyboard", Amount: 129.0}, nil
}

type fixedPayments struct{}

func (f *fixedPayments) FetchPayment(ctx context.Context, forceFail bool) (*types.PaymentRecord, error) {
	if forceFail {
		return nil, errors.New("forced payment failure")
	}
	return &types.PaymentRecord{PaymentID: "PAY-1001", Status: "CONFIRMED"}, nil
}

func newTestHandler(userErr error) *AggregateHandler {
	cb := breaker.New("payment", breaker.Config{}, zerolog.Nop())
	guard := service.NewPaymentGuard(&fixedPayments{}, cb, time.Second, zerolog.Nop())
	aggregator := service.NewAggregator(&fixedUsers{err: userErr}, &fixedOrders{}, guard, zerolog.Nop())
	return NewAggregateHandler(aggregator, zerolog.Nop())
}

func TestGetAggregateDefaultsToConcurrent(t *testing.T) {
	h := newTestHandler(nil)

	var req fasthttp.Request
	req.SetRequestURI("/aggregate")
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	h.GetAggregate(&ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var result types.AggregateResult
	require.NoError(t, sonic.Unmarshal(ctx.Response.Body(), &result))
	assert.Equal(t, string(types.ModeConcurrent), result.Mode)
	assert.Equal(t, "PAY-1001", result.Payment.PaymentID)
}

func TestGetAggregateFlatMode(t *testing.T) {
	h := newTestHandler(nil)

	var req fasthttp.Request
	req.SetRequestURI("/aggregate?mode=flat")
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	h.GetAggregate(&ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var result types.AggregateResult
	require.NoError(t, sonic.Unmarshal(ctx.Response.Body(), &result))
	assert.Equal(t, string(types.ModeSequential), result.Mode)
}

func TestGetAggregateForcedFailureStillSucceeds(t *testing.T) {
	h := newTestHandler(nil)

	var req fasthttp.Request
	req.SetRequestURI("/aggregate?fail=true")
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	h.GetAggregate(&ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var result types.AggregateResult
	require.NoError(t, sonic.Unmarshal(ctx.Response.Body(), &result))
	assert.Equal(t, types.FallbackPaymentID, result.Payment.PaymentID)
	assert.NotEmpty(t, result.Payment.Reason)
}

func TestGetAggregateUserFailureIsBadGateway(t *testing.T) {
	h := newTestHandler(errors.New("user service down"))

	var req fasthttp.Request
	req.SetRequestURI("/aggregate")
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	h.GetAggregate(&ctx)

	assert.Equal(t, fasthttp.StatusBadGateway, ctx.Response.StatusCode())
}

func TestGetHealth(t *testing.T) {
	h := newTestHandler(nil)

	var req fasthttp.Request
	req.SetRequestURI("/health")
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	h.GetHealth(&ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"status":"ok"}`, string(ctx.Response.Body()))
}
