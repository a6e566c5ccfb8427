// Package upstream hosts mock user, order and payment services with
// artificial latency, for local runs and end-to-end tests of the aggregation
// path.
package upstream

import (
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"go-aggregator/internal/types"
	"go-aggregator/pkg/utils"
)

type Server struct {
	userDelay    time.Duration
	orderDelay   time.Duration
	paymentDelay time.Duration
	logger       zerolog.Logger

	paymentHits atomic.Int64
}

func NewServer(userDelay, orderDelay, paymentDelay time.Duration, logger zerolog.Logger) *Server {
	return &Server{
		userDelay:    userDelay,
		orderDelay:   orderDelay,
		paymentDelay: paymentDelay,
		logger:       logger,
	}
}

func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	switch utils.UnsafeString(ctx.Path()) {
	case "/user":
		s.handleUser(ctx)
	case "/order":
		s.handleOrder(ctx)
	case "/payment":
		s.handlePayment(ctx)
	case "/health":
		ctx.SetContentType("application/json")
		ctx.WriteString(`{"status":"ok"}`)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

// PaymentHits reports how many requests actually reached the payment
// endpoint, so tests can verify that an open circuit short-circuits calls.
func (s *Server) PaymentHits() int64 {
	return s.paymentHits.Load()
}

func (s *Server) handleUser(ctx *fasthttp.RequestCtx) {
	time.Sleep(s.userDelay)
	s.writeJSON(ctx, types.UserRecord{UserID: "U-1", Name: "Alice", Tier: "gold"})
}

func (s *Server) handleOrder(ctx *fasthttp.RequestCtx) {
	time.Sleep(s.orderDelay)
	s.writeJSON(ctx, types.OrderRecord{OrderID: "O-42", Item: "mechanical keyboard", Amount: 129.0})
}

func (s *Server) handlePayment(ctx *fasthttp.RequestCtx) {
	s.paymentHits.Add(1)
	time.Sleep(s.paymentDelay)

	if ctx.QueryArgs().GetBool("fail") {
		ctx.SetContentType("application/json")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.WriteString(`{"error":"forced payment failure"}`)
		return
	}

	s.writeJSON(ctx, types.PaymentRecord{PaymentID: "PAY-1001", Status: "CONFIRMED", Amount: 49.9})
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, v any) {
	body, err := sonic.ConfigFastest.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode mock response")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
