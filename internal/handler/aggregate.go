package handler

import (
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"go-aggregator/internal/service"
	"go-aggregator/internal/types"
	"go-aggregator/pkg/utils"
)

type AggregateHandler struct {
	aggregator *service.Aggregator
	logger     zerolog.Logger
}

func NewAggregateHandler(aggregator *service.Aggregator, logger zerolog.Logger) *AggregateHandler {
	return &AggregateHandler{
		aggregator: aggregator,
		logger:     logger,
	}
}

// GetAggregate serves GET /aggregate?mode=zip|flat&fail=true. Mode defaults
// to the concurrent join.
func (h *AggregateHandler) GetAggregate(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	mode := types.Mode(utils.UnsafeString(args.Peek("mode")))
	forceFail := args.GetBool("fail")

	result, err := h.aggregator.Aggregate(ctx, mode, forceFail)
	if err != nil {
		h.logger.Error().Err(err).Msg("aggregation failed")
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
		return
	}

	response, err := sonic.ConfigFastest.Marshal(result)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(response)
}

func (h *AggregateHandler) GetHealth(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.WriteString(`{"status":"ok"}`)
}
