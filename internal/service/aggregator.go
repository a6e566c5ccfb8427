package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"go-aggregator/internal/types"
)

type UserFetcher interface {
	FetchUser(ctx context.Context) (*types.UserRecord, error)
}

type OrderFetcher interface {
	FetchOrder(ctx context.Context) (*types.OrderRecord, error)
}

// Aggregator joins the user, order and guarded payment fetches into one
// result. The concurrent strategy is bounded by the slowest branch, the
// sequential one by the sum of all three; both produce the same shape.
type Aggregator struct {
	users  UserFetcher
	orders OrderFetcher
	guard  *PaymentGuard
	logger zerolog.Logger
}

func NewAggregator(
	users UserFetcher,
	orders OrderFetcher,
	guard *PaymentGuard,
	logger zerolog.Logger,
) *Aggregator {
	return &Aggregator{
		users:  users,
		orders: orders,
		guard:  guard,
		logger: logger,
	}
}

// Aggregate dispatches on mode, defaulting to the concurrent join.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	mode types.Mode,
	forceFail bool,
) (*types.AggregateResult, error) {
	if mode == types.ModeSequential {
		return a.AggregateSequential(ctx, forceFail)
	}
	return a.AggregateConcurrent(ctx, forceFail)
}

func (a *Aggregator) AggregateConcurrent(
	ctx context.Context,
	forceFail bool,
) (*types.AggregateResult, error) {
	start := time.Now()

	var (
		user    *types.UserRecord
		order   *types.OrderRecord
		payment types.PaymentRecord
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		u, err := a.users.FetchUser(groupCtx)
		if err != nil {
			return fmt.Errorf("user fetch: %w", err)
		}
		user = u
		return nil
	})
	group.Go(func() error {
		o, err := a.orders.FetchOrder(groupCtx)
		if err != nil {
			return fmt.Errorf("order fetch: %w", err)
		}
		order = o
		return nil
	})
	group.Go(func() error {
		// the guarded call cannot fail, it degrades to a fallback record
		payment = a.guard.Fetch(groupCtx, forceFail)
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return a.assemble(types.ModeConcurrent, user, order, payment, start), nil
}

func (a *Aggregator) AggregateSequential(
	ctx context.Context,
	forceFail bool,
) (*types.AggregateResult, error) {
	start := time.Now()

	user, err := a.users.FetchUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("user fetch: %w", err)
	}

	order, err := a.orders.FetchOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("order fetch: %w", err)
	}

	payment := a.guard.Fetch(ctx, forceFail)

	return a.assemble(types.ModeSequential, user, order, payment, start), nil
}

func (a *Aggregator) assemble(
	mode types.Mode,
	user *types.UserRecord,
	order *types.OrderRecord,
	payment types.PaymentRecord,
	start time.Time,
) *types.AggregateResult {
	elapsed := time.Since(start)

	message := "user, order and payment joined concurrently"
	if mode == types.ModeSequential {
		message = "user, order and payment fetched one after another"
	}

	a.logger.Info().
		Str("mode", string(mode)).
		Int64("elapsedMs", elapsed.Milliseconds()).
		Bool("paymentFallback", payment.IsFallback()).
		Msg("aggregate complete")

	return &types.AggregateResult{
		Mode:          string(mode),
		User:          user,
		Order:         order,
		Payment:       payment,
		ElapsedMillis: elapsed.Milliseconds(),
		Message:       message,
	}
}
