package rpc

import (
	"context"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"cosmossdk.io/math"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/ibcmemo"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/router"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

const (
	defaultMemoTimeout = 10 * time.Minute
	maxSlippageBps     = 10_000
)

var bpsDenominator = decimal.NewFromInt(maxSlippageBps)

// Chain is the view of the entry point chain the service needs
type Chain interface {
	Query(ctx context.Context, contract string, msg any, out any) error
	DryRun(ctx context.Context, sender, contract string, msg any, funds ...wasm.Coin) (*wasm.Response, error)
}

// EntryPointServer implements EntryPointServiceHandler on top of a chain
// running the entry point contract
type EntryPointServer struct {
	chain      Chain
	entryPoint string
	now        func() time.Time
	metrics    *Metrics
	tracer     trace.Tracer
}

var _ EntryPointServiceHandler = (*EntryPointServer)(nil)

func NewEntryPointServer(chain Chain, entryPoint string) *EntryPointServer {
	return &EntryPointServer{
		chain:      chain,
		entryPoint: entryPoint,
		now:        time.Now,
		metrics:    NewMetrics(),
		tracer:     otel.Tracer("github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/rpc"),
	}
}

// WithClock replaces the clock used for memo timeouts
func (s *EntryPointServer) WithClock(now func() time.Time) *EntryPointServer {
	s.now = now
	return s
}

// PlanUserSwap runs the user swap dispatch of the entry point without executing
// anything and returns the messages it would send
func (s *EntryPointServer) PlanUserSwap(
	ctx context.Context,
	req *connect.Request[PlanUserSwapRequest],
) (*connect.Response[PlanUserSwapResponse], error) {
	ctx, span := s.tracer.Start(ctx, "PlanUserSwap", trace.WithAttributes(
		attribute.String("venue", req.Msg.Swap.VenueName()),
		attribute.String("mode", req.Msg.Swap.Mode()),
	))
	defer span.End()

	if err := req.Msg.RemainingCoin.Validate(); err != nil {
		return nil, s.fail(span, PlanUserSwapProcedure, err)
	}
	if err := req.Msg.MinCoin.Validate(); err != nil {
		return nil, s.fail(span, PlanUserSwapProcedure, err)
	}

	msg := router.ExecuteMsg{UserSwap: &router.UserSwap{
		Swap:          req.Msg.Swap,
		RemainingCoin: req.Msg.RemainingCoin,
		MinCoin:       req.Msg.MinCoin,
		Affiliates:    req.Msg.Affiliates,
	}}
	res, err := s.chain.DryRun(ctx, s.entryPoint, s.entryPoint, msg)
	if err != nil {
		return nil, s.fail(span, PlanUserSwapProcedure, err)
	}

	s.metrics.PlannedSwaps.WithLabelValues(req.Msg.Swap.VenueName(), req.Msg.Swap.Mode()).Inc()
	s.metrics.PlannedMessages.Observe(float64(len(res.Messages)))
	span.SetAttributes(attribute.Int("messages", len(res.Messages)))

	return connect.NewResponse(&PlanUserSwapResponse{
		Messages:   res.Messages,
		Attributes: res.Attributes,
	}), nil
}

// SimulateSwap asks the venue adapter for the counterpart of coin along operations
func (s *EntryPointServer) SimulateSwap(
	ctx context.Context,
	req *connect.Request[SimulateSwapRequest],
) (*connect.Response[SimulateSwapResponse], error) {
	ctx, span := s.tracer.Start(ctx, "SimulateSwap", trace.WithAttributes(
		attribute.String("venue", req.Msg.Venue),
		attribute.String("mode", req.Msg.Mode),
	))
	defer span.End()

	coin, err := s.simulate(ctx, req.Msg.Venue, req.Msg.Mode, req.Msg.Coin, req.Msg.Operations)
	if err != nil {
		return nil, s.fail(span, SimulateSwapProcedure, err)
	}
	return connect.NewResponse(&SimulateSwapResponse{Coin: coin}), nil
}

// BuildSwapAndActionMemo quotes the swap, derives min_coin from the slippage
// tolerance and renders the ibc-hooks memo for it
func (s *EntryPointServer) BuildSwapAndActionMemo(
	ctx context.Context,
	req *connect.Request[BuildMemoRequest],
) (*connect.Response[BuildMemoResponse], error) {
	ctx, span := s.tracer.Start(ctx, "BuildSwapAndActionMemo", trace.WithAttributes(
		attribute.String("venue", req.Msg.Venue),
		attribute.String("action", req.Msg.PostSwapAction.Kind()),
	))
	defer span.End()

	r := req.Msg
	if r.SlippageBps < 0 || r.SlippageBps >= maxSlippageBps {
		return nil, s.fail(span, BuildSwapAndActionMemoProcedure,
			connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("slippage_bps must be in [0, %d)", maxSlippageBps)))
	}

	expected, err := s.simulate(ctx, r.Venue, ModeExactCoinIn, r.CoinIn, r.Operations)
	if err != nil {
		return nil, s.fail(span, BuildSwapAndActionMemoProcedure, err)
	}
	if expected.Denom != r.DenomOut {
		return nil, s.fail(span, BuildSwapAndActionMemoProcedure, swap.ErrSwapOperationsCoinOutDenomMismatch.Wrapf(
			"venue returns %s, requested %s", expected.Denom, r.DenomOut))
	}

	minCoin := wasm.NewCoin(r.DenomOut, MinAmountWithSlippage(expected.Amount, r.SlippageBps))

	timeout := defaultMemoTimeout
	if r.TimeoutSeconds > 0 {
		timeout = time.Duration(r.TimeoutSeconds) * time.Second
	}
	timeoutTimestamp := uint64(s.now().Add(timeout).UnixNano())

	params := ibcmemo.SwapAndActionParams{
		CoinInDenom:      r.CoinIn.Denom,
		Swap:             swap.NewSwapExactCoinIn(r.Venue, r.Operations),
		MinCoin:          minCoin,
		TimeoutTimestamp: timeoutTimestamp,
		PostSwapAction:   r.PostSwapAction,
		Affiliates:       r.Affiliates,
	}
	memo, err := ibcmemo.BuildForwardSwapMemo(r.ForwardHops, s.entryPoint, params)
	if err != nil {
		return nil, s.fail(span, BuildSwapAndActionMemoProcedure, err)
	}

	s.metrics.BuiltMemos.WithLabelValues(r.Venue, r.PostSwapAction.Kind()).Inc()
	Logger.Debug().
		Str("venue", r.Venue).
		Str("expected", expected.String()).
		Str("min_coin", minCoin.String()).
		Int64("slippage_bps", r.SlippageBps).
		Msg("Built swap_and_action memo")

	return connect.NewResponse(&BuildMemoResponse{
		Memo:             memo,
		ExpectedCoinOut:  expected,
		MinCoin:          minCoin,
		TimeoutTimestamp: timeoutTimestamp,
	}), nil
}

func (s *EntryPointServer) ListSwapVenues(
	ctx context.Context,
	_ *connect.Request[ListSwapVenuesRequest],
) (*connect.Response[ListSwapVenuesResponse], error) {
	var venues []swap.SwapVenue
	if err := s.chain.Query(ctx, s.entryPoint, router.QueryMsg{SwapVenues: &struct{}{}}, &venues); err != nil {
		return nil, s.fail(nil, ListSwapVenuesProcedure, err)
	}
	return connect.NewResponse(&ListSwapVenuesResponse{Venues: venues}), nil
}

func (s *EntryPointServer) simulate(
	ctx context.Context,
	venue, mode string,
	coin wasm.Coin,
	operations []swap.SwapOperation,
) (wasm.Coin, error) {
	if err := coin.Validate(); err != nil {
		return wasm.Coin{}, err
	}
	if len(operations) == 0 {
		return wasm.Coin{}, swap.ErrSwapOperationsEmpty
	}

	var query swap.QueryMsg
	switch mode {
	case ModeExactCoinIn:
		if operations[0].DenomIn != coin.Denom {
			return wasm.Coin{}, swap.ErrSwapOperationsCoinInDenomMismatch
		}
		query = swap.NewSimulateExactCoinInQuery(coin, operations)
	case ModeExactCoinOut:
		if operations[len(operations)-1].DenomOut != coin.Denom {
			return wasm.Coin{}, swap.ErrSwapOperationsCoinOutDenomMismatch
		}
		query = swap.NewSimulateExactCoinOutQuery(coin, operations)
	default:
		return wasm.Coin{}, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown mode %q", mode))
	}

	var adapter string
	if err := s.chain.Query(ctx, s.entryPoint, router.QueryMsg{
		SwapVenueAdapterContract: &router.SwapVenueAdapterContract{Name: venue},
	}, &adapter); err != nil {
		return wasm.Coin{}, err
	}

	start := time.Now()
	var out wasm.Coin
	err := s.chain.Query(ctx, adapter, query, &out)
	s.metrics.VenueSimulation.WithLabelValues(venue, mode).Observe(time.Since(start).Seconds())
	if err != nil {
		return wasm.Coin{}, fmt.Errorf("simulate %s on %s: %w", mode, venue, err)
	}
	return out, nil
}

// fail records err on the span and the error counter and converts it into a connect error
func (s *EntryPointServer) fail(span trace.Span, procedure string, err error) error {
	connectErr := toConnectError(err)
	code := connect.CodeOf(connectErr)
	s.metrics.Errors.WithLabelValues(procedure, code.String()).Inc()
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, code.String())
	}
	return connectErr
}

// MinAmountWithSlippage lowers amount by slippageBps basis points, rounding down
func MinAmountWithSlippage(amount math.Int, slippageBps int64) math.Int {
	if amount.IsNil() || !amount.IsPositive() {
		return math.ZeroInt()
	}
	keep := decimal.NewFromInt(maxSlippageBps - slippageBps).Div(bpsDenominator)
	floor := decimal.NewFromBigInt(amount.BigInt(), 0).Mul(keep).Floor()
	return math.NewIntFromBigInt(floor.BigInt())
}
