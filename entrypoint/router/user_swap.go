package router

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/fees"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

func (e *EntryPoint) executeUserSwap(
	ctx context.Context,
	deps wasm.Deps,
	env wasm.Env,
	info wasm.MessageInfo,
	msg UserSwap,
) (*wasm.Response, error) {
	if info.Sender != env.Contract.Address {
		return nil, swap.ErrUnauthorized
	}
	if err := msg.Swap.ValidateBasic(); err != nil {
		return nil, err
	}
	if err := msg.RemainingCoin.Validate(); err != nil {
		return nil, errorsmod.Wrap(ErrInvalidMsg, err.Error())
	}
	if err := msg.MinCoin.Validate(); err != nil {
		return nil, errorsmod.Wrap(ErrInvalidMsg, err.Error())
	}

	adapter, err := loadSwapVenueAdapter(deps.Storage, msg.Swap.VenueName())
	if err != nil {
		return nil, err
	}

	if err := swap.ValidateSwapOperations(msg.Swap.Operations(), msg.RemainingCoin.Denom, msg.MinCoin.Denom); err != nil {
		return nil, err
	}

	var msgs []wasm.SubMsg
	if msg.Swap.SwapExactCoinIn != nil {
		msgs, err = userSwapExactCoinIn(adapter, msg)
	} else {
		msgs, err = userSwapExactCoinOut(ctx, deps, adapter, msg)
	}
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("venue", msg.Swap.VenueName()).
		Str("mode", msg.Swap.Mode()).
		Str("remaining_coin", msg.RemainingCoin.String()).
		Str("min_coin", msg.MinCoin.String()).
		Int("messages", len(msgs)).
		Msg("Dispatching user swap")

	return wasm.NewResponse().
		AddMessages(msgs...).
		AddAttribute("action", "dispatch_user_swap").
		AddAttribute("swap_venue_name", msg.Swap.VenueName()), nil
}

// userSwapExactCoinIn swaps the whole remaining coin and pays affiliates out
// of min coin
func userSwapExactCoinIn(adapter string, msg UserSwap) ([]wasm.SubMsg, error) {
	swapMsg, err := wasm.NewWasmExecute(adapter, swap.NewSwapMsg(msg.Swap), msg.RemainingCoin)
	if err != nil {
		return nil, err
	}

	sends, err := affiliateSends(msg.MinCoin, msg.Affiliates)
	if err != nil {
		return nil, err
	}
	return append([]wasm.SubMsg{swapMsg}, sends...), nil
}

// userSwapExactCoinOut asks the venue how much coin in is needed for min coin,
// refunds the surplus and swaps only what is required
func userSwapExactCoinOut(ctx context.Context, deps wasm.Deps, adapter string, msg UserSwap) ([]wasm.SubMsg, error) {
	var coinIn wasm.Coin
	query := swap.NewSimulateExactCoinOutQuery(msg.MinCoin, msg.Swap.Operations())
	if err := deps.Querier.QuerySmart(ctx, adapter, query, &coinIn); err != nil {
		return nil, errorsmod.Wrapf(err, "simulate swap exact coin out on %s", adapter)
	}

	if coinIn.Denom != msg.RemainingCoin.Denom {
		return nil, ErrUserSwapCoinInDenomMismatch.Wrapf("simulated %s, remaining %s", coinIn.Denom, msg.RemainingCoin.Denom)
	}

	refundAddress := msg.Swap.SwapExactCoinOut.RefundAddress
	if refundAddress == nil || *refundAddress == "" {
		return nil, ErrNoRefundAddress
	}

	refund, err := fees.Refund(msg.RemainingCoin.Amount, coinIn.Amount)
	if err != nil {
		return nil, err
	}

	var msgs []wasm.SubMsg
	if refund.IsPositive() {
		msgs = append(msgs, wasm.NewBankSend(*refundAddress, wasm.NewCoin(msg.RemainingCoin.Denom, refund)))
	}

	swapMsg, err := wasm.NewWasmExecute(adapter, swap.NewSwapMsg(msg.Swap), coinIn)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, swapMsg)

	sends, err := affiliateSends(msg.MinCoin, msg.Affiliates)
	if err != nil {
		return nil, err
	}
	return append(msgs, sends...), nil
}
