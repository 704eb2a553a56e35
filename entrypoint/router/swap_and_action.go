package router

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/fees"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/ibc"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

// executeSwapAndAction takes the single attached coin and schedules two self
// calls, the user swap and then the post swap action. Running them as self
// calls keeps the entry point balance check after the swap has settled.
func (e *EntryPoint) executeSwapAndAction(
	_ context.Context,
	_ wasm.Deps,
	env wasm.Env,
	info wasm.MessageInfo,
	msg SwapAndAction,
) (*wasm.Response, error) {
	if env.Block.Time > msg.TimeoutTimestamp {
		return nil, ErrTimeout.Wrapf("block time %d, timeout %d", env.Block.Time, msg.TimeoutTimestamp)
	}

	coin, ok := info.OneCoin()
	if !ok {
		return nil, ErrInvalidFunds.Wrapf("expected exactly one coin, got %s", info.Funds)
	}
	if msg.SentAsset != nil && !msg.SentAsset.Equal(coin) {
		return nil, ErrInvalidFunds.Wrapf("sent asset %s does not match funds %s", msg.SentAsset, coin)
	}
	if err := coin.Validate(); err != nil {
		return nil, errorsmod.Wrap(ErrInvalidFunds, err.Error())
	}
	if err := msg.MinCoin.Validate(); err != nil {
		return nil, errorsmod.Wrap(ErrInvalidMsg, err.Error())
	}
	if err := msg.UserSwap.ValidateBasic(); err != nil {
		return nil, err
	}
	if err := fees.ValidateAffiliates(msg.Affiliates); err != nil {
		return nil, err
	}
	if err := msg.PostSwapAction.ValidateBasic(); err != nil {
		return nil, err
	}

	userSwap, err := wasm.NewWasmExecute(env.Contract.Address, ExecuteMsg{UserSwap: &UserSwap{
		Swap:          msg.UserSwap,
		RemainingCoin: coin,
		MinCoin:       msg.MinCoin,
		Affiliates:    msg.Affiliates,
	}})
	if err != nil {
		return nil, err
	}

	postSwap, err := wasm.NewWasmExecute(env.Contract.Address, ExecuteMsg{PostSwapAction: &PostSwapAction{
		MinCoin:          msg.MinCoin,
		TimeoutTimestamp: msg.TimeoutTimestamp,
		PostSwapAction:   msg.PostSwapAction,
		ExactOut:         msg.UserSwap.SwapExactCoinOut != nil,
	}})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sender", info.Sender).
		Str("coin", coin.String()).
		Str("min_coin", msg.MinCoin.String()).
		Str("venue", msg.UserSwap.VenueName()).
		Str("action", msg.PostSwapAction.Kind()).
		Msg("Swap and action received")

	return wasm.NewResponse().
		AddMessages(userSwap, postSwap).
		AddAttribute("action", "execute_swap_and_action").
		AddAttribute("timeout_timestamp", uintAttr(msg.TimeoutTimestamp)), nil
}

// executePostSwapAction forwards what the swap left in the entry point
func (e *EntryPoint) executePostSwapAction(
	ctx context.Context,
	deps wasm.Deps,
	env wasm.Env,
	info wasm.MessageInfo,
	msg PostSwapAction,
) (*wasm.Response, error) {
	if info.Sender != env.Contract.Address {
		return nil, swap.ErrUnauthorized
	}
	if env.Block.Time > msg.TimeoutTimestamp {
		return nil, ErrTimeout.Wrapf("block time %d, timeout %d", env.Block.Time, msg.TimeoutTimestamp)
	}

	out, err := deps.Querier.QueryBalance(ctx, env.Contract.Address, msg.MinCoin.Denom)
	if err != nil {
		return nil, errorsmod.Wrapf(err, "query %s balance", msg.MinCoin.Denom)
	}
	if e.config.EnforceMinCoin && out.Amount.LT(msg.MinCoin.Amount) {
		return nil, ErrReceivedLessCoinFromSwapsThanMinCoin.Wrapf("received %s, min %s", out, msg.MinCoin)
	}
	if out.IsZero() {
		return nil, ErrNoOutputToForward.Wrapf("%s", msg.MinCoin.Denom)
	}

	actionMsgs, err := e.actionMessages(deps, msg.PostSwapAction, out, msg.TimeoutTimestamp)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("coin", out.String()).
		Str("action", msg.PostSwapAction.Kind()).
		Bool("exact_out", msg.ExactOut).
		Msg("Dispatching post swap action")

	return wasm.NewResponse().
		AddMessages(actionMsgs...).
		AddAttribute("action", "dispatch_post_swap_"+msg.PostSwapAction.Kind()), nil
}

func (e *EntryPoint) actionMessages(deps wasm.Deps, action Action, coin wasm.Coin, timeout uint64) ([]wasm.SubMsg, error) {
	switch {
	case action.Transfer != nil:
		return []wasm.SubMsg{wasm.NewBankSend(action.Transfer.ToAddress, coin)}, nil

	case action.ContractCall != nil:
		call, err := wasm.NewWasmExecute(action.ContractCall.ContractAddress, action.ContractCall.Msg, coin)
		if err != nil {
			return nil, err
		}
		return []wasm.SubMsg{call}, nil

	case action.IbcTransfer != nil:
		adapter, err := ibcTransferAdapterContractAddress.Load(deps.Storage)
		if err != nil {
			return nil, err
		}

		// relayer fees in the output denom are carved out of the transfer
		fee := action.IbcTransfer.IbcInfo.Fee.Total()
		amount, err := fees.Refund(coin.Amount, fee.AmountOf(coin.Denom))
		if err != nil {
			return nil, err
		}
		transferCoin := wasm.NewCoin(coin.Denom, amount)

		funds := wasm.NewCoins(transferCoin)
		for _, c := range fee {
			funds = funds.Add(c)
		}

		transfer := ibc.IbcTransfer{
			Info:             action.IbcTransfer.IbcInfo,
			Coin:             transferCoin,
			TimeoutTimestamp: timeout,
		}
		call, err := wasm.NewWasmExecute(adapter, transfer.ToExecuteMsg(), funds...)
		if err != nil {
			return nil, err
		}
		return []wasm.SubMsg{call}, nil
	}
	return nil, ErrInvalidAction
}
