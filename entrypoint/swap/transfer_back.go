package swap

import (
	"context"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

// ExecuteTransferFundsBack sends everything the contract holds to swapper.
// Only the contract itself may call it, which is how adapters forward swap
// proceeds once the swap they dispatched has settled.
func ExecuteTransferFundsBack(
	ctx context.Context,
	deps wasm.Deps,
	env wasm.Env,
	info wasm.MessageInfo,
	swapper string,
) (*wasm.Response, error) {
	if info.Sender != env.Contract.Address {
		return nil, ErrUnauthorized
	}

	balances, err := deps.Querier.QueryAllBalances(ctx, env.Contract.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances of %s: %w", env.Contract.Address, err)
	}

	res := wasm.NewResponse().AddAttribute("action", "dispatch_transfer_funds_back_bank_send")
	// a bank send with no coins is rejected by the bank module
	if balances.IsZero() {
		return res, nil
	}
	return res.AddMessage(wasm.NewBankSend(swapper, balances...)), nil
}

// SelfTransferFundsBack builds the self call an adapter appends after its swap
func SelfTransferFundsBack(env wasm.Env, swapper string) (wasm.SubMsg, error) {
	return wasm.NewWasmExecute(env.Contract.Address, NewTransferFundsBackMsg(swapper))
}
