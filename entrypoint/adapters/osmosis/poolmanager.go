package osmosis

import (
	"context"
	"encoding/json"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/host"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

// ModuleName is the custom message key routed to the poolmanager module
const ModuleName = "poolmanager"

// PoolManagerMsg is the custom message envelope, {"poolmanager":{"swap_exact_amount_in":{...}}}
type PoolManagerMsg struct {
	SwapExactAmountIn *MsgSwapExactAmountIn `json:"-"`
}

type poolManagerBody struct {
	SwapExactAmountIn *MsgSwapExactAmountIn `json:"swap_exact_amount_in,omitempty"`
}

func (m PoolManagerMsg) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]poolManagerBody{ModuleName: {SwapExactAmountIn: m.SwapExactAmountIn}})
}

func (m *PoolManagerMsg) UnmarshalJSON(raw []byte) error {
	var envelope map[string]poolManagerBody
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return err
	}
	body, ok := envelope[ModuleName]
	if !ok {
		return fmt.Errorf("missing %s key", ModuleName)
	}
	m.SwapExactAmountIn = body.SwapExactAmountIn
	return nil
}

// MsgSwapExactAmountIn mirrors osmosis.poolmanager.v1beta1.MsgSwapExactAmountIn
type MsgSwapExactAmountIn struct {
	Sender            string                          `json:"sender"`
	Routes            []swap.OsmosisSwapAmountInRoute `json:"routes"`
	TokenIn           wasm.Coin                       `json:"token_in"`
	TokenOutMinAmount math.Int                        `json:"token_out_min_amount"`
}

// PoolManagerModule settles poolmanager swaps on the in-process chain at the
// price the quoter returns: the input is burned and the output minted.
type PoolManagerModule struct {
	quoter Quoter
}

func NewPoolManagerModule(quoter Quoter) *PoolManagerModule {
	return &PoolManagerModule{quoter: quoter}
}

func (m *PoolManagerModule) HandleCustom(ctx context.Context, bank host.Bank, _ wasm.Env, sender string, raw []byte) error {
	var msg PoolManagerMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return errorsmod.Wrap(host.ErrUnknownMessage, err.Error())
	}
	swapIn := msg.SwapExactAmountIn
	if swapIn == nil {
		return errorsmod.Wrap(host.ErrUnknownMessage, "unsupported poolmanager message")
	}
	if swapIn.Sender != sender {
		return errorsmod.Wrapf(swap.ErrUnauthorized, "sender %s signed by %s", swapIn.Sender, sender)
	}

	quote, err := m.quoter.QuoteExactIn(ctx, swapIn.TokenIn, swapIn.Routes)
	if err != nil {
		return fmt.Errorf("failed to quote swap: %w", err)
	}
	if !swapIn.TokenOutMinAmount.IsNil() && quote.Coin.Amount.LT(swapIn.TokenOutMinAmount) {
		return errorsmod.Wrapf(swap.ErrInvalidSwap, "token out %s below min %s", quote.Coin, swapIn.TokenOutMinAmount)
	}

	if err := bank.Burn(sender, wasm.NewCoins(swapIn.TokenIn)); err != nil {
		return err
	}
	bank.Mint(sender, wasm.NewCoins(quote.Coin))

	log.Debug().
		Str("sender", sender).
		Str("token_in", swapIn.TokenIn.String()).
		Str("token_out", quote.Coin.String()).
		Str("price_impact", quote.PriceImpact.String()).
		Msg("Settled poolmanager swap")
	return nil
}
