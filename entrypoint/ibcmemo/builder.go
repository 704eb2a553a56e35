package ibcmemo

import (
	"encoding/json"
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/fees"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/router"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

const (
	DefaultPort    = "transfer"
	DefaultRetries = 2
)

// SwapAndActionParams contains everything the entry point needs to swap the
// received coin and forward the output.
type SwapAndActionParams struct {
	// CoinInDenom is the denom the coin will have once it lands on the entry point chain.
	// When set, the first operation is checked against it.
	CoinInDenom      string
	SentAsset        *wasm.Coin
	Swap             swap.Swap
	MinCoin          wasm.Coin
	TimeoutTimestamp uint64
	PostSwapAction   router.Action
	Affiliates       []fees.Affiliate
}

func (p SwapAndActionParams) validate() error {
	if err := p.Swap.ValidateBasic(); err != nil {
		return err
	}
	if err := p.MinCoin.Validate(); err != nil {
		return err
	}
	ops := p.Swap.Operations()
	if len(ops) == 0 {
		return swap.ErrSwapOperationsEmpty
	}
	coinIn := p.CoinInDenom
	if coinIn == "" && p.SentAsset != nil {
		coinIn = p.SentAsset.Denom
	}
	if coinIn == "" {
		coinIn = ops[0].DenomIn
	}
	if err := swap.ValidateSwapOperations(ops, coinIn, p.MinCoin.Denom); err != nil {
		return err
	}
	if err := fees.ValidateAffiliates(p.Affiliates); err != nil {
		return err
	}
	return p.PostSwapAction.ValidateBasic()
}

// NewWasmMemo validates the params and wraps them in a swap_and_action call to the contract
func NewWasmMemo(contract string, params SwapAndActionParams) (*WasmMemo, error) {
	if contract == "" {
		return nil, fmt.Errorf("entry point contract address not configured")
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	affiliates := params.Affiliates
	if affiliates == nil {
		affiliates = []fees.Affiliate{}
	}
	return &WasmMemo{
		Wasm: &WasmData{
			Contract: contract,
			Msg: router.ExecuteMsg{
				SwapAndAction: &router.SwapAndAction{
					SentAsset:        params.SentAsset,
					UserSwap:         params.Swap,
					MinCoin:          params.MinCoin,
					TimeoutTimestamp: params.TimeoutTimestamp,
					PostSwapAction:   params.PostSwapAction,
					Affiliates:       affiliates,
				},
			},
		},
	}, nil
}

// BuildSwapAndActionMemo renders the ibc-hooks memo for a transfer that lands
// directly on the entry point chain.
func BuildSwapAndActionMemo(contract string, params SwapAndActionParams) (string, error) {
	memo, err := NewWasmMemo(contract, params)
	if err != nil {
		return "", err
	}
	return memo.ToJSON()
}

// BuildForwardSwapMemo renders a memo that first forwards the coin over the
// given hops and then calls the entry point. The last hop must deliver to the contract.
func BuildForwardSwapMemo(hops []IBCHop, contract string, params SwapAndActionParams) (string, error) {
	if len(hops) == 0 {
		return BuildSwapAndActionMemo(contract, params)
	}
	if hops[len(hops)-1].Receiver != contract {
		return "", fmt.Errorf("last hop receiver %s is not the entry point %s", hops[len(hops)-1].Receiver, contract)
	}
	memo, err := NewWasmMemo(contract, params)
	if err != nil {
		return "", err
	}

	next := &PFMNext{Wasm: memo.Wasm}
	var forward *PFMForward
	for i := len(hops) - 1; i >= 0; i-- {
		forward, err = newPFMForward(hops[i], next)
		if err != nil {
			return "", err
		}
		next = &PFMNext{Forward: forward}
	}
	return (&ForwardMemo{Forward: forward}).ToJSON()
}

func newPFMForward(hop IBCHop, next *PFMNext) (*PFMForward, error) {
	if hop.Channel == "" || hop.Receiver == "" {
		return nil, fmt.Errorf("hop requires a channel and a receiver")
	}
	if hop.Retries < 0 {
		return nil, fmt.Errorf("retries must not be negative")
	}
	if hop.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative")
	}
	port := hop.Port
	if port == "" {
		port = DefaultPort
	}
	return &PFMForward{
		Channel:  hop.Channel,
		Port:     port,
		Receiver: hop.Receiver,
		Retries:  hop.Retries,
		Timeout:  hop.Timeout,
		Next:     next,
	}, nil
}

// ParseWasmMemo extracts the entry point call from a memo. Forward hops in
// front of the wasm call are unwrapped.
func ParseWasmMemo(memo string) (*WasmData, error) {
	memo = strings.TrimSpace(memo)
	if memo == "" {
		return nil, errorsmod.Wrap(router.ErrInvalidMsg, "empty memo")
	}

	var envelope struct {
		Wasm    *WasmData   `json:"wasm"`
		Forward *PFMForward `json:"forward"`
	}
	if err := json.Unmarshal([]byte(memo), &envelope); err != nil {
		return nil, errorsmod.Wrapf(router.ErrInvalidMsg, "decode memo: %s", err)
	}

	data := envelope.Wasm
	for fwd := envelope.Forward; data == nil && fwd != nil; {
		if fwd.Next == nil {
			break
		}
		data = fwd.Next.Wasm
		fwd = fwd.Next.Forward
	}
	if data == nil {
		return nil, errorsmod.Wrap(router.ErrInvalidMsg, "memo does not carry a wasm call")
	}
	if data.Contract == "" {
		return nil, errorsmod.Wrap(router.ErrInvalidMsg, "wasm call without contract")
	}
	if data.Msg.SwapAndAction == nil {
		return nil, errorsmod.Wrap(router.ErrInvalidMsg, "wasm call is not swap_and_action")
	}
	return data, nil
}
