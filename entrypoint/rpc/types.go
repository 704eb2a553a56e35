package rpc

import (
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/fees"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/ibcmemo"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/router"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

const (
	ModeExactCoinIn  = "exact_coin_in"
	ModeExactCoinOut = "exact_coin_out"
)

type PlanUserSwapRequest struct {
	Swap          swap.Swap        `json:"swap"`
	RemainingCoin wasm.Coin        `json:"remaining_coin"`
	MinCoin       wasm.Coin        `json:"min_coin"`
	Affiliates    []fees.Affiliate `json:"affiliates"`
}

// PlanUserSwapResponse lists the messages the entry point would emit, in order
type PlanUserSwapResponse struct {
	Messages   []wasm.SubMsg    `json:"messages"`
	Attributes []wasm.Attribute `json:"attributes"`
}

type SimulateSwapRequest struct {
	Venue      string               `json:"venue"`
	Mode       string               `json:"mode"`
	Coin       wasm.Coin            `json:"coin"`
	Operations []swap.SwapOperation `json:"operations"`
}

// SimulateSwapResponse carries the counterpart coin: the output for exact in,
// the required input for exact out
type SimulateSwapResponse struct {
	Coin wasm.Coin `json:"coin"`
}

type BuildMemoRequest struct {
	Venue          string               `json:"venue"`
	CoinIn         wasm.Coin            `json:"coin_in"`
	DenomOut       string               `json:"denom_out"`
	Operations     []swap.SwapOperation `json:"operations"`
	SlippageBps    int64                `json:"slippage_bps"`
	PostSwapAction router.Action        `json:"post_swap_action"`
	Affiliates     []fees.Affiliate     `json:"affiliates"`
	TimeoutSeconds uint64               `json:"timeout_seconds"`
	// ForwardHops route the coin through other chains before it reaches the entry point
	ForwardHops []ibcmemo.IBCHop `json:"forward_hops,omitempty"`
}

type BuildMemoResponse struct {
	Memo             string    `json:"memo"`
	ExpectedCoinOut  wasm.Coin `json:"expected_coin_out"`
	MinCoin          wasm.Coin `json:"min_coin"`
	TimeoutTimestamp uint64    `json:"timeout_timestamp"`
}

type ListSwapVenuesRequest struct{}

type ListSwapVenuesResponse struct {
	Venues []swap.SwapVenue `json:"venues"`
}
