package router

import (
	"encoding/json"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/fees"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/ibc"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

type InstantiateMsg struct {
	SwapVenues                 []swap.SwapVenue `json:"swap_venues"`
	IbcTransferContractAddress string           `json:"ibc_transfer_contract_address"`
}

// ExecuteMsg is the entry point execute interface. SwapAndAction is the public
// entry, the rest are self calls it schedules.
type ExecuteMsg struct {
	SwapAndAction     *SwapAndAction             `json:"swap_and_action,omitempty"`
	UserSwap          *UserSwap                  `json:"user_swap,omitempty"`
	PostSwapAction    *PostSwapAction            `json:"post_swap_action,omitempty"`
	TransferFundsBack *swap.TransferFundsBackMsg `json:"transfer_funds_back,omitempty"`
}

// SwapAndAction swaps the attached coin and then runs the post swap action
type SwapAndAction struct {
	SentAsset        *wasm.Coin       `json:"sent_asset,omitempty"`
	UserSwap         swap.Swap        `json:"user_swap"`
	MinCoin          wasm.Coin        `json:"min_coin"`
	TimeoutTimestamp uint64           `json:"timeout_timestamp"`
	PostSwapAction   Action           `json:"post_swap_action"`
	Affiliates       []fees.Affiliate `json:"affiliates"`
}

// UserSwap dispatches the swap to the venue adapter
type UserSwap struct {
	Swap          swap.Swap        `json:"swap"`
	RemainingCoin wasm.Coin        `json:"remaining_coin"`
	MinCoin       wasm.Coin        `json:"min_coin"`
	Affiliates    []fees.Affiliate `json:"affiliates"`
}

// PostSwapAction forwards the realized swap output once the swap settled
type PostSwapAction struct {
	MinCoin          wasm.Coin `json:"min_coin"`
	TimeoutTimestamp uint64    `json:"timeout_timestamp"`
	PostSwapAction   Action    `json:"post_swap_action"`
	ExactOut         bool      `json:"exact_out"`
}

// Action is what happens with the swap output, exactly one branch is set
type Action struct {
	Transfer     *TransferAction     `json:"transfer,omitempty"`
	IbcTransfer  *IbcTransferAction  `json:"ibc_transfer,omitempty"`
	ContractCall *ContractCallAction `json:"contract_call,omitempty"`
}

type TransferAction struct {
	ToAddress string `json:"to_address"`
}

type IbcTransferAction struct {
	IbcInfo ibc.IbcInfo `json:"ibc_info"`
}

type ContractCallAction struct {
	ContractAddress string          `json:"contract_address"`
	Msg             json.RawMessage `json:"msg"`
}

func (a Action) ValidateBasic() error {
	set := 0
	if a.Transfer != nil {
		set++
	}
	if a.IbcTransfer != nil {
		set++
	}
	if a.ContractCall != nil {
		set++
	}
	if set != 1 {
		return ErrInvalidAction
	}
	return nil
}

// Kind is used as a log and metric label
func (a Action) Kind() string {
	switch {
	case a.Transfer != nil:
		return "transfer"
	case a.IbcTransfer != nil:
		return "ibc_transfer"
	case a.ContractCall != nil:
		return "contract_call"
	}
	return "none"
}

type QueryMsg struct {
	SwapVenueAdapterContract   *SwapVenueAdapterContract `json:"swap_venue_adapter_contract,omitempty"`
	IbcTransferAdapterContract *struct{}                 `json:"ibc_transfer_adapter_contract,omitempty"`
	SwapVenues                 *struct{}                 `json:"swap_venues,omitempty"`
}

type SwapVenueAdapterContract struct {
	Name string `json:"name"`
}
