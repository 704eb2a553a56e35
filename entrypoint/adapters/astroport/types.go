package astroport

import (
	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
)

type InstantiateMsg struct {
	EntryPointContractAddress string `json:"entry_point_contract_address"`
	RouterContractAddress     string `json:"router_contract_address"`
}

// RouterExecuteMsg is the subset of the astroport router execute interface the adapter uses
type RouterExecuteMsg struct {
	ExecuteSwapOperations *ExecuteSwapOperations `json:"execute_swap_operations,omitempty"`
}

type ExecuteSwapOperations struct {
	Operations     []swap.AstroportSwapOperation `json:"operations"`
	MinimumReceive *math.Int                     `json:"minimum_receive"`
	To             *string                       `json:"to"`
	MaxSpread      *string                       `json:"max_spread"`
}

// RouterQueryMsg is the subset of the astroport router query interface the adapter uses
type RouterQueryMsg struct {
	SimulateSwapOperations        *SimulateSwapOperations        `json:"simulate_swap_operations,omitempty"`
	SimulateReverseSwapOperations *SimulateReverseSwapOperations `json:"simulate_reverse_swap_operations,omitempty"`
}

type SimulateSwapOperations struct {
	OfferAmount math.Int                      `json:"offer_amount"`
	Operations  []swap.AstroportSwapOperation `json:"operations"`
}

type SimulateReverseSwapOperations struct {
	AskAmount  math.Int                      `json:"ask_amount"`
	Operations []swap.AstroportSwapOperation `json:"operations"`
}

// SimulateSwapOperationsResponse answers both simulations
type SimulateSwapOperationsResponse struct {
	Amount math.Int `json:"amount"`
}
