package swap

import "github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"

// SwapOperation is one pool hop. Adapters convert it into the venue's own format.
type SwapOperation struct {
	Pool     string `json:"pool"`
	DenomIn  string `json:"denom_in"`
	DenomOut string `json:"denom_out"`
}

// SwapVenue ties a venue name to the adapter contract serving it
type SwapVenue struct {
	Name                   string `json:"name"`
	AdapterContractAddress string `json:"adapter_contract_address"`
}

// SwapExactCoinIn swaps the whole remaining coin, the output is whatever the venue returns
type SwapExactCoinIn struct {
	SwapVenueName string          `json:"swap_venue_name"`
	Operations    []SwapOperation `json:"operations"`
}

// SwapExactCoinOut targets an exact output. Unused input goes to RefundAddress.
type SwapExactCoinOut struct {
	SwapVenueName string          `json:"swap_venue_name"`
	Operations    []SwapOperation `json:"operations"`
	RefundAddress *string         `json:"refund_address"`
}

// Swap is the user declared swap intent, exactly one branch is set
type Swap struct {
	SwapExactCoinIn  *SwapExactCoinIn  `json:"swap_exact_coin_in,omitempty"`
	SwapExactCoinOut *SwapExactCoinOut `json:"swap_exact_coin_out,omitempty"`
}

func NewSwapExactCoinIn(venue string, operations []SwapOperation) Swap {
	return Swap{SwapExactCoinIn: &SwapExactCoinIn{SwapVenueName: venue, Operations: operations}}
}

func NewSwapExactCoinOut(venue string, operations []SwapOperation, refundAddress *string) Swap {
	return Swap{SwapExactCoinOut: &SwapExactCoinOut{
		SwapVenueName: venue,
		Operations:    operations,
		RefundAddress: refundAddress,
	}}
}

// ValidateBasic checks exactly one branch of the union is populated
func (s Swap) ValidateBasic() error {
	if (s.SwapExactCoinIn == nil) == (s.SwapExactCoinOut == nil) {
		return ErrInvalidSwap
	}
	return nil
}

func (s Swap) VenueName() string {
	switch {
	case s.SwapExactCoinIn != nil:
		return s.SwapExactCoinIn.SwapVenueName
	case s.SwapExactCoinOut != nil:
		return s.SwapExactCoinOut.SwapVenueName
	}
	return ""
}

func (s Swap) Operations() []SwapOperation {
	switch {
	case s.SwapExactCoinIn != nil:
		return s.SwapExactCoinIn.Operations
	case s.SwapExactCoinOut != nil:
		return s.SwapExactCoinOut.Operations
	}
	return nil
}

// Mode is "exact_in" or "exact_out", used as a label for logs and metrics
func (s Swap) Mode() string {
	if s.SwapExactCoinOut != nil {
		return "exact_out"
	}
	return "exact_in"
}

// ExecuteMsg is the execute interface every swap adapter implements
type ExecuteMsg struct {
	Swap              *SwapMsg              `json:"swap,omitempty"`
	TransferFundsBack *TransferFundsBackMsg `json:"transfer_funds_back,omitempty"`
}

type SwapMsg struct {
	Operations []SwapOperation `json:"operations"`
}

type TransferFundsBackMsg struct {
	Swapper string `json:"swapper"`
}

// NewSwapMsg converts a swap intent into the adapter's swap call
func NewSwapMsg(s Swap) ExecuteMsg {
	return ExecuteMsg{Swap: &SwapMsg{Operations: s.Operations()}}
}

func NewTransferFundsBackMsg(swapper string) ExecuteMsg {
	return ExecuteMsg{TransferFundsBack: &TransferFundsBackMsg{Swapper: swapper}}
}

// QueryMsg is the query interface every swap adapter implements.
// RouterContractAddress is only answered by venues that route through a router contract.
type QueryMsg struct {
	RouterContractAddress    *struct{}                 `json:"router_contract_address,omitempty"`
	SimulateSwapExactCoinOut *SimulateSwapExactCoinOut `json:"simulate_swap_exact_coin_out,omitempty"`
	SimulateSwapExactCoinIn  *SimulateSwapExactCoinIn  `json:"simulate_swap_exact_coin_in,omitempty"`
}

// SimulateSwapExactCoinOut returns the coin in needed to receive CoinOut
type SimulateSwapExactCoinOut struct {
	CoinOut        wasm.Coin       `json:"coin_out"`
	SwapOperations []SwapOperation `json:"swap_operations"`
}

// SimulateSwapExactCoinIn returns the coin out received for CoinIn
type SimulateSwapExactCoinIn struct {
	CoinIn         wasm.Coin       `json:"coin_in"`
	SwapOperations []SwapOperation `json:"swap_operations"`
}

func NewSimulateExactCoinOutQuery(coinOut wasm.Coin, operations []SwapOperation) QueryMsg {
	return QueryMsg{SimulateSwapExactCoinOut: &SimulateSwapExactCoinOut{CoinOut: coinOut, SwapOperations: operations}}
}

func NewSimulateExactCoinInQuery(coinIn wasm.Coin, operations []SwapOperation) QueryMsg {
	return QueryMsg{SimulateSwapExactCoinIn: &SimulateSwapExactCoinIn{CoinIn: coinIn, SwapOperations: operations}}
}

func NewRouterContractAddressQuery() QueryMsg {
	return QueryMsg{RouterContractAddress: &struct{}{}}
}
