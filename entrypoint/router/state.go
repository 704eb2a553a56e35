package router

import "github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"

// The only durable state: the venue name to adapter map and the ibc adapter.
// Both are written once at instantiate.
var (
	swapVenueMap                      = wasm.NewMap[string]("swap_venue_map")
	ibcTransferAdapterContractAddress = wasm.NewItem[string]("ibc_transfer_contract_address")
)

// loadSwapVenueAdapter resolves the adapter for a venue name
func loadSwapVenueAdapter(store wasm.Storage, name string) (string, error) {
	adapter, err := swapVenueMap.Load(store, name)
	if err != nil {
		return "", ErrSwapVenueNotFound.Wrapf("%q", name)
	}
	return adapter, nil
}
