package swap

import (
	"fmt"
	"strconv"
)

// OsmosisSwapAmountInRoute is the poolmanager route for exact amount in swaps
type OsmosisSwapAmountInRoute struct {
	PoolID        uint64 `json:"pool_id"`
	TokenOutDenom string `json:"token_out_denom"`
}

// OsmosisSwapAmountOutRoute is the poolmanager route for exact amount out swaps
type OsmosisSwapAmountOutRoute struct {
	PoolID       uint64 `json:"pool_id"`
	TokenInDenom string `json:"token_in_denom"`
}

func parsePoolID(pool string) (uint64, error) {
	id, err := strconv.ParseUint(pool, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidPoolID, pool, err)
	}
	return id, nil
}

// ToOsmosisSwapAmountInRoute fails when the pool is not a base 10 uint64
func ToOsmosisSwapAmountInRoute(op SwapOperation) (OsmosisSwapAmountInRoute, error) {
	id, err := parsePoolID(op.Pool)
	if err != nil {
		return OsmosisSwapAmountInRoute{}, err
	}
	return OsmosisSwapAmountInRoute{PoolID: id, TokenOutDenom: op.DenomOut}, nil
}

func ToOsmosisSwapAmountOutRoute(op SwapOperation) (OsmosisSwapAmountOutRoute, error) {
	id, err := parsePoolID(op.Pool)
	if err != nil {
		return OsmosisSwapAmountOutRoute{}, err
	}
	return OsmosisSwapAmountOutRoute{PoolID: id, TokenInDenom: op.DenomIn}, nil
}

// ConvertSwapOperations converts the whole route and stops at the first hop that fails
func ConvertSwapOperations[T any](operations []SwapOperation, convert func(SwapOperation) (T, error)) ([]T, error) {
	out := make([]T, 0, len(operations))
	for i, op := range operations {
		converted, err := convert(op)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		out = append(out, converted)
	}
	return out, nil
}

// AstroportSwapOperation is the astroport router operation union
type AstroportSwapOperation struct {
	AstroSwap *AstroSwap `json:"astro_swap,omitempty"`
}

type AstroSwap struct {
	OfferAssetInfo AstroportAssetInfo `json:"offer_asset_info"`
	AskAssetInfo   AstroportAssetInfo `json:"ask_asset_info"`
}

type AstroportAssetInfo struct {
	NativeToken *AstroportNativeToken `json:"native_token,omitempty"`
	Token       *AstroportToken       `json:"token,omitempty"`
}

type AstroportNativeToken struct {
	Denom string `json:"denom"`
}

type AstroportToken struct {
	ContractAddr string `json:"contract_addr"`
}

// ToAstroportSwapOperation treats both sides as native tokens. The pool is not
// needed since the astroport router resolves the pair from the asset infos.
func ToAstroportSwapOperation(op SwapOperation) AstroportSwapOperation {
	return AstroportSwapOperation{AstroSwap: &AstroSwap{
		OfferAssetInfo: AstroportAssetInfo{NativeToken: &AstroportNativeToken{Denom: op.DenomIn}},
		AskAssetInfo:   AstroportAssetInfo{NativeToken: &AstroportNativeToken{Denom: op.DenomOut}},
	}}
}

func ToAstroportSwapOperations(operations []SwapOperation) []AstroportSwapOperation {
	out := make([]AstroportSwapOperation, len(operations))
	for i, op := range operations {
		out[i] = ToAstroportSwapOperation(op)
	}
	return out
}
