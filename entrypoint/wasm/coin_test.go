package wasm_test

import (
	"errors"
	"math/big"
	"testing"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
	"github.com/zeebo/assert"
)

func pow2(n uint) math.Int {
	return math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), n))
}

func TestCoinValidate(t *testing.T) {
	assert.NoError(t, wasm.NewInt64Coin("untrn", 0).Validate())
	assert.NoError(t, wasm.NewInt64Coin("untrn", 1_000_000).Validate())

	// the largest Uint128
	maxUint128 := pow2(128).SubRaw(1)
	assert.NoError(t, wasm.NewCoin("untrn", maxUint128).Validate())

	tests := []struct {
		name string
		coin wasm.Coin
	}{
		{"empty denom", wasm.NewInt64Coin(" ", 1)},
		{"nil amount", wasm.Coin{Denom: "untrn"}},
		{"negative", wasm.NewInt64Coin("untrn", -1)},
		{"above uint128", wasm.NewCoin("untrn", pow2(128))},
		{"far above uint128", wasm.NewCoin("osmo", pow2(250))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coin.Validate()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, wasm.ErrInvalidCoin))
		})
	}
}

func TestCoinsAddAndSub(t *testing.T) {
	coins := wasm.NewCoins(
		wasm.NewInt64Coin("uosmo", 5),
		wasm.NewInt64Coin("untrn", 10),
		wasm.NewInt64Coin("uosmo", 7),
		wasm.NewInt64Coin("uatom", 0),
	)
	assert.Equal(t, coins.String(), "12uosmo,10untrn")

	left, err := coins.SafeSub(wasm.NewInt64Coin("untrn", 10))
	assert.NoError(t, err)
	assert.Equal(t, left.String(), "12uosmo")

	_, err = left.SafeSub(wasm.NewInt64Coin("uosmo", 13))
	assert.Error(t, err)
	assert.True(t, wasm.Coins{}.IsZero())
}
