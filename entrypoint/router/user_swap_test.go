package router

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sort"
	"strings"
	"testing"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/fees"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
	"github.com/zeebo/assert"
)

type memStorage map[string][]byte

func (s memStorage) Get(key []byte) ([]byte, bool) {
	v, ok := s[string(key)]
	return v, ok
}

func (s memStorage) Set(key, value []byte) { s[string(key)] = value }

func (s memStorage) Delete(key []byte) { delete(s, string(key)) }

func (s memStorage) Range(prefix []byte, fn func(key, value []byte) bool) {
	keys := make([]string, 0, len(s))
	for k := range s {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), s[k]) {
			return
		}
	}
}

// mockQuerier answers every smart query with the same coin
type mockQuerier struct {
	balances map[string]wasm.Coins
	smart    wasm.Coin
}

func (q mockQuerier) QueryBalance(_ context.Context, address, denom string) (wasm.Coin, error) {
	return wasm.NewCoin(denom, q.balances[address].AmountOf(denom)), nil
}

func (q mockQuerier) QueryAllBalances(_ context.Context, address string) (wasm.Coins, error) {
	return q.balances[address], nil
}

func (q mockQuerier) QuerySmart(_ context.Context, _ string, _ any, out any) error {
	raw, err := json.Marshal(q.smart)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

type acceptAll struct{}

func (acceptAll) AddrValidate(string) error { return nil }

func mockDeps(t *testing.T) wasm.Deps {
	t.Helper()
	deps := wasm.Deps{
		Storage: memStorage{},
		Querier: mockQuerier{
			balances: map[string]wasm.Coins{
				"entry_point": wasm.NewCoins(wasm.NewInt64Coin("osmo", 1_000_000), wasm.NewInt64Coin("untrn", 1_000_000)),
			},
			smart: wasm.NewInt64Coin("untrn", 500_000),
		},
		API: acceptAll{},
	}
	assert.NoError(t, swapVenueMap.Save(deps.Storage, "swap_venue_name", "swap_venue_adapter"))
	return deps
}

func mockEnv() wasm.Env {
	return wasm.Env{
		Block:    wasm.BlockInfo{Height: 12_345, Time: 100, ChainID: "cosmos-testnet-14002"},
		Contract: wasm.ContractInfo{Address: "entry_point"},
	}
}

func ops(denomIn, denomOut string) []swap.SwapOperation {
	return []swap.SwapOperation{{Pool: "pool", DenomIn: denomIn, DenomOut: denomOut}}
}

func adapterSwap(t *testing.T, operations []swap.SwapOperation, funds wasm.Coin) wasm.SubMsg {
	t.Helper()
	msg, err := wasm.NewWasmExecute("swap_venue_adapter", swap.ExecuteMsg{Swap: &swap.SwapMsg{Operations: operations}}, funds)
	assert.NoError(t, err)
	return msg
}

func asJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	assert.NoError(t, err)
	return string(raw)
}

func strPtr(s string) *string { return &s }

func TestExecuteUserSwap(t *testing.T) {
	refund := strPtr("refund_address")
	uint128Overflow := math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128))

	tests := []struct {
		name          string
		caller        string
		swap          swap.Swap
		remainingCoin wasm.Coin
		minCoin       wasm.Coin
		affiliates    []fees.Affiliate
		expected      func(t *testing.T) []wasm.SubMsg
		expectedErr   error
		expectedText  string
	}{
		{
			name:          "exact coin in with no affiliates",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinIn("swap_venue_name", ops("untrn", "osmo")),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			expected: func(t *testing.T) []wasm.SubMsg {
				return []wasm.SubMsg{adapterSwap(t, ops("untrn", "osmo"), wasm.NewInt64Coin("untrn", 1_000_000))}
			},
		},
		{
			name:          "exact coin in with single affiliate",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinIn("swap_venue_name", ops("untrn", "osmo")),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			affiliates:    []fees.Affiliate{fees.NewAffiliate("affiliate", 1000)},
			expected: func(t *testing.T) []wasm.SubMsg {
				return []wasm.SubMsg{
					adapterSwap(t, ops("untrn", "osmo"), wasm.NewInt64Coin("untrn", 1_000_000)),
					wasm.NewBankSend("affiliate", wasm.NewInt64Coin("osmo", 100_000)),
				}
			},
		},
		{
			name:          "exact coin in with multiple affiliates",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinIn("swap_venue_name", ops("untrn", "osmo")),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			affiliates: []fees.Affiliate{
				fees.NewAffiliate("affiliate_1", 1000),
				fees.NewAffiliate("affiliate_2", 1000),
			},
			expected: func(t *testing.T) []wasm.SubMsg {
				return []wasm.SubMsg{
					adapterSwap(t, ops("untrn", "osmo"), wasm.NewInt64Coin("untrn", 1_000_000)),
					wasm.NewBankSend("affiliate_1", wasm.NewInt64Coin("osmo", 100_000)),
					wasm.NewBankSend("affiliate_2", wasm.NewInt64Coin("osmo", 100_000)),
				}
			},
		},
		{
			name:          "exact coin out with no affiliates",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinOut("swap_venue_name", ops("untrn", "osmo"), refund),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 500_000),
			expected: func(t *testing.T) []wasm.SubMsg {
				return []wasm.SubMsg{
					wasm.NewBankSend("refund_address", wasm.NewInt64Coin("untrn", 500_000)),
					adapterSwap(t, ops("untrn", "osmo"), wasm.NewInt64Coin("untrn", 500_000)),
				}
			},
		},
		{
			name:          "exact coin out with single affiliate",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinOut("swap_venue_name", ops("untrn", "osmo"), refund),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 500_000),
			affiliates:    []fees.Affiliate{fees.NewAffiliate("affiliate", 1000)},
			expected: func(t *testing.T) []wasm.SubMsg {
				return []wasm.SubMsg{
					wasm.NewBankSend("refund_address", wasm.NewInt64Coin("untrn", 500_000)),
					adapterSwap(t, ops("untrn", "osmo"), wasm.NewInt64Coin("untrn", 500_000)),
					wasm.NewBankSend("affiliate", wasm.NewInt64Coin("osmo", 50_000)),
				}
			},
		},
		{
			name:          "exact coin out with multiple affiliates",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinOut("swap_venue_name", ops("untrn", "osmo"), refund),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 500_000),
			affiliates: []fees.Affiliate{
				fees.NewAffiliate("affiliate_1", 1000),
				fees.NewAffiliate("affiliate_2", 1000),
			},
			expected: func(t *testing.T) []wasm.SubMsg {
				return []wasm.SubMsg{
					wasm.NewBankSend("refund_address", wasm.NewInt64Coin("untrn", 500_000)),
					adapterSwap(t, ops("untrn", "osmo"), wasm.NewInt64Coin("untrn", 500_000)),
					wasm.NewBankSend("affiliate_1", wasm.NewInt64Coin("osmo", 50_000)),
					wasm.NewBankSend("affiliate_2", wasm.NewInt64Coin("osmo", 50_000)),
				}
			},
		},
		{
			name:          "exact coin out with zero refund has no refund message",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinOut("swap_venue_name", ops("untrn", "osmo"), refund),
			remainingCoin: wasm.NewInt64Coin("untrn", 500_000),
			minCoin:       wasm.NewInt64Coin("osmo", 500_000),
			expected: func(t *testing.T) []wasm.SubMsg {
				return []wasm.SubMsg{adapterSwap(t, ops("untrn", "osmo"), wasm.NewInt64Coin("untrn", 500_000))}
			},
		},
		{
			name:          "exact coin in first denom in mismatch",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinIn("swap_venue_name", ops("uatom", "osmo")),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			expectedErr:   swap.ErrSwapOperationsCoinInDenomMismatch,
		},
		{
			name:          "exact coin in last denom out mismatch",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinIn("swap_venue_name", ops("untrn", "uatom")),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			expectedErr:   swap.ErrSwapOperationsCoinOutDenomMismatch,
		},
		{
			name:          "exact coin in empty operations",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinIn("swap_venue_name", nil),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			expectedErr:   swap.ErrSwapOperationsEmpty,
		},
		{
			name:          "exact coin out first denom in mismatch",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinOut("swap_venue_name", ops("uatom", "osmo"), refund),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			expectedErr:   swap.ErrSwapOperationsCoinInDenomMismatch,
		},
		{
			name:          "exact coin out last denom out mismatch",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinOut("swap_venue_name", ops("untrn", "uatom"), refund),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			expectedErr:   swap.ErrSwapOperationsCoinOutDenomMismatch,
		},
		{
			name:          "exact coin out empty operations",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinOut("swap_venue_name", nil, refund),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			expectedErr:   swap.ErrSwapOperationsEmpty,
		},
		{
			name:          "exact coin out without refund address",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinOut("swap_venue_name", ops("untrn", "osmo"), nil),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 500_000),
			expectedErr:   ErrNoRefundAddress,
		},
		{
			name:          "exact coin out simulated denom differs from remaining coin",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinOut("swap_venue_name", ops("uatom", "osmo"), refund),
			remainingCoin: wasm.NewInt64Coin("uatom", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 500_000),
			expectedErr:   ErrUserSwapCoinInDenomMismatch,
		},
		{
			name:          "exact coin out needs more than remaining coin",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinOut("swap_venue_name", ops("untrn", "osmo"), refund),
			remainingCoin: wasm.NewInt64Coin("untrn", 499_999),
			minCoin:       wasm.NewInt64Coin("osmo", 500_000),
			expectedErr:   fees.ErrOverflow,
			expectedText:  "Cannot Sub with 499999 and 500000",
		},
		{
			name:          "remaining coin above uint128",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinIn("swap_venue_name", ops("untrn", "osmo")),
			remainingCoin: wasm.NewCoin("untrn", uint128Overflow),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			expectedErr:   ErrInvalidMsg,
		},
		{
			name:          "min coin above uint128",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinIn("swap_venue_name", ops("untrn", "osmo")),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewCoin("osmo", uint128Overflow),
			affiliates:    []fees.Affiliate{fees.NewAffiliate("affiliate", 1000)},
			expectedErr:   ErrInvalidMsg,
		},
		{
			name:          "unauthorized caller",
			caller:        "random",
			swap:          swap.NewSwapExactCoinIn("swap_venue_name", nil),
			remainingCoin: wasm.NewInt64Coin("osmo", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			expectedErr:   swap.ErrUnauthorized,
		},
		{
			name:          "unknown swap venue",
			caller:        "entry_point",
			swap:          swap.NewSwapExactCoinIn("missing_venue", ops("untrn", "osmo")),
			remainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
			minCoin:       wasm.NewInt64Coin("osmo", 1_000_000),
			expectedErr:   ErrSwapVenueNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := mockDeps(t)
			info := wasm.MessageInfo{Sender: tt.caller}

			res, err := New(Config{}).HandleExecute(context.Background(), deps, mockEnv(), info, ExecuteMsg{
				UserSwap: &UserSwap{
					Swap:          tt.swap,
					RemainingCoin: tt.remainingCoin,
					MinCoin:       tt.minCoin,
					Affiliates:    tt.affiliates,
				},
			})

			if tt.expectedErr != nil {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedErr))
				if tt.expectedText != "" {
					assert.Equal(t, err.Error(), tt.expectedText)
				}
				return
			}

			assert.NoError(t, err)
			expected := tt.expected(t)
			assert.Equal(t, len(res.Messages), len(expected))
			assert.Equal(t, asJSON(t, res.Messages), asJSON(t, expected))
			for _, m := range res.Messages {
				assert.Equal(t, m.ReplyOn, wasm.ReplyNever)
			}
		})
	}
}
