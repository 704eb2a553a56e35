package ibctransfer_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/adapters/ibctransfer"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/host"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/ibc"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/router"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
	"github.com/zeebo/assert"
)

// doublingVenue pays two units of the last denom out per unit in
type doublingVenue struct{}

func (doublingVenue) Execute(_ context.Context, _ wasm.Deps, _ wasm.Env, info wasm.MessageInfo, raw []byte) (*wasm.Response, error) {
	msg, err := wasm.Decode[swap.ExecuteMsg](raw)
	if err != nil {
		return nil, err
	}
	coin, _ := info.OneCoin()
	ops := msg.Swap.Operations
	return wasm.NewResponse().AddMessage(wasm.NewBankSend(info.Sender, wasm.NewCoin(ops[len(ops)-1].DenomOut, coin.Amount.MulRaw(2)))), nil
}

func (doublingVenue) Query(context.Context, wasm.Deps, wasm.Env, []byte) ([]byte, error) {
	return nil, errors.New("unsupported")
}

func setupChain(t *testing.T) *host.Host {
	t.Helper()
	ctx := context.Background()

	h := host.New(host.Config{Now: func() time.Time { return time.Unix(0, 100) }})
	assert.NoError(t, h.Register("venue", doublingVenue{}))
	_, err := h.Instantiate(ctx, "creator", "entry_point", router.New(router.Config{}), router.InstantiateMsg{
		SwapVenues:                 []swap.SwapVenue{{Name: "neutron-astroport", AdapterContractAddress: "venue"}},
		IbcTransferContractAddress: "ibc_adapter",
	})
	assert.NoError(t, err)
	_, err = h.Instantiate(ctx, "creator", "ibc_adapter", ibctransfer.NewAdapter(), ibc.InstantiateMsg{
		EntryPointContractAddress: "entry_point",
	})
	assert.NoError(t, err)

	h.Fund("venue", wasm.NewInt64Coin("uosmo", 1_000_000))
	h.Fund("user", wasm.NewInt64Coin("untrn", 1_000))
	return h
}

func swapAndTransfer(t *testing.T, h *host.Host) {
	t.Helper()
	_, err := h.Execute(context.Background(), "user", "entry_point", router.ExecuteMsg{
		SwapAndAction: &router.SwapAndAction{
			UserSwap:         swap.NewSwapExactCoinIn("neutron-astroport", []swap.SwapOperation{{Pool: "1", DenomIn: "untrn", DenomOut: "uosmo"}}),
			MinCoin:          wasm.NewInt64Coin("uosmo", 2_000),
			TimeoutTimestamp: 1_000,
			PostSwapAction: router.Action{IbcTransfer: &router.IbcTransferAction{IbcInfo: ibc.IbcInfo{
				SourceChannel:  "channel-10",
				Receiver:       "osmo1receiver",
				Fee:            ibc.IbcFee{RecvFee: wasm.NewCoins(wasm.NewInt64Coin("uosmo", 10))},
				Memo:           `{"forward":{}}`,
				RecoverAddress: "neutron1recover",
			}}},
		},
	}, wasm.NewInt64Coin("untrn", 1_000))
	assert.NoError(t, err)
}

func TestIbcTransfer_SendsPacket(t *testing.T) {
	h := setupChain(t)
	swapAndTransfer(t, h)

	packets := h.Packets()
	assert.Equal(t, len(packets), 1)
	assert.Equal(t, packets[0].Sender, "ibc_adapter")
	assert.Equal(t, packets[0].Channel, "channel-10")
	assert.Equal(t, packets[0].Sequence, uint64(1))
	assert.Equal(t, packets[0].Receiver, "osmo1receiver")
	assert.Equal(t, packets[0].Amount.String(), "1990uosmo")
	assert.Equal(t, packets[0].Memo, `{"forward":{}}`)

	// the fee stays with the adapter while the packet is in flight
	assert.Equal(t, h.Balance("ibc_adapter", "uosmo").Amount.Int64(), int64(10))

	var recoverAddr string
	assert.NoError(t, h.Query(context.Background(), "ibc_adapter", ibc.QueryMsg{
		InProgressRecoverAddress: &ibc.InProgressRecoverAddress{ChannelID: "channel-10", SequenceID: 1},
	}, &recoverAddr))
	assert.Equal(t, recoverAddr, "neutron1recover")
}

func TestIbcTransfer_TimeoutRecovers(t *testing.T) {
	h := setupChain(t)
	swapAndTransfer(t, h)

	_, err := h.RelayTimeout(context.Background(), "channel-10", 1)
	assert.NoError(t, err)

	assert.Equal(t, h.Balance("neutron1recover", "uosmo").Amount.Int64(), int64(2_000))
	assert.True(t, h.AllBalances("ibc_adapter").IsZero())

	err = h.Query(context.Background(), "ibc_adapter", ibc.QueryMsg{
		InProgressRecoverAddress: &ibc.InProgressRecoverAddress{ChannelID: "channel-10", SequenceID: 1},
	}, nil)
	assert.True(t, errors.Is(err, ibctransfer.ErrInProgressNotFound))
}

func TestIbcTransfer_FailedAckRecovers(t *testing.T) {
	h := setupChain(t)
	swapAndTransfer(t, h)

	_, err := h.RelayAck(context.Background(), "channel-10", 1, false, `{"error":"receiver rejected"}`)
	assert.NoError(t, err)
	assert.Equal(t, h.Balance("neutron1recover", "uosmo").Amount.Int64(), int64(2_000))
}

func TestIbcTransfer_SuccessReturnsFeeOnly(t *testing.T) {
	h := setupChain(t)
	swapAndTransfer(t, h)

	_, err := h.RelayAck(context.Background(), "channel-10", 1, true, `{"result":"AQ=="}`)
	assert.NoError(t, err)
	assert.Equal(t, h.Balance("neutron1recover", "uosmo").Amount.Int64(), int64(10))
	assert.True(t, h.AllBalances("ibc_adapter").IsZero())
}

func TestIbcTransfer_OnlyEntryPoint(t *testing.T) {
	h := setupChain(t)
	h.Fund("user", wasm.NewInt64Coin("uosmo", 5))

	transfer := ibc.IbcTransfer{
		Info:             ibc.IbcInfo{SourceChannel: "channel-10", Receiver: "osmo1receiver", RecoverAddress: "user"},
		Coin:             wasm.NewInt64Coin("uosmo", 5),
		TimeoutTimestamp: 1_000,
	}
	_, err := h.Execute(context.Background(), "user", "ibc_adapter", transfer.ToExecuteMsg(), wasm.NewInt64Coin("uosmo", 5))
	assert.True(t, errors.Is(err, swap.ErrUnauthorized))
}

func TestSudo_UnknownPacket(t *testing.T) {
	raw, err := json.Marshal(ibc.SudoMsg{IbcLifecycleComplete: &ibc.IbcLifecycleComplete{
		IbcTimeout: &ibc.IbcTimeout{Channel: "channel-0", Sequence: 9},
	}})
	assert.NoError(t, err)

	_, err = ibctransfer.NewAdapter().Sudo(context.Background(), wasm.Deps{Storage: emptyStore{}}, wasm.Env{}, raw)
	assert.True(t, errors.Is(err, ibctransfer.ErrInProgressNotFound))
}

type emptyStore struct{}

func (emptyStore) Get([]byte) ([]byte, bool)                  { return nil, false }
func (emptyStore) Set([]byte, []byte)                         {}
func (emptyStore) Delete([]byte)                              {}
func (emptyStore) Range([]byte, func(key, value []byte) bool) {}
