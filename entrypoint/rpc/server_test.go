package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"cosmossdk.io/math"
	"github.com/zeebo/assert"
	"pgregory.net/rapid"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/fees"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/host"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/ibcmemo"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/router"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/rpc"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

// doublingVenue quotes two units of the last denom for every unit in
type doublingVenue struct{}

func (doublingVenue) Execute(context.Context, wasm.Deps, wasm.Env, wasm.MessageInfo, []byte) (*wasm.Response, error) {
	return wasm.NewResponse(), nil
}

func (doublingVenue) Query(_ context.Context, _ wasm.Deps, _ wasm.Env, raw []byte) ([]byte, error) {
	msg, err := wasm.Decode[swap.QueryMsg](raw)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.SimulateSwapExactCoinIn != nil:
		q := msg.SimulateSwapExactCoinIn
		ops := q.SwapOperations
		return json.Marshal(wasm.NewCoin(ops[len(ops)-1].DenomOut, q.CoinIn.Amount.MulRaw(2)))
	case msg.SimulateSwapExactCoinOut != nil:
		q := msg.SimulateSwapExactCoinOut
		return json.Marshal(wasm.NewCoin(q.SwapOperations[0].DenomIn, q.CoinOut.Amount.AddRaw(1).QuoRaw(2)))
	}
	return nil, swap.ErrQueryNotSupported
}

const venue = "neutron-astroport"

func setupServer(t *testing.T, ready func(context.Context) error) (*rpc.EntryPointServiceClient, string) {
	t.Helper()
	h := host.New(host.Config{})
	assert.NoError(t, h.Register("venue_adapter", doublingVenue{}))
	_, err := h.Instantiate(context.Background(), "creator", "entry_point", router.New(router.Config{}), router.InstantiateMsg{
		SwapVenues:                 []swap.SwapVenue{{Name: venue, AdapterContractAddress: "venue_adapter"}},
		IbcTransferContractAddress: "ibc_adapter",
	})
	assert.NoError(t, err)

	svc := rpc.NewEntryPointServer(h, "entry_point").WithClock(func() time.Time { return time.Unix(1_000, 0) })
	server, err := rpc.NewServer(context.Background(), &rpc.ServerConfig{
		AllowedOrigins: []string{"*"},
		EnableMetrics:  true,
		Ready:          ready,
	}, svc)
	assert.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return rpc.NewEntryPointServiceClient(ts.Client(), ts.URL), ts.URL
}

func untrnToOsmo() []swap.SwapOperation {
	return []swap.SwapOperation{{Pool: "1", DenomIn: "untrn", DenomOut: "osmo"}}
}

func TestPlanUserSwap_ExactCoinIn(t *testing.T) {
	client, _ := setupServer(t, nil)

	resp, err := client.PlanUserSwap(context.Background(), &rpc.PlanUserSwapRequest{
		Swap:          swap.NewSwapExactCoinIn(venue, untrnToOsmo()),
		RemainingCoin: wasm.NewInt64Coin("untrn", 1_000_000),
		MinCoin:       wasm.NewInt64Coin("osmo", 1_500_000),
		Affiliates:    []fees.Affiliate{fees.NewAffiliate("affiliate", 1000)},
	})
	assert.NoError(t, err)
	assert.Equal(t, len(resp.Messages), 2)

	execute := resp.Messages[0].Msg.Wasm.Execute
	assert.Equal(t, execute.ContractAddr, "venue_adapter")
	assert.Equal(t, execute.Funds.AmountOf("untrn").Int64(), int64(1_000_000))

	send := resp.Messages[1].Msg.Bank.Send
	assert.Equal(t, send.ToAddress, "affiliate")
	assert.Equal(t, send.Amount.AmountOf("osmo").Int64(), int64(150_000))
}

func TestPlanUserSwap_ExactCoinOut(t *testing.T) {
	client, _ := setupServer(t, nil)
	refund := "refund"

	resp, err := client.PlanUserSwap(context.Background(), &rpc.PlanUserSwapRequest{
		Swap:          swap.NewSwapExactCoinOut(venue, untrnToOsmo(), &refund),
		RemainingCoin: wasm.NewInt64Coin("untrn", 5_000_000),
		MinCoin:       wasm.NewInt64Coin("osmo", 500_000),
	})
	assert.NoError(t, err)
	assert.Equal(t, len(resp.Messages), 2)

	send := resp.Messages[0].Msg.Bank.Send
	assert.Equal(t, send.ToAddress, refund)
	assert.Equal(t, send.Amount.AmountOf("untrn").Int64(), int64(4_750_000))
	assert.Equal(t, resp.Messages[1].Msg.Wasm.Execute.Funds.AmountOf("untrn").Int64(), int64(250_000))
}

func TestPlanUserSwap_ErrorCodes(t *testing.T) {
	client, _ := setupServer(t, nil)

	tests := []struct {
		name string
		req  *rpc.PlanUserSwapRequest
		code connect.Code
	}{
		{
			name: "no refund address",
			req: &rpc.PlanUserSwapRequest{
				Swap:          swap.NewSwapExactCoinOut(venue, untrnToOsmo(), nil),
				RemainingCoin: wasm.NewInt64Coin("untrn", 5_000_000),
				MinCoin:       wasm.NewInt64Coin("osmo", 500_000),
			},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "unknown venue",
			req: &rpc.PlanUserSwapRequest{
				Swap:          swap.NewSwapExactCoinIn("curve", untrnToOsmo()),
				RemainingCoin: wasm.NewInt64Coin("untrn", 1),
				MinCoin:       wasm.NewInt64Coin("osmo", 1),
			},
			code: connect.CodeNotFound,
		},
		{
			name: "route does not start with coin",
			req: &rpc.PlanUserSwapRequest{
				Swap:          swap.NewSwapExactCoinIn(venue, untrnToOsmo()),
				RemainingCoin: wasm.NewInt64Coin("uatom", 1),
				MinCoin:       wasm.NewInt64Coin("osmo", 1),
			},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "remaining coin without denom",
			req: &rpc.PlanUserSwapRequest{
				Swap:          swap.NewSwapExactCoinIn(venue, untrnToOsmo()),
				RemainingCoin: wasm.NewInt64Coin("", 1),
				MinCoin:       wasm.NewInt64Coin("osmo", 1),
			},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "refund underflow",
			req: &rpc.PlanUserSwapRequest{
				Swap:          swap.NewSwapExactCoinOut(venue, untrnToOsmo(), func() *string { s := "refund"; return &s }()),
				RemainingCoin: wasm.NewInt64Coin("untrn", 10),
				MinCoin:       wasm.NewInt64Coin("osmo", 500_000),
			},
			code: connect.CodeFailedPrecondition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.PlanUserSwap(context.Background(), tt.req)
			assert.Error(t, err)
			assert.Equal(t, connect.CodeOf(err), tt.code)
		})
	}
}

func TestSimulateSwap(t *testing.T) {
	client, _ := setupServer(t, nil)

	out, err := client.SimulateSwap(context.Background(), &rpc.SimulateSwapRequest{
		Venue:      venue,
		Mode:       rpc.ModeExactCoinIn,
		Coin:       wasm.NewInt64Coin("untrn", 1_000),
		Operations: untrnToOsmo(),
	})
	assert.NoError(t, err)
	assert.True(t, out.Coin.Equal(wasm.NewInt64Coin("osmo", 2_000)))

	in, err := client.SimulateSwap(context.Background(), &rpc.SimulateSwapRequest{
		Venue:      venue,
		Mode:       rpc.ModeExactCoinOut,
		Coin:       wasm.NewInt64Coin("osmo", 1_001),
		Operations: untrnToOsmo(),
	})
	assert.NoError(t, err)
	assert.True(t, in.Coin.Equal(wasm.NewInt64Coin("untrn", 501)))

	_, err = client.SimulateSwap(context.Background(), &rpc.SimulateSwapRequest{
		Venue:      venue,
		Mode:       "best_effort",
		Coin:       wasm.NewInt64Coin("untrn", 1_000),
		Operations: untrnToOsmo(),
	})
	assert.Equal(t, connect.CodeOf(err), connect.CodeInvalidArgument)

	_, err = client.SimulateSwap(context.Background(), &rpc.SimulateSwapRequest{
		Venue:      venue,
		Mode:       rpc.ModeExactCoinOut,
		Coin:       wasm.NewInt64Coin("untrn", 1_000),
		Operations: untrnToOsmo(),
	})
	assert.Equal(t, connect.CodeOf(err), connect.CodeInvalidArgument)
}

func TestBuildSwapAndActionMemo(t *testing.T) {
	client, _ := setupServer(t, nil)

	resp, err := client.BuildSwapAndActionMemo(context.Background(), &rpc.BuildMemoRequest{
		Venue:          venue,
		CoinIn:         wasm.NewInt64Coin("untrn", 1_000_000),
		DenomOut:       "osmo",
		Operations:     untrnToOsmo(),
		SlippageBps:    100,
		PostSwapAction: router.Action{Transfer: &router.TransferAction{ToAddress: "recipient"}},
		TimeoutSeconds: 60,
	})
	assert.NoError(t, err)
	assert.True(t, resp.ExpectedCoinOut.Equal(wasm.NewInt64Coin("osmo", 2_000_000)))
	assert.True(t, resp.MinCoin.Equal(wasm.NewInt64Coin("osmo", 1_980_000)))
	assert.Equal(t, resp.TimeoutTimestamp, uint64(1_060_000_000_000))

	parsed, err := ibcmemo.ParseWasmMemo(resp.Memo)
	assert.NoError(t, err)
	assert.Equal(t, parsed.Contract, "entry_point")
	sa := parsed.Msg.SwapAndAction
	assert.True(t, sa.MinCoin.Equal(resp.MinCoin))
	assert.Equal(t, sa.TimeoutTimestamp, resp.TimeoutTimestamp)
	assert.Equal(t, sa.PostSwapAction.Transfer.ToAddress, "recipient")
}

func TestBuildSwapAndActionMemo_WithForwardHop(t *testing.T) {
	client, _ := setupServer(t, nil)

	resp, err := client.BuildSwapAndActionMemo(context.Background(), &rpc.BuildMemoRequest{
		Venue:          venue,
		CoinIn:         wasm.NewInt64Coin("untrn", 1_000),
		DenomOut:       "osmo",
		Operations:     untrnToOsmo(),
		PostSwapAction: router.Action{Transfer: &router.TransferAction{ToAddress: "recipient"}},
		ForwardHops:    []ibcmemo.IBCHop{{Channel: "channel-3", Receiver: "entry_point"}},
	})
	assert.NoError(t, err)

	var fwd ibcmemo.ForwardMemo
	assert.NoError(t, json.Unmarshal([]byte(resp.Memo), &fwd))
	assert.Equal(t, fwd.Forward.Channel, "channel-3")
	assert.Equal(t, fwd.Forward.Next.Wasm.Contract, "entry_point")
	// default timeout is ten minutes
	assert.Equal(t, resp.TimeoutTimestamp, uint64(1_600_000_000_000))
}

func TestBuildSwapAndActionMemo_Rejects(t *testing.T) {
	client, _ := setupServer(t, nil)
	base := func() *rpc.BuildMemoRequest {
		return &rpc.BuildMemoRequest{
			Venue:          venue,
			CoinIn:         wasm.NewInt64Coin("untrn", 1_000),
			DenomOut:       "osmo",
			Operations:     untrnToOsmo(),
			PostSwapAction: router.Action{Transfer: &router.TransferAction{ToAddress: "recipient"}},
		}
	}

	tooMuchSlippage := base()
	tooMuchSlippage.SlippageBps = 10_000
	wrongDenom := base()
	wrongDenom.DenomOut = "uatom"
	noAction := base()
	noAction.PostSwapAction = router.Action{}
	unknownVenue := base()
	unknownVenue.Venue = "curve"

	for _, tc := range []struct {
		req  *rpc.BuildMemoRequest
		code connect.Code
	}{
		{tooMuchSlippage, connect.CodeInvalidArgument},
		{wrongDenom, connect.CodeInvalidArgument},
		{noAction, connect.CodeInvalidArgument},
		{unknownVenue, connect.CodeNotFound},
	} {
		_, err := client.BuildSwapAndActionMemo(context.Background(), tc.req)
		assert.Error(t, err)
		assert.Equal(t, connect.CodeOf(err), tc.code)
	}
}

func TestListSwapVenues(t *testing.T) {
	client, _ := setupServer(t, nil)

	resp, err := client.ListSwapVenues(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, len(resp.Venues), 1)
	assert.Equal(t, resp.Venues[0].Name, venue)
	assert.Equal(t, resp.Venues[0].AdapterContractAddress, "venue_adapter")
}

func TestServerHealthEndpoints(t *testing.T) {
	notReady := errors.New("deployment not loaded")
	_, base := setupServer(t, func(context.Context) error { return notReady })

	resp, err := http.Get(base + "/server/health")
	assert.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusOK)

	resp, err = http.Get(base + "/server/ready")
	assert.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusServiceUnavailable)

	resp, err = http.Get(base + "/server/metrics")
	assert.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusOK)
}

func TestMinAmountWithSlippage(t *testing.T) {
	assert.Equal(t, rpc.MinAmountWithSlippage(math.NewInt(2_000_000), 100).Int64(), int64(1_980_000))
	assert.Equal(t, rpc.MinAmountWithSlippage(math.NewInt(999), 50).Int64(), int64(994))
	assert.Equal(t, rpc.MinAmountWithSlippage(math.NewInt(1), 0).Int64(), int64(1))
	assert.True(t, rpc.MinAmountWithSlippage(math.ZeroInt(), 100).IsZero())
}

func TestMinAmountWithSlippage_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := math.NewInt(rapid.Int64Range(0, 1<<62).Draw(t, "amount"))
		bps := rapid.Int64Range(0, 9_999).Draw(t, "bps")

		got := rpc.MinAmountWithSlippage(amount, bps)
		if got.GT(amount) {
			t.Fatalf("min %s above amount %s", got, amount)
		}
		// floor(amount * (10000 - bps) / 10000) computed on integers
		want := amount.MulRaw(10_000 - bps).QuoRaw(10_000)
		if !got.Equal(want) {
			t.Fatalf("min %s, want %s", got, want)
		}
	})
}
