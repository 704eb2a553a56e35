package osmosis

import (
	"context"
	"encoding/json"
	"os"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "osmosis-adapter").Logger()
}

// SetLogger replaces the package logger
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "osmosis-adapter").Logger()
}

var entryPointContractAddress = wasm.NewItem[string]("entry_point_contract_address")

type InstantiateMsg struct {
	EntryPointContractAddress string `json:"entry_point_contract_address"`
}

// Adapter is the Osmosis poolmanager swap venue. Swaps are executed by the
// poolmanager module, simulations are priced by the Quoter.
type Adapter struct {
	quoter Quoter
}

func NewAdapter(quoter Quoter) *Adapter {
	return &Adapter{quoter: quoter}
}

func (a *Adapter) Instantiate(_ context.Context, deps wasm.Deps, _ wasm.Env, _ wasm.MessageInfo, raw []byte) (*wasm.Response, error) {
	msg, err := wasm.Decode[InstantiateMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, err.Error())
	}
	if err := deps.API.AddrValidate(msg.EntryPointContractAddress); err != nil {
		return nil, err
	}
	if err := entryPointContractAddress.Save(deps.Storage, msg.EntryPointContractAddress); err != nil {
		return nil, err
	}
	return wasm.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("entry_point_contract_address", msg.EntryPointContractAddress), nil
}

func (a *Adapter) Execute(ctx context.Context, deps wasm.Deps, env wasm.Env, info wasm.MessageInfo, raw []byte) (*wasm.Response, error) {
	msg, err := wasm.Decode[swap.ExecuteMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, err.Error())
	}
	switch {
	case msg.Swap != nil:
		return a.executeSwap(deps, env, info, msg.Swap.Operations)
	case msg.TransferFundsBack != nil:
		return swap.ExecuteTransferFundsBack(ctx, deps, env, info, msg.TransferFundsBack.Swapper)
	}
	return nil, errorsmod.Wrap(swap.ErrInvalidMsg, "empty execute message")
}

func (a *Adapter) executeSwap(deps wasm.Deps, env wasm.Env, info wasm.MessageInfo, operations []swap.SwapOperation) (*wasm.Response, error) {
	entryPoint, err := entryPointContractAddress.Load(deps.Storage)
	if err != nil {
		return nil, err
	}
	if info.Sender != entryPoint {
		return nil, swap.ErrUnauthorized
	}

	coinIn, ok := info.OneCoin()
	if !ok {
		return nil, swap.ErrPaymentError.Wrapf("expected exactly one coin, got %s", info.Funds)
	}

	routes, err := swap.ConvertSwapOperations(operations, swap.ToOsmosisSwapAmountInRoute)
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, swap.ErrSwapOperationsEmpty
	}

	swapMsg, err := wasm.NewCustom(PoolManagerMsg{SwapExactAmountIn: &MsgSwapExactAmountIn{
		Sender:            env.Contract.Address,
		Routes:            routes,
		TokenIn:           coinIn,
		TokenOutMinAmount: math.OneInt(),
	}})
	if err != nil {
		return nil, err
	}
	transferBack, err := swap.SelfTransferFundsBack(env, info.Sender)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("coin_in", coinIn.String()).
		Int("hops", len(routes)).
		Msg("Dispatching poolmanager swap")

	return wasm.NewResponse().
		AddMessages(swapMsg, transferBack).
		AddAttribute("action", "dispatch_swap_and_transfer_back"), nil
}

func (a *Adapter) Query(ctx context.Context, _ wasm.Deps, _ wasm.Env, raw []byte) ([]byte, error) {
	msg, err := wasm.Decode[swap.QueryMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, err.Error())
	}

	switch {
	case msg.SimulateSwapExactCoinIn != nil:
		q := msg.SimulateSwapExactCoinIn
		quote, err := a.SimulateExactCoinIn(ctx, q.CoinIn, q.SwapOperations)
		if err != nil {
			return nil, err
		}
		return json.Marshal(quote.Coin)
	case msg.SimulateSwapExactCoinOut != nil:
		q := msg.SimulateSwapExactCoinOut
		quote, err := a.SimulateExactCoinOut(ctx, q.CoinOut, q.SwapOperations)
		if err != nil {
			return nil, err
		}
		return json.Marshal(quote.Coin)
	}
	return nil, swap.ErrQueryNotSupported
}

// SimulateExactCoinIn quotes the output of swapping coinIn along operations
func (a *Adapter) SimulateExactCoinIn(ctx context.Context, coinIn wasm.Coin, operations []swap.SwapOperation) (Quote, error) {
	if len(operations) == 0 {
		return Quote{}, swap.ErrSwapOperationsEmpty
	}
	if err := swap.ValidateSwapOperations(operations, coinIn.Denom, operations[len(operations)-1].DenomOut); err != nil {
		return Quote{}, err
	}
	routes, err := swap.ConvertSwapOperations(operations, swap.ToOsmosisSwapAmountInRoute)
	if err != nil {
		return Quote{}, err
	}
	return a.quoter.QuoteExactIn(ctx, coinIn, routes)
}

// SimulateExactCoinOut quotes the input needed to receive coinOut along operations
func (a *Adapter) SimulateExactCoinOut(ctx context.Context, coinOut wasm.Coin, operations []swap.SwapOperation) (Quote, error) {
	if len(operations) == 0 {
		return Quote{}, swap.ErrSwapOperationsEmpty
	}
	if err := swap.ValidateSwapOperations(operations, operations[0].DenomIn, coinOut.Denom); err != nil {
		return Quote{}, err
	}
	routes, err := swap.ConvertSwapOperations(operations, swap.ToOsmosisSwapAmountOutRoute)
	if err != nil {
		return Quote{}, err
	}
	return a.quoter.QuoteExactOut(ctx, coinOut, routes)
}
