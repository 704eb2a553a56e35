package astroport

import (
	"context"
	"encoding/json"
	"os"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "astroport-adapter").Logger()
}

// SetLogger replaces the package logger
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "astroport-adapter").Logger()
}

var (
	entryPointContractAddress = wasm.NewItem[string]("entry_point_contract_address")
	routerContractAddress     = wasm.NewItem[string]("router_contract_address")
)

// Adapter routes swaps through the astroport router contract
type Adapter struct{}

func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Instantiate(_ context.Context, deps wasm.Deps, _ wasm.Env, _ wasm.MessageInfo, raw []byte) (*wasm.Response, error) {
	msg, err := wasm.Decode[InstantiateMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, err.Error())
	}
	if err := deps.API.AddrValidate(msg.EntryPointContractAddress); err != nil {
		return nil, err
	}
	if err := deps.API.AddrValidate(msg.RouterContractAddress); err != nil {
		return nil, err
	}
	if err := entryPointContractAddress.Save(deps.Storage, msg.EntryPointContractAddress); err != nil {
		return nil, err
	}
	if err := routerContractAddress.Save(deps.Storage, msg.RouterContractAddress); err != nil {
		return nil, err
	}
	return wasm.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("entry_point_contract_address", msg.EntryPointContractAddress).
		AddAttribute("router_contract_address", msg.RouterContractAddress), nil
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
	if len(operations) == 0 {
		return nil, swap.ErrSwapOperationsEmpty
	}

	router, err := routerContractAddress.Load(deps.Storage)
	if err != nil {
		return nil, err
	}
	swapMsg, err := wasm.NewWasmExecute(router, RouterExecuteMsg{ExecuteSwapOperations: &ExecuteSwapOperations{
		Operations: swap.ToAstroportSwapOperations(operations),
	}}, coinIn)
	if err != nil {
		return nil, err
	}
	transferBack, err := swap.SelfTransferFundsBack(env, info.Sender)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("router", router).
		Str("coin_in", coinIn.String()).
		Int("hops", len(operations)).
		Msg("Dispatching router swap")

	return wasm.NewResponse().
		AddMessages(swapMsg, transferBack).
		AddAttribute("action", "dispatch_swap_and_transfer_back"), nil
}

func (a *Adapter) Query(ctx context.Context, deps wasm.Deps, _ wasm.Env, raw []byte) ([]byte, error) {
	msg, err := wasm.Decode[swap.QueryMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, err.Error())
	}

	router, err := routerContractAddress.Load(deps.Storage)
	if err != nil {
		return nil, err
	}

	switch {
	case msg.RouterContractAddress != nil:
		return json.Marshal(router)

	case msg.SimulateSwapExactCoinIn != nil:
		q := msg.SimulateSwapExactCoinIn
		if len(q.SwapOperations) == 0 {
			return nil, swap.ErrSwapOperationsEmpty
		}
		if q.SwapOperations[0].DenomIn != q.CoinIn.Denom {
			return nil, swap.ErrSwapOperationsCoinInDenomMismatch
		}
		var res SimulateSwapOperationsResponse
		err := deps.Querier.QuerySmart(ctx, router, RouterQueryMsg{SimulateSwapOperations: &SimulateSwapOperations{
			OfferAmount: q.CoinIn.Amount,
			Operations:  swap.ToAstroportSwapOperations(q.SwapOperations),
		}}, &res)
		if err != nil {
			return nil, errorsmod.Wrap(err, "simulate swap operations")
		}
		return json.Marshal(wasm.NewCoin(q.SwapOperations[len(q.SwapOperations)-1].DenomOut, res.Amount))

	case msg.SimulateSwapExactCoinOut != nil:
		q := msg.SimulateSwapExactCoinOut
		if len(q.SwapOperations) == 0 {
			return nil, swap.ErrSwapOperationsEmpty
		}
		if q.SwapOperations[len(q.SwapOperations)-1].DenomOut != q.CoinOut.Denom {
			return nil, swap.ErrSwapOperationsCoinOutDenomMismatch
		}
		var res SimulateSwapOperationsResponse
		err := deps.Querier.QuerySmart(ctx, router, RouterQueryMsg{SimulateReverseSwapOperations: &SimulateReverseSwapOperations{
			AskAmount:  q.CoinOut.Amount,
			Operations: swap.ToAstroportSwapOperations(q.SwapOperations),
		}}, &res)
		if err != nil {
			return nil, errorsmod.Wrap(err, "simulate reverse swap operations")
		}
		return json.Marshal(wasm.NewCoin(q.SwapOperations[0].DenomIn, res.Amount))
	}
	return nil, swap.ErrQueryNotSupported
}
