// Package lido adapts the Lido satellite, which wraps a bridged wstETH into its
// canonical denom one to one. Swap operations carry only the denoms here, the
// satellite itself decides what it mints.
package lido

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
	log = zerolog.New(out).With().Timestamp().Str("component", "lido-adapter").Logger()
}

// SetLogger replaces the package logger
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "lido-adapter").Logger()
}

var (
	entryPointContractAddress    = wasm.NewItem[string]("entry_point_contract_address")
	lidoSatelliteContractAddress = wasm.NewItem[string]("lido_satellite_contract_address")
)

type InstantiateMsg struct {
	EntryPointContractAddress    string `json:"entry_point_contract_address"`
	LidoSatelliteContractAddress string `json:"lido_satellite_contract_address"`
}

// SatelliteExecuteMsg is the satellite mint call
type SatelliteExecuteMsg struct {
	Mint *Mint `json:"mint,omitempty"`
}

type Mint struct {
	Receiver *string `json:"receiver"`
}

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
	if err := deps.API.AddrValidate(msg.LidoSatelliteContractAddress); err != nil {
		return nil, err
	}
	if err := entryPointContractAddress.Save(deps.Storage, msg.EntryPointContractAddress); err != nil {
		return nil, err
	}
	if err := lidoSatelliteContractAddress.Save(deps.Storage, msg.LidoSatelliteContractAddress); err != nil {
		return nil, err
	}
	return wasm.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("entry_point_contract_address", msg.EntryPointContractAddress).
		AddAttribute("lido_satellite_contract_address", msg.LidoSatelliteContractAddress), nil
}

func (a *Adapter) Execute(ctx context.Context, deps wasm.Deps, env wasm.Env, info wasm.MessageInfo, raw []byte) (*wasm.Response, error) {
	msg, err := wasm.Decode[swap.ExecuteMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, err.Error())
	}
	switch {
	case msg.Swap != nil:
		return a.executeSwap(deps, env, info)
	case msg.TransferFundsBack != nil:
		return swap.ExecuteTransferFundsBack(ctx, deps, env, info, msg.TransferFundsBack.Swapper)
	}
	return nil, errorsmod.Wrap(swap.ErrInvalidMsg, "empty execute message")
}

// executeSwap ignores the operations, the satellite only knows one conversion
func (a *Adapter) executeSwap(deps wasm.Deps, env wasm.Env, info wasm.MessageInfo) (*wasm.Response, error) {
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

	satellite, err := lidoSatelliteContractAddress.Load(deps.Storage)
	if err != nil {
		return nil, err
	}
	mintMsg, err := wasm.NewWasmExecute(satellite, SatelliteExecuteMsg{Mint: &Mint{}}, coinIn)
	if err != nil {
		return nil, err
	}
	transferBack, err := swap.SelfTransferFundsBack(env, info.Sender)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("coin_in", coinIn.String()).Str("satellite", satellite).Msg("Dispatching satellite mint")

	return wasm.NewResponse().
		AddMessages(mintMsg, transferBack).
		AddAttribute("action", "dispatch_swap_and_transfer_back"), nil
}

// Query simulates the one to one conversion between the first denom in and the
// last denom out
func (a *Adapter) Query(_ context.Context, _ wasm.Deps, _ wasm.Env, raw []byte) ([]byte, error) {
	msg, err := wasm.Decode[swap.QueryMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, err.Error())
	}

	switch {
	case msg.SimulateSwapExactCoinIn != nil:
		q := msg.SimulateSwapExactCoinIn
		if len(q.SwapOperations) == 0 {
			return nil, swap.ErrSwapOperationsEmpty
		}
		return json.Marshal(wasm.NewCoin(q.SwapOperations[len(q.SwapOperations)-1].DenomOut, q.CoinIn.Amount))
	case msg.SimulateSwapExactCoinOut != nil:
		q := msg.SimulateSwapExactCoinOut
		if len(q.SwapOperations) == 0 {
			return nil, swap.ErrSwapOperationsEmpty
		}
		return json.Marshal(wasm.NewCoin(q.SwapOperations[0].DenomIn, q.CoinOut.Amount))
	}
	return nil, swap.ErrQueryNotSupported
}
