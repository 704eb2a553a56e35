package router

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/fees"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "entry-point").Logger()
}

// SetLogger replaces the package logger
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "entry-point").Logger()
}

// Config holds deployment options that are not part of contract state
type Config struct {
	// EnforceMinCoin makes PostSwapAction fail when the swap produced less than min coin
	EnforceMinCoin bool
}

// EntryPoint is the orchestrating contract. It owns the venue registry and
// turns a SwapAndAction into a swap through the venue adapter followed by the
// post swap action, all within one transaction.
type EntryPoint struct {
	config Config
}

func New(config Config) *EntryPoint {
	return &EntryPoint{config: config}
}

func (e *EntryPoint) Instantiate(
	_ context.Context,
	deps wasm.Deps,
	_ wasm.Env,
	_ wasm.MessageInfo,
	raw []byte,
) (*wasm.Response, error) {
	msg, err := wasm.Decode[InstantiateMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidMsg, err.Error())
	}

	res := wasm.NewResponse().AddAttribute("action", "instantiate")
	seen := make(map[string]struct{}, len(msg.SwapVenues))
	for _, venue := range msg.SwapVenues {
		if _, ok := seen[venue.Name]; ok {
			return nil, ErrDuplicateSwapVenueName.Wrapf("%q", venue.Name)
		}
		seen[venue.Name] = struct{}{}

		if err := deps.API.AddrValidate(venue.AdapterContractAddress); err != nil {
			return nil, errorsmod.Wrapf(err, "swap venue %s", venue.Name)
		}
		if err := swapVenueMap.Save(deps.Storage, venue.Name, venue.AdapterContractAddress); err != nil {
			return nil, err
		}
		res.AddAttribute("add_swap_venue", venue.Name)
	}

	if err := deps.API.AddrValidate(msg.IbcTransferContractAddress); err != nil {
		return nil, errorsmod.Wrap(err, "ibc transfer adapter")
	}
	if err := ibcTransferAdapterContractAddress.Save(deps.Storage, msg.IbcTransferContractAddress); err != nil {
		return nil, err
	}
	res.AddAttribute("ibc_transfer_contract_address", msg.IbcTransferContractAddress)
	return res, nil
}

// Execute decodes the raw message and routes it to HandleExecute
func (e *EntryPoint) Execute(
	ctx context.Context,
	deps wasm.Deps,
	env wasm.Env,
	info wasm.MessageInfo,
	raw []byte,
) (*wasm.Response, error) {
	msg, err := wasm.Decode[ExecuteMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidMsg, err.Error())
	}
	return e.HandleExecute(ctx, deps, env, info, msg)
}

func (e *EntryPoint) HandleExecute(
	ctx context.Context,
	deps wasm.Deps,
	env wasm.Env,
	info wasm.MessageInfo,
	msg ExecuteMsg,
) (*wasm.Response, error) {
	switch {
	case msg.SwapAndAction != nil:
		return e.executeSwapAndAction(ctx, deps, env, info, *msg.SwapAndAction)
	case msg.UserSwap != nil:
		return e.executeUserSwap(ctx, deps, env, info, *msg.UserSwap)
	case msg.PostSwapAction != nil:
		return e.executePostSwapAction(ctx, deps, env, info, *msg.PostSwapAction)
	case msg.TransferFundsBack != nil:
		return swap.ExecuteTransferFundsBack(ctx, deps, env, info, msg.TransferFundsBack.Swapper)
	}
	return nil, errorsmod.Wrap(ErrInvalidMsg, "empty execute message")
}

func (e *EntryPoint) Query(_ context.Context, deps wasm.Deps, _ wasm.Env, raw []byte) ([]byte, error) {
	msg, err := wasm.Decode[QueryMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidMsg, err.Error())
	}

	switch {
	case msg.SwapVenueAdapterContract != nil:
		adapter, err := loadSwapVenueAdapter(deps.Storage, msg.SwapVenueAdapterContract.Name)
		if err != nil {
			return nil, err
		}
		return json.Marshal(adapter)
	case msg.IbcTransferAdapterContract != nil:
		adapter, err := ibcTransferAdapterContractAddress.Load(deps.Storage)
		if err != nil {
			return nil, err
		}
		return json.Marshal(adapter)
	case msg.SwapVenues != nil:
		return json.Marshal(ListSwapVenues(deps.Storage))
	}
	return nil, swap.ErrQueryNotSupported
}

// ListSwapVenues returns the registered venues ordered by name
func ListSwapVenues(store wasm.Storage) []swap.SwapVenue {
	names := swapVenueMap.Keys(store)
	venues := make([]swap.SwapVenue, 0, len(names))
	for _, name := range names {
		adapter, err := swapVenueMap.Load(store, name)
		if err != nil {
			continue
		}
		venues = append(venues, swap.SwapVenue{Name: name, AdapterContractAddress: adapter})
	}
	return venues
}

// affiliateSends turns the affiliate payouts on base into bank sends
func affiliateSends(base wasm.Coin, affiliates []fees.Affiliate) ([]wasm.SubMsg, error) {
	payouts, _, err := fees.AffiliatePayouts(base, affiliates)
	if err != nil {
		return nil, err
	}
	msgs := make([]wasm.SubMsg, 0, len(payouts))
	for _, p := range payouts {
		msgs = append(msgs, wasm.NewBankSend(p.Address, p.Coin))
	}
	return msgs, nil
}

func uintAttr(v uint64) string {
	return strconv.FormatUint(v, 10)
}
