package ibctransfer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/ibc"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "ibc-adapter").Logger()
}

// SetLogger replaces the package logger
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "ibc-adapter").Logger()
}

const Codespace = "ibc-adapter"

var (
	ErrNoChannelQuerier    = errorsmod.Register(Codespace, 2, "host does not expose ibc channels")
	ErrInProgressNotFound  = errorsmod.Register(Codespace, 3, "in progress ibc transfer not found")
	ErrFundsMismatch       = errorsmod.Register(Codespace, 4, "funds do not match coin plus ibc fees")
	ErrEmptyRecoverAddress = errorsmod.Register(Codespace, 5, "recover address is required")
)

// InProgressTransfer is kept until the packet is acknowledged or times out
type InProgressTransfer struct {
	RecoverAddress string     `json:"recover_address"`
	Coin           wasm.Coin  `json:"coin"`
	Fee            wasm.Coins `json:"fee"`
}

var (
	entryPointContractAddress = wasm.NewItem[string]("entry_point_contract_address")
	inProgress                = wasm.NewMap[InProgressTransfer]("in_progress_ibc_transfer")
)

func inProgressKey(channel string, sequence uint64) string {
	return fmt.Sprintf("%s/%d", channel, sequence)
}

// Adapter sends the post swap output over ibc and recovers it to the
// recover address when the transfer fails. Relayer fees attached by the entry
// point are held while the packet is in flight and returned to the recover
// address when it completes.
type Adapter struct{}

func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Instantiate(_ context.Context, deps wasm.Deps, _ wasm.Env, _ wasm.MessageInfo, raw []byte) (*wasm.Response, error) {
	msg, err := wasm.Decode[ibc.InstantiateMsg](raw)
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
	msg, err := wasm.Decode[ibc.ExecuteMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, err.Error())
	}
	if msg.IbcTransfer == nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, "empty execute message")
	}
	return a.executeIbcTransfer(ctx, deps, env, info, *msg.IbcTransfer)
}

func (a *Adapter) executeIbcTransfer(
	ctx context.Context,
	deps wasm.Deps,
	_ wasm.Env,
	info wasm.MessageInfo,
	transfer ibc.IbcTransfer,
) (*wasm.Response, error) {
	entryPoint, err := entryPointContractAddress.Load(deps.Storage)
	if err != nil {
		return nil, err
	}
	if info.Sender != entryPoint {
		return nil, swap.ErrUnauthorized
	}
	if transfer.Info.RecoverAddress == "" {
		return nil, ErrEmptyRecoverAddress
	}

	fee := transfer.Info.Fee.Total()
	expected := fee.Add(transfer.Coin)
	if expected.String() != wasm.NewCoins(info.Funds...).String() {
		return nil, ErrFundsMismatch.Wrapf("expected %s, got %s", expected, info.Funds)
	}

	channels, ok := deps.Querier.(wasm.ChannelQuerier)
	if !ok {
		return nil, ErrNoChannelQuerier
	}
	sequence, err := channels.QueryNextSequenceSend(ctx, transfer.Info.SourceChannel)
	if err != nil {
		return nil, errorsmod.Wrapf(err, "next sequence on %s", transfer.Info.SourceChannel)
	}

	err = inProgress.Save(deps.Storage, inProgressKey(transfer.Info.SourceChannel, sequence), InProgressTransfer{
		RecoverAddress: transfer.Info.RecoverAddress,
		Coin:           transfer.Coin,
		Fee:            fee,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("channel", transfer.Info.SourceChannel).
		Uint64("sequence", sequence).
		Str("receiver", transfer.Info.Receiver).
		Str("coin", transfer.Coin.String()).
		Msg("Dispatching ibc transfer")

	return wasm.NewResponse().
		AddMessage(wasm.NewIbcTransfer(wasm.IbcTransferMsg{
			ChannelID: transfer.Info.SourceChannel,
			ToAddress: transfer.Info.Receiver,
			Amount:    transfer.Coin,
			Timeout:   transfer.TimeoutTimestamp,
			Memo:      transfer.Info.Memo,
		})).
		AddAttribute("action", "dispatch_ibc_transfer").
		AddAttribute("sequence", fmt.Sprint(sequence)), nil
}

// Sudo handles the packet lifecycle callback. On failure the refunded coin goes
// to the recover address, fees are returned either way.
func (a *Adapter) Sudo(_ context.Context, deps wasm.Deps, _ wasm.Env, raw []byte) (*wasm.Response, error) {
	msg, err := wasm.Decode[ibc.SudoMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, err.Error())
	}
	if msg.IbcLifecycleComplete == nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, "empty sudo message")
	}
	lifecycle := *msg.IbcLifecycleComplete

	channel, sequence := lifecycle.Key()
	key := inProgressKey(channel, sequence)
	record, err := inProgress.Load(deps.Storage, key)
	if err != nil {
		return nil, ErrInProgressNotFound.Wrapf("%s", key)
	}
	inProgress.Remove(deps.Storage, key)

	payout := record.Fee
	action := "sudo_ibc_ack_success"
	if lifecycle.Failed() {
		payout = payout.Add(record.Coin)
		action = "sudo_ibc_recover"
		log.Warn().
			Str("channel", channel).
			Uint64("sequence", sequence).
			Str("recover_address", record.RecoverAddress).
			Msg("IBC transfer failed, recovering funds")
	}

	res := wasm.NewResponse().AddAttribute("action", action)
	if !payout.IsZero() {
		res.AddMessage(wasm.NewBankSend(record.RecoverAddress, payout...))
	}
	return res, nil
}

func (a *Adapter) Query(_ context.Context, deps wasm.Deps, _ wasm.Env, raw []byte) ([]byte, error) {
	msg, err := wasm.Decode[ibc.QueryMsg](raw)
	if err != nil {
		return nil, errorsmod.Wrap(swap.ErrInvalidMsg, err.Error())
	}
	if msg.InProgressRecoverAddress == nil {
		return nil, swap.ErrQueryNotSupported
	}
	q := msg.InProgressRecoverAddress
	key := inProgressKey(q.ChannelID, q.SequenceID)
	record, err := inProgress.Load(deps.Storage, key)
	if err != nil {
		return nil, ErrInProgressNotFound.Wrapf("%s", key)
	}
	return json.Marshal(record.RecoverAddress)
}
