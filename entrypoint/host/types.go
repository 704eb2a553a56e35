package host

import (
	"context"
	"os"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "host").Logger()
}

// SetLogger replaces the package logger
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "host").Logger()
}

const Codespace = "host"

var (
	ErrContractNotFound    = errorsmod.Register(Codespace, 2, "contract not found")
	ErrCallDepthExceeded   = errorsmod.Register(Codespace, 3, "call depth exceeded")
	ErrInsufficientFunds   = errorsmod.Register(Codespace, 4, "insufficient funds")
	ErrInvalidAddress      = errorsmod.Register(Codespace, 5, "invalid address")
	ErrUnknownMessage      = errorsmod.Register(Codespace, 6, "unknown message")
	ErrReplyNotSupported   = errorsmod.Register(Codespace, 7, "sub message replies are not supported")
	ErrModuleNotFound      = errorsmod.Register(Codespace, 8, "module not found")
	ErrPacketNotFound      = errorsmod.Register(Codespace, 9, "packet not found")
	ErrPacketTimeoutPassed = errorsmod.Register(Codespace, 10, "packet timeout already passed")
	ErrAddressInUse        = errorsmod.Register(Codespace, 11, "address already in use")
	ErrPanic               = errorsmod.Register(Codespace, 12, "execution panicked")
)

// Contract is anything the host can execute and query. Messages are raw json.
type Contract interface {
	Execute(ctx context.Context, deps wasm.Deps, env wasm.Env, info wasm.MessageInfo, msg []byte) (*wasm.Response, error)
	Query(ctx context.Context, deps wasm.Deps, env wasm.Env, msg []byte) ([]byte, error)
}

// SudoContract receives privileged callbacks such as ibc lifecycle completion
type SudoContract interface {
	Sudo(ctx context.Context, deps wasm.Deps, env wasm.Env, msg []byte) (*wasm.Response, error)
}

// Bank is the view of balances handed to module handlers
type Bank interface {
	Send(from, to string, amount wasm.Coins) error
	Mint(to string, amount wasm.Coins)
	Burn(from string, amount wasm.Coins) error
	Balance(address, denom string) wasm.Coin
}

// ModuleHandler executes custom messages, for example a poolmanager swap.
// It runs inside the transaction and its bank changes roll back with it.
type ModuleHandler interface {
	HandleCustom(ctx context.Context, bank Bank, env wasm.Env, sender string, msg []byte) error
}

// ModuleHandlerFunc adapts a function to ModuleHandler
type ModuleHandlerFunc func(ctx context.Context, bank Bank, env wasm.Env, sender string, msg []byte) error

func (f ModuleHandlerFunc) HandleCustom(ctx context.Context, bank Bank, env wasm.Env, sender string, msg []byte) error {
	return f(ctx, bank, env, sender, msg)
}

// Event is one step of an executed transaction
type Event struct {
	Type       string           `json:"type"`
	Contract   string           `json:"contract,omitempty"`
	Sender     string           `json:"sender,omitempty"`
	Attributes []wasm.Attribute `json:"attributes,omitempty"`
}

// Result is returned for a committed transaction
type Result struct {
	Height int64   `json:"height"`
	Events []Event `json:"events"`
}

// Packet is an outgoing ics20 transfer waiting for ack or timeout
type Packet struct {
	Sender   string    `json:"sender"`
	Channel  string    `json:"channel"`
	Sequence uint64    `json:"sequence"`
	Receiver string    `json:"receiver"`
	Amount   wasm.Coin `json:"amount"`
	Memo     string    `json:"memo"`
	Timeout  uint64    `json:"timeout"`
}

type packetKey struct {
	channel  string
	sequence uint64
}
