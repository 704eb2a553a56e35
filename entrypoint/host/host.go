package host

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
	"github.com/btcsuite/btcutil/bech32"
)

const defaultMaxCallDepth = 10

// Config configures a Host
type Config struct {
	ChainID string
	// Bech32Prefix enables bech32 address validation when set
	Bech32Prefix string
	MaxCallDepth int
	// Now returns the block time, defaults to time.Now
	Now func() time.Time
}

// Host is an in process chain. It owns balances, contract storage and the
// contract registry, and executes one transaction at a time. A transaction
// either commits fully or leaves every balance and store untouched.
type Host struct {
	mu sync.Mutex

	config   Config
	height   int64
	blockNow time.Time

	balances  map[string]wasm.Coins
	stores    map[string]*memStore
	contracts map[string]Contract
	modules   map[string]ModuleHandler

	nextSequence map[string]uint64
	packets      map[packetKey]Packet
}

func New(config Config) *Host {
	if config.MaxCallDepth <= 0 {
		config.MaxCallDepth = defaultMaxCallDepth
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.ChainID == "" {
		config.ChainID = "localnet-1"
	}
	return &Host{
		config:       config,
		balances:     make(map[string]wasm.Coins),
		stores:       make(map[string]*memStore),
		contracts:    make(map[string]Contract),
		modules:      make(map[string]ModuleHandler),
		nextSequence: make(map[string]uint64),
		packets:      make(map[packetKey]Packet),
	}
}

// Register adds a contract under address without instantiating it
func (h *Host) Register(address string, contract Contract) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.validateAddress(address); err != nil {
		return err
	}
	if _, ok := h.contracts[address]; ok {
		return errorsmod.Wrap(ErrAddressInUse, address)
	}
	h.contracts[address] = contract
	h.stores[address] = newMemStore()
	return nil
}

// Instantiator is implemented by contracts with an instantiate entry
type Instantiator interface {
	Instantiate(ctx context.Context, deps wasm.Deps, env wasm.Env, info wasm.MessageInfo, msg []byte) (*wasm.Response, error)
}

// Instantiate registers the contract and runs its instantiate entry as one transaction
func (h *Host) Instantiate(ctx context.Context, sender, address string, contract Instantiator, msg any) (*Result, error) {
	c, ok := contract.(Contract)
	if !ok {
		return nil, fmt.Errorf("%T does not implement Contract", contract)
	}
	if err := h.Register(address, c); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal instantiate msg: %w", err)
	}

	return h.transact(func(tx *txContext) error {
		env := h.env(address)
		info := wasm.MessageInfo{Sender: sender}
		res, err := contract.Instantiate(ctx, h.deps(ctx, address), env, info, raw)
		if err != nil {
			return errorsmod.Wrapf(err, "instantiate %s", address)
		}
		tx.events = append(tx.events, Event{Type: "instantiate", Contract: address, Sender: sender, Attributes: res.Attributes})
		return h.dispatchAll(ctx, tx, 1, address, res.Messages)
	}, func() {
		delete(h.contracts, address)
		delete(h.stores, address)
	})
}

// RegisterModule routes custom messages whose top level key is name
func (h *Host) RegisterModule(name string, handler ModuleHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.modules[name] = handler
}

// Fund mints coins to an address, used for genesis style setup
func (h *Host) Fund(address string, coins ...wasm.Coin) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range coins {
		h.balances[address] = h.balances[address].Add(c)
	}
}

// Balance returns the balance of address in denom
func (h *Host) Balance(address, denom string) wasm.Coin {
	h.mu.Lock()
	defer h.mu.Unlock()
	return wasm.NewCoin(denom, h.balances[address].AmountOf(denom))
}

// AllBalances returns every coin held by address
func (h *Host) AllBalances(address string) wasm.Coins {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.balances[address].Clone()
}

// Execute runs msg against contract as one transaction
func (h *Host) Execute(ctx context.Context, sender, contract string, msg any, funds ...wasm.Coin) (*Result, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal execute msg: %w", err)
	}

	return h.transact(func(tx *txContext) error {
		return h.execute(ctx, tx, 0, sender, contract, raw, wasm.NewCoins(funds...))
	}, nil)
}

// Query runs a smart query and decodes the answer into out
func (h *Host) Query(ctx context.Context, contract string, msg any, out any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.querySmart(ctx, contract, msg, out)
}

// Fork returns an independent copy of the chain state sharing the same
// contract implementations. It is used to dry run transactions.
func (h *Host) Fork() *Host {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap := h.snapshot()
	fork := New(h.config)
	fork.height = h.height
	fork.balances = snap.balances
	fork.stores = snap.stores
	fork.nextSequence = snap.nextSequence
	fork.packets = snap.packets
	for addr, c := range h.contracts {
		fork.contracts[addr] = c
	}
	for name, m := range h.modules {
		fork.modules[name] = m
	}
	return fork
}

type txContext struct {
	events []Event
}

type snapshot struct {
	balances     map[string]wasm.Coins
	stores       map[string]*memStore
	nextSequence map[string]uint64
	packets      map[packetKey]Packet
}

func (h *Host) snapshot() snapshot {
	s := snapshot{
		balances:     make(map[string]wasm.Coins, len(h.balances)),
		stores:       make(map[string]*memStore, len(h.stores)),
		nextSequence: make(map[string]uint64, len(h.nextSequence)),
		packets:      make(map[packetKey]Packet, len(h.packets)),
	}
	for k, v := range h.balances {
		s.balances[k] = v.Clone()
	}
	for k, v := range h.stores {
		s.stores[k] = v.clone()
	}
	for k, v := range h.nextSequence {
		s.nextSequence[k] = v
	}
	for k, v := range h.packets {
		s.packets[k] = v
	}
	return s
}

func (h *Host) restore(s snapshot) {
	h.balances = s.balances
	h.stores = s.stores
	h.nextSequence = s.nextSequence
	h.packets = s.packets
}

// transact runs fn under the lock with a fresh block, rolling back on error
func (h *Host) transact(fn func(tx *txContext) error, onRollback func()) (*Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.height++
	h.blockNow = h.config.Now()
	snap := h.snapshot()
	tx := &txContext{}

	if err := guard(func() error { return fn(tx) }); err != nil {
		h.restore(snap)
		if onRollback != nil {
			onRollback()
		}
		log.Debug().Err(err).Int64("height", h.height).Msg("transaction reverted")
		return nil, err
	}

	log.Debug().Int64("height", h.height).Int("events", len(tx.events)).Msg("transaction committed")
	return &Result{Height: h.height, Events: tx.events}, nil
}

// guard turns a panic raised by fn into ErrPanic so the caller still restores
// its snapshot
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("execution panicked")
			err = errorsmod.Wrapf(ErrPanic, "%v", r)
		}
	}()
	return fn()
}

func (h *Host) env(contract string) wasm.Env {
	now := h.blockNow
	if now.IsZero() {
		now = h.config.Now()
	}
	return wasm.Env{
		Block: wasm.BlockInfo{
			Height:  h.height,
			Time:    uint64(now.UnixNano()),
			ChainID: h.config.ChainID,
		},
		Contract: wasm.ContractInfo{Address: contract},
	}
}

func (h *Host) deps(ctx context.Context, contract string) wasm.Deps {
	store, ok := h.stores[contract]
	if !ok {
		store = newMemStore()
		h.stores[contract] = store
	}
	return wasm.Deps{
		Storage: store,
		Querier: &querier{h: h},
		API:     api{prefix: h.config.Bech32Prefix},
	}
}

func (h *Host) execute(
	ctx context.Context,
	tx *txContext,
	depth int,
	sender, contract string,
	msg []byte,
	funds wasm.Coins,
) error {
	if depth > h.config.MaxCallDepth {
		return errorsmod.Wrapf(ErrCallDepthExceeded, "depth %d", depth)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c, ok := h.contracts[contract]
	if !ok {
		return errorsmod.Wrap(ErrContractNotFound, contract)
	}

	if err := h.send(sender, contract, funds); err != nil {
		return err
	}

	env := h.env(contract)
	info := wasm.MessageInfo{Sender: sender, Funds: funds}
	res, err := c.Execute(ctx, h.deps(ctx, contract), env, info, msg)
	if err != nil {
		return errorsmod.Wrapf(err, "execute %s", contract)
	}
	if res == nil {
		res = wasm.NewResponse()
	}

	log.Debug().
		Str("contract", contract).
		Str("sender", sender).
		Str("funds", funds.String()).
		Int("messages", len(res.Messages)).
		Int("depth", depth).
		Msg("executed contract")

	tx.events = append(tx.events, Event{Type: "execute", Contract: contract, Sender: sender, Attributes: res.Attributes})
	return h.dispatchAll(ctx, tx, depth+1, contract, res.Messages)
}

// dispatchAll runs messages in order, each one fully (including everything it
// emits) before the next
func (h *Host) dispatchAll(ctx context.Context, tx *txContext, depth int, emitter string, msgs []wasm.SubMsg) error {
	for i, sub := range msgs {
		if err := h.dispatch(ctx, tx, depth, emitter, sub); err != nil {
			return fmt.Errorf("message %d (%s) from %s: %w", i, sub.Msg.Kind(), emitter, err)
		}
	}
	return nil
}

func (h *Host) dispatch(ctx context.Context, tx *txContext, depth int, emitter string, sub wasm.SubMsg) error {
	if sub.ReplyOn != "" && sub.ReplyOn != wasm.ReplyNever {
		return errorsmod.Wrapf(ErrReplyNotSupported, "reply_on %s", sub.ReplyOn)
	}

	msg := sub.Msg
	switch {
	case msg.Bank != nil && msg.Bank.Send != nil:
		send := msg.Bank.Send
		if err := h.send(emitter, send.ToAddress, send.Amount); err != nil {
			return err
		}
		tx.events = append(tx.events, Event{Type: "transfer", Sender: emitter, Attributes: []wasm.Attribute{
			{Key: "recipient", Value: send.ToAddress},
			{Key: "amount", Value: send.Amount.String()},
		}})
		return nil

	case msg.Wasm != nil && msg.Wasm.Execute != nil:
		exec := msg.Wasm.Execute
		return h.execute(ctx, tx, depth, emitter, exec.ContractAddr, exec.Msg, wasm.NewCoins(exec.Funds...))

	case msg.IBC != nil && msg.IBC.Transfer != nil:
		packet, err := h.sendPacket(emitter, *msg.IBC.Transfer)
		if err != nil {
			return err
		}
		tx.events = append(tx.events, Event{Type: "send_packet", Sender: emitter, Attributes: []wasm.Attribute{
			{Key: "packet_src_channel", Value: packet.Channel},
			{Key: "packet_sequence", Value: fmt.Sprint(packet.Sequence)},
			{Key: "amount", Value: packet.Amount.String()},
		}})
		return nil

	case len(msg.Custom) > 0:
		return h.dispatchCustom(ctx, tx, emitter, msg.Custom)
	}

	return ErrUnknownMessage
}

func (h *Host) dispatchCustom(ctx context.Context, tx *txContext, emitter string, raw json.RawMessage) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope) != 1 {
		return errorsmod.Wrap(ErrUnknownMessage, "custom message must have exactly one top level key")
	}

	for name := range envelope {
		handler, ok := h.modules[name]
		if !ok {
			return errorsmod.Wrap(ErrModuleNotFound, name)
		}
		if err := handler.HandleCustom(ctx, bank{h: h}, h.env(emitter), emitter, raw); err != nil {
			return errorsmod.Wrapf(err, "module %s", name)
		}
		tx.events = append(tx.events, Event{Type: "custom", Sender: emitter, Attributes: []wasm.Attribute{{Key: "module", Value: name}}})
	}
	return nil
}

func (h *Host) send(from, to string, amount wasm.Coins) error {
	if amount.IsZero() {
		return nil
	}
	if strings.TrimSpace(to) == "" {
		return errorsmod.Wrap(ErrInvalidAddress, "empty recipient")
	}
	balance := h.balances[from]
	for _, c := range amount {
		var err error
		balance, err = balance.SafeSub(c)
		if err != nil {
			return errorsmod.Wrapf(ErrInsufficientFunds, "%s: %s", from, err)
		}
	}
	h.balances[from] = balance
	for _, c := range amount {
		h.balances[to] = h.balances[to].Add(c)
	}
	return nil
}

func (h *Host) querySmart(ctx context.Context, contract string, msg any, out any) error {
	c, ok := h.contracts[contract]
	if !ok {
		return errorsmod.Wrap(ErrContractNotFound, contract)
	}

	var raw []byte
	switch m := msg.(type) {
	case []byte:
		raw = m
	case json.RawMessage:
		raw = m
	default:
		var err error
		raw, err = json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal query: %w", err)
		}
	}

	answer, err := c.Query(ctx, h.deps(ctx, contract), h.env(contract), raw)
	if err != nil {
		return errorsmod.Wrapf(err, "query %s", contract)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(answer, out); err != nil {
		return fmt.Errorf("failed to decode query answer from %s: %w", contract, err)
	}
	return nil
}

func (h *Host) validateAddress(address string) error {
	return api{prefix: h.config.Bech32Prefix}.AddrValidate(address)
}

// querier is the wasm.Querier handed to contracts during a call
type querier struct {
	h *Host
}

func (q *querier) QueryBalance(_ context.Context, address, denom string) (wasm.Coin, error) {
	return wasm.NewCoin(denom, q.h.balances[address].AmountOf(denom)), nil
}

func (q *querier) QueryAllBalances(_ context.Context, address string) (wasm.Coins, error) {
	return q.h.balances[address].Clone(), nil
}

func (q *querier) QuerySmart(ctx context.Context, contract string, msg any, out any) error {
	return q.h.querySmart(ctx, contract, msg, out)
}

func (q *querier) QueryNextSequenceSend(_ context.Context, channel string) (uint64, error) {
	return q.h.nextSequence[channel] + 1, nil
}

type api struct {
	prefix string
}

func (a api) AddrValidate(address string) error {
	if strings.TrimSpace(address) == "" || strings.ContainsAny(address, " \t\n") {
		return errorsmod.Wrapf(ErrInvalidAddress, "%q", address)
	}
	if a.prefix == "" {
		return nil
	}
	hrp, _, err := bech32.Decode(address)
	if err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "%s: %s", address, err)
	}
	if hrp != a.prefix {
		return errorsmod.Wrapf(ErrInvalidAddress, "%s: expected prefix %s, got %s", address, a.prefix, hrp)
	}
	return nil
}

// bank is the Bank handed to module handlers, it shares the transaction state
type bank struct {
	h *Host
}

func (b bank) Send(from, to string, amount wasm.Coins) error {
	return b.h.send(from, to, amount)
}

func (b bank) Mint(to string, amount wasm.Coins) {
	for _, c := range amount {
		b.h.balances[to] = b.h.balances[to].Add(c)
	}
}

func (b bank) Burn(from string, amount wasm.Coins) error {
	balance := b.h.balances[from]
	for _, c := range amount {
		var err error
		balance, err = balance.SafeSub(c)
		if err != nil {
			return errorsmod.Wrapf(ErrInsufficientFunds, "%s: %s", from, err)
		}
	}
	b.h.balances[from] = balance
	return nil
}

func (b bank) Balance(address, denom string) wasm.Coin {
	return wasm.NewCoin(denom, b.h.balances[address].AmountOf(denom))
}

// DryRun executes a single contract call without dispatching what it emits and
// discards every state change. It returns the response so callers can inspect
// the planned messages.
func (h *Host) DryRun(ctx context.Context, sender, contract string, msg any, funds ...wasm.Coin) (*wasm.Response, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal execute msg: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap := h.snapshot()
	defer h.restore(snap)

	if h.blockNow.IsZero() {
		h.blockNow = h.config.Now()
	}
	c, ok := h.contracts[contract]
	if !ok {
		return nil, errorsmod.Wrap(ErrContractNotFound, contract)
	}
	if err := h.send(sender, contract, wasm.NewCoins(funds...)); err != nil {
		return nil, err
	}
	var res *wasm.Response
	err = guard(func() (err error) {
		res, err = c.Execute(ctx, h.deps(ctx, contract), h.env(contract), wasm.MessageInfo{Sender: sender, Funds: wasm.NewCoins(funds...)}, raw)
		return err
	})
	if err != nil {
		return nil, errorsmod.Wrapf(err, "execute %s", contract)
	}
	if res == nil {
		res = wasm.NewResponse()
	}
	return res, nil
}
