package wasm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by storage helpers when a key has never been written
var ErrNotFound = errors.New("not found")

// Storage is the per contract key value store. The host snapshots it together
// with the bank so a failed transaction leaves no trace.
type Storage interface {
	Get(key []byte) ([]byte, bool)
	Set(key, value []byte)
	Delete(key []byte)
	// Range visits keys with the given prefix in ascending order
	Range(prefix []byte, fn func(key, value []byte) bool)
}

// Querier is the read only view of the chain available to a contract
type Querier interface {
	QueryBalance(ctx context.Context, address, denom string) (Coin, error)
	QueryAllBalances(ctx context.Context, address string) (Coins, error)
	// QuerySmart runs a contract query and decodes the result into out
	QuerySmart(ctx context.Context, contract string, msg any, out any) error
}

// ChannelQuerier is implemented by hosts with an ibc transfer module
type ChannelQuerier interface {
	QueryNextSequenceSend(ctx context.Context, channel string) (uint64, error)
}

// API exposes address helpers from the host
type API interface {
	AddrValidate(address string) error
}

// Deps bundles what a contract may touch during a call
type Deps struct {
	Storage Storage
	Querier Querier
	API     API
}

// Decode strictly decodes a json message, unknown fields are rejected like
// serde does for contract messages
func Decode[T any](raw []byte) (T, error) {
	var out T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
