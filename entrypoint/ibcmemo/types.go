package ibcmemo

import (
	"encoding/json"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/router"
)

// WasmMemo is the top-level structure for an ibc-hooks wasm memo
type WasmMemo struct {
	Wasm *WasmData `json:"wasm"`
}

// WasmData contains the contract call information
type WasmData struct {
	Contract string            `json:"contract"`
	Msg      router.ExecuteMsg `json:"msg"`
}

// ForwardMemo wraps a packet forward middleware hop
type ForwardMemo struct {
	Forward *PFMForward `json:"forward"`
}

// PFMForward contains PFM forwarding details.
// Next chains either the wasm call or another forward.
type PFMForward struct {
	Channel  string   `json:"channel"`
	Port     string   `json:"port"`
	Receiver string   `json:"receiver"`
	Retries  int      `json:"retries,omitempty"`
	Timeout  int64    `json:"timeout,omitempty"`
	Next     *PFMNext `json:"next,omitempty"`
}

// PFMNext is a union, exactly one of the fields is set
type PFMNext struct {
	Wasm    *WasmData   `json:"wasm,omitempty"`
	Forward *PFMForward `json:"forward,omitempty"`
}

// IBCHop represents a single IBC transfer hop
type IBCHop struct {
	Channel string `json:"channel"`
	// Port defaults to "transfer"
	Port     string `json:"port,omitempty"`
	Receiver string `json:"receiver"`
	Retries  int    `json:"retries,omitempty"`
	// Timeout in nanoseconds
	Timeout int64 `json:"timeout,omitempty"`
}

// ToJSON marshals the WasmMemo to JSON string
func (m *WasmMemo) ToJSON() (string, error) {
	bytes, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ToJSON marshals the ForwardMemo to JSON string
func (m *ForwardMemo) ToJSON() (string, error) {
	bytes, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
