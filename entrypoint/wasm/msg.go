package wasm

import (
	"encoding/json"
	"fmt"
)

// ReplyOn tells the host when the emitting contract wants a reply for a sub message
type ReplyOn string

const (
	ReplyNever   ReplyOn = "never"
	ReplyAlways  ReplyOn = "always"
	ReplySuccess ReplyOn = "success"
	ReplyError   ReplyOn = "error"
)

// CosmosMsg is the union of messages a contract may return. Exactly one field is set.
type CosmosMsg struct {
	Bank   *BankMsg        `json:"bank,omitempty"`
	Wasm   *WasmMsg        `json:"wasm,omitempty"`
	IBC    *IbcMsg         `json:"ibc,omitempty"`
	Custom json.RawMessage `json:"custom,omitempty"`
}

type BankMsg struct {
	Send *SendMsg `json:"send,omitempty"`
}

// SendMsg moves coins from the emitting contract to ToAddress
type SendMsg struct {
	ToAddress string `json:"to_address"`
	Amount    Coins  `json:"amount"`
}

type WasmMsg struct {
	Execute *ExecuteMsg `json:"execute,omitempty"`
}

// ExecuteMsg calls another contract with Funds attached
type ExecuteMsg struct {
	ContractAddr string          `json:"contract_addr"`
	Msg          json.RawMessage `json:"msg"`
	Funds        Coins           `json:"funds"`
}

type IbcMsg struct {
	Transfer *IbcTransferMsg `json:"transfer,omitempty"`
}

// IbcTransferMsg is an ics20 transfer out of the emitting contract
type IbcTransferMsg struct {
	ChannelID string `json:"channel_id"`
	ToAddress string `json:"to_address"`
	Amount    Coin   `json:"amount"`
	// Timeout is a unix timestamp in nanoseconds
	Timeout uint64 `json:"timeout"`
	Memo    string `json:"memo,omitempty"`
}

// SubMsg wraps a message with reply information
type SubMsg struct {
	ID       uint64    `json:"id"`
	Msg      CosmosMsg `json:"msg"`
	GasLimit *uint64   `json:"gas_limit"`
	ReplyOn  ReplyOn   `json:"reply_on"`
}

// Kind names the populated branch of the union, used for logs and metrics
func (m CosmosMsg) Kind() string {
	switch {
	case m.Bank != nil && m.Bank.Send != nil:
		return "bank_send"
	case m.Wasm != nil && m.Wasm.Execute != nil:
		return "wasm_execute"
	case m.IBC != nil && m.IBC.Transfer != nil:
		return "ibc_transfer"
	case len(m.Custom) > 0:
		return "custom"
	default:
		return "unknown"
	}
}

// NewBankSend builds a bank send sub message that never replies
func NewBankSend(toAddress string, amount ...Coin) SubMsg {
	return SubMsg{
		Msg: CosmosMsg{Bank: &BankMsg{Send: &SendMsg{
			ToAddress: toAddress,
			Amount:    Coins(amount),
		}}},
		ReplyOn: ReplyNever,
	}
}

// NewWasmExecute marshals msg and builds an execute sub message that never replies
func NewWasmExecute(contract string, msg any, funds ...Coin) (SubMsg, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return SubMsg{}, fmt.Errorf("failed to marshal execute msg for %s: %w", contract, err)
	}
	return SubMsg{
		Msg: CosmosMsg{Wasm: &WasmMsg{Execute: &ExecuteMsg{
			ContractAddr: contract,
			Msg:          raw,
			Funds:        Coins(funds),
		}}},
		ReplyOn: ReplyNever,
	}, nil
}

// NewCustom wraps a module specific message
func NewCustom(msg any) (SubMsg, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return SubMsg{}, fmt.Errorf("failed to marshal custom msg: %w", err)
	}
	return SubMsg{Msg: CosmosMsg{Custom: raw}, ReplyOn: ReplyNever}, nil
}

func NewIbcTransfer(transfer IbcTransferMsg) SubMsg {
	return SubMsg{
		Msg:     CosmosMsg{IBC: &IbcMsg{Transfer: &transfer}},
		ReplyOn: ReplyNever,
	}
}
