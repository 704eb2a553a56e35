package ibc

import (
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

// InstantiateMsg configures the ibc transfer adapter
type InstantiateMsg struct {
	EntryPointContractAddress string `json:"entry_point_contract_address"`
}

// ExecuteMsg is the ibc transfer adapter execute interface
type ExecuteMsg struct {
	IbcTransfer *IbcTransfer `json:"ibc_transfer,omitempty"`
}

// QueryMsg is the ibc transfer adapter query interface
type QueryMsg struct {
	InProgressRecoverAddress *InProgressRecoverAddress `json:"in_progress_recover_address,omitempty"`
}

type InProgressRecoverAddress struct {
	ChannelID  string `json:"channel_id"`
	SequenceID uint64 `json:"sequence_id"`
}

// IbcFee holds the relayer incentives paid on top of a transfer
type IbcFee struct {
	RecvFee    wasm.Coins `json:"recv_fee"`
	AckFee     wasm.Coins `json:"ack_fee"`
	TimeoutFee wasm.Coins `json:"timeout_fee"`
}

// Total sums every fee bucket per denom
func (f IbcFee) Total() wasm.Coins {
	var total wasm.Coins
	for _, bucket := range []wasm.Coins{f.RecvFee, f.AckFee, f.TimeoutFee} {
		for _, c := range bucket {
			total = total.Add(c)
		}
	}
	return total
}

type IbcInfo struct {
	SourceChannel  string `json:"source_channel"`
	Receiver       string `json:"receiver"`
	Fee            IbcFee `json:"fee"`
	Memo           string `json:"memo"`
	RecoverAddress string `json:"recover_address"`
}

// IbcTransfer is both the adapter call and the post swap action payload
type IbcTransfer struct {
	Info             IbcInfo   `json:"info"`
	Coin             wasm.Coin `json:"coin"`
	TimeoutTimestamp uint64    `json:"timeout_timestamp"`
}

func (t IbcTransfer) ToExecuteMsg() ExecuteMsg {
	transfer := t
	return ExecuteMsg{IbcTransfer: &transfer}
}

// IbcLifecycleComplete is delivered by the host once a transfer was acknowledged or timed out
type IbcLifecycleComplete struct {
	IbcAck     *IbcAck     `json:"ibc_ack,omitempty"`
	IbcTimeout *IbcTimeout `json:"ibc_timeout,omitempty"`
}

type IbcAck struct {
	Channel  string `json:"channel"`
	Sequence uint64 `json:"sequence"`
	Ack      string `json:"ack"`
	Success  bool   `json:"success"`
}

type IbcTimeout struct {
	Channel  string `json:"channel"`
	Sequence uint64 `json:"sequence"`
}

// SudoMsg is the privileged message the host sends to the ibc adapter
type SudoMsg struct {
	IbcLifecycleComplete *IbcLifecycleComplete `json:"ibc_lifecycle_complete,omitempty"`
}

// Key identifies an in flight transfer
func (c IbcLifecycleComplete) Key() (channel string, sequence uint64) {
	switch {
	case c.IbcAck != nil:
		return c.IbcAck.Channel, c.IbcAck.Sequence
	case c.IbcTimeout != nil:
		return c.IbcTimeout.Channel, c.IbcTimeout.Sequence
	}
	return "", 0
}

// Failed reports whether the escrowed funds have to be recovered
func (c IbcLifecycleComplete) Failed() bool {
	if c.IbcTimeout != nil {
		return true
	}
	return c.IbcAck != nil && !c.IbcAck.Success
}
