package wasm

import "time"

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is what a contract returns from execute. Messages run in order after
// the call returns, and a failure in any of them reverts the whole transaction.
type Response struct {
	Messages   []SubMsg    `json:"messages"`
	Attributes []Attribute `json:"attributes"`
	Data       []byte      `json:"data,omitempty"`
}

func NewResponse() *Response {
	return &Response{}
}

func (r *Response) AddMessage(msg SubMsg) *Response {
	r.Messages = append(r.Messages, msg)
	return r
}

func (r *Response) AddMessages(msgs ...SubMsg) *Response {
	r.Messages = append(r.Messages, msgs...)
	return r
}

func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// Attribute returns the first attribute value with the given key
func (r *Response) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

type BlockInfo struct {
	Height  int64  `json:"height"`
	Time    uint64 `json:"time"` // unix nanoseconds
	ChainID string `json:"chain_id"`
}

// BlockTime returns the block time as a time.Time
func (b BlockInfo) BlockTime() time.Time {
	return time.Unix(0, int64(b.Time)).UTC()
}

type ContractInfo struct {
	Address string `json:"address"`
}

// Env is the execution environment handed to every contract call
type Env struct {
	Block    BlockInfo    `json:"block"`
	Contract ContractInfo `json:"contract"`
}

// MessageInfo carries the caller and the coins it attached
type MessageInfo struct {
	Sender string `json:"sender"`
	Funds  Coins  `json:"funds"`
}

// OneCoin returns the only coin attached to the call
func (i MessageInfo) OneCoin() (Coin, bool) {
	if len(i.Funds) != 1 || i.Funds[0].IsZero() {
		return Coin{}, false
	}
	return i.Funds[0], true
}
