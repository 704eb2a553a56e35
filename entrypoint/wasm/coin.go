package wasm

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"cosmossdk.io/math"
)

var ErrInvalidCoin = errors.New("invalid coin")

// Coin is a single denom amount pair, encoded the way cosmwasm encodes it:
// {"denom":"untrn","amount":"1000000"}
type Coin struct {
	Denom  string   `json:"denom"`
	Amount math.Int `json:"amount"`
}

// NewCoin creates a coin, a nil amount is treated as zero
func NewCoin(denom string, amount math.Int) Coin {
	if amount.IsNil() {
		amount = math.ZeroInt()
	}
	return Coin{Denom: denom, Amount: amount}
}

// NewInt64Coin is a shorthand used mostly by tests and fixtures
func NewInt64Coin(denom string, amount int64) Coin {
	return Coin{Denom: denom, Amount: math.NewInt(amount)}
}

func (c Coin) IsZero() bool {
	return c.Amount.IsNil() || c.Amount.IsZero()
}

// MaxAmountBits bounds amounts to an unsigned 128 bit integer
const MaxAmountBits = 128

// Validate checks the denom is set and the amount fits a Uint128
func (c Coin) Validate() error {
	if strings.TrimSpace(c.Denom) == "" {
		return fmt.Errorf("%w: denom is empty", ErrInvalidCoin)
	}
	if c.Amount.IsNil() {
		return fmt.Errorf("%w: %s has no amount", ErrInvalidCoin, c.Denom)
	}
	if c.Amount.IsNegative() {
		return fmt.Errorf("%w: %s has negative amount %s", ErrInvalidCoin, c.Denom, c.Amount)
	}
	if c.Amount.BigInt().BitLen() > MaxAmountBits {
		return fmt.Errorf("%w: %s amount %s exceeds %d bits", ErrInvalidCoin, c.Denom, c.Amount, MaxAmountBits)
	}
	return nil
}

func (c Coin) String() string {
	if c.Amount.IsNil() {
		return "0" + c.Denom
	}
	return c.Amount.String() + c.Denom
}

// Equal compares denom and amount, nil amounts compare as zero
func (c Coin) Equal(other Coin) bool {
	if c.Denom != other.Denom {
		return false
	}
	return amountOrZero(c.Amount).Equal(amountOrZero(other.Amount))
}

func amountOrZero(i math.Int) math.Int {
	if i.IsNil() {
		return math.ZeroInt()
	}
	return i
}

// Coins is a set of coins kept sorted by denom with at most one entry per denom
type Coins []Coin

// NewCoins builds a normalized set, merging duplicates and dropping zero amounts
func NewCoins(coins ...Coin) Coins {
	var out Coins
	for _, c := range coins {
		out = out.Add(c)
	}
	return out
}

// Add returns a new set with the coin merged in
func (cs Coins) Add(c Coin) Coins {
	if c.IsZero() {
		return cs
	}
	out := make(Coins, 0, len(cs)+1)
	merged := false
	for _, existing := range cs {
		if existing.Denom == c.Denom {
			out = append(out, NewCoin(existing.Denom, existing.Amount.Add(c.Amount)))
			merged = true
			continue
		}
		out = append(out, existing)
	}
	if !merged {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Denom < out[j].Denom })
	return out
}

// SafeSub removes the coin from the set, failing when the set holds less than requested
func (cs Coins) SafeSub(c Coin) (Coins, error) {
	if c.IsZero() {
		return cs, nil
	}
	have := cs.AmountOf(c.Denom)
	if have.LT(c.Amount) {
		return nil, fmt.Errorf("insufficient funds: have %s%s, need %s", have, c.Denom, c)
	}
	out := make(Coins, 0, len(cs))
	for _, existing := range cs {
		if existing.Denom != c.Denom {
			out = append(out, existing)
			continue
		}
		left := existing.Amount.Sub(c.Amount)
		if !left.IsZero() {
			out = append(out, NewCoin(existing.Denom, left))
		}
	}
	return out, nil
}

func (cs Coins) AmountOf(denom string) math.Int {
	for _, c := range cs {
		if c.Denom == denom {
			return c.Amount
		}
	}
	return math.ZeroInt()
}

func (cs Coins) IsZero() bool {
	for _, c := range cs {
		if !c.IsZero() {
			return false
		}
	}
	return true
}

// Clone returns a deep enough copy, math.Int values are immutable
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	out := make(Coins, len(cs))
	copy(out, cs)
	return out
}

func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
