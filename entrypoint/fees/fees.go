package fees

import (
	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

// MaxBasisPoints is 100%
const MaxBasisPoints = 10_000

var maxBasisPoints = math.NewInt(MaxBasisPoints)

// Affiliate is a fee recipient entitled to a share of the swap output
type Affiliate struct {
	Address        string   `json:"address"`
	BasisPointsFee math.Int `json:"basis_points_fee"`
}

func NewAffiliate(address string, bps int64) Affiliate {
	return Affiliate{Address: address, BasisPointsFee: math.NewInt(bps)}
}

// Payout is one computed affiliate transfer
type Payout struct {
	Address string
	Coin    wasm.Coin
}

// ValidateAffiliates rejects any fee outside 0..10000. The total is not capped,
// a list that asks for more than the swap yields fails at the bank send.
func ValidateAffiliates(affiliates []Affiliate) error {
	for _, a := range affiliates {
		bps := a.BasisPointsFee
		if bps.IsNil() || bps.IsNegative() || bps.GT(maxBasisPoints) {
			return ErrInvalidBasisPoints.Wrapf("affiliate %s: %s", a.Address, bps)
		}
	}
	return nil
}

// AffiliateFee is floor(amount * bps / 10000)
func AffiliateFee(amount, bps math.Int) (math.Int, error) {
	product, err := amount.SafeMul(bps)
	if err != nil {
		return math.Int{}, &OverflowError{
			Operation: OverflowMul,
			Operand1:  amount.String(),
			Operand2:  bps.String(),
		}
	}
	return product.Quo(maxBasisPoints), nil
}

// AffiliatePayouts computes every affiliate share against the same base amount,
// never against a running residual. Zero shares are skipped. The second value
// is base minus every payout, negative when the fees add up to more than 100%.
func AffiliatePayouts(base wasm.Coin, affiliates []Affiliate) ([]Payout, math.Int, error) {
	if err := ValidateAffiliates(affiliates); err != nil {
		return nil, math.Int{}, err
	}

	residual := base.Amount
	payouts := make([]Payout, 0, len(affiliates))
	for _, a := range affiliates {
		fee, err := AffiliateFee(base.Amount, a.BasisPointsFee)
		if err != nil {
			return nil, math.Int{}, err
		}
		if fee.IsZero() {
			continue
		}
		payouts = append(payouts, Payout{
			Address: a.Address,
			Coin:    wasm.NewCoin(base.Denom, fee),
		})
		residual = residual.Sub(fee)
	}
	return payouts, residual, nil
}

// Refund returns remaining - required. A required amount above the remaining
// one means the caller handed in an inconsistent balance and is an error, it is
// never clamped to zero.
func Refund(remaining, required math.Int) (math.Int, error) {
	if required.GT(remaining) {
		return math.Int{}, &OverflowError{
			Operation: OverflowSub,
			Operand1:  remaining.String(),
			Operand2:  required.String(),
		}
	}
	return remaining.Sub(required), nil
}
