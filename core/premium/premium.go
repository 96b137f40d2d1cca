// Package premium applies distributor commission and buyer slippage to cover
// premiums. Ratios are integers over Denominator (10_000 = 100.00%).
package premium

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"coversdk/core/fixedpoint"
)

const (
	// Denominator is the scale of commission and slippage ratios.
	Denominator = 10_000
	// TargetPriceDenominator is the scale of annual prices returned by the pricing service.
	TargetPriceDenominator = 10_000
)

var (
	// ErrInvalidCommission indicates a commission ratio outside [0, Denominator).
	ErrInvalidCommission = errors.New("premium: commission ratio must be in [0, 10000)")
	// ErrInvalidSlippage indicates a negative slippage ratio or a fraction outside [0, 1].
	ErrInvalidSlippage = errors.New("premium: invalid slippage")
	// ErrNegativePremium indicates the base premium was negative.
	ErrNegativePremium = errors.New("premium: premium must not be negative")
)

// WithCommissionAndSlippage grosses the premium up so that the commission is
// carved out of the total, then adds the slippage allowance:
//
//	withCommission = premium * 10000 / (10000 - commission)
//	result         = withCommission * (10000 + slippage) / 10000
//
// Both divisions truncate.
func WithCommissionAndSlippage(premium *big.Int, commissionRatio, slippageRatio int64) (*big.Int, error) {
	if premium == nil {
		return nil, fmt.Errorf("premium: %w", fixedpoint.ErrNil)
	}
	if premium.Sign() < 0 {
		return nil, ErrNegativePremium
	}
	if commissionRatio < 0 || commissionRatio >= Denominator {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCommission, commissionRatio)
	}
	if slippageRatio < 0 {
		return nil, fmt.Errorf("%w: ratio %d", ErrInvalidSlippage, slippageRatio)
	}
	denom := big.NewInt(Denominator)
	withCommission, err := fixedpoint.MulDiv(premium, denom, big.NewInt(Denominator-commissionRatio))
	if err != nil {
		return nil, fmt.Errorf("premium: commission: %w", err)
	}
	result, err := fixedpoint.MulDiv(withCommission, big.NewInt(Denominator+slippageRatio), denom)
	if err != nil {
		return nil, fmt.Errorf("premium: slippage: %w", err)
	}
	return result, nil
}

// SlippageFromFraction converts a fractional slippage in [0, 1] into the
// Denominator scale, truncating any precision below one basis point.
func SlippageFromFraction(fraction decimal.Decimal) (int64, error) {
	if fraction.IsNegative() || fraction.GreaterThan(decimal.NewFromInt(1)) {
		return 0, fmt.Errorf("%w: fraction %s outside [0, 1]", ErrInvalidSlippage, fraction)
	}
	return fraction.Mul(decimal.NewFromInt(Denominator)).Truncate(0).IntPart(), nil
}

// YearlyCostPercentage renders an annual price expressed over
// TargetPriceDenominator as a percentage with two decimals ("2.50").
func YearlyCostPercentage(annualPrice *big.Int) string {
	if annualPrice == nil {
		return "0.00"
	}
	pct := decimal.NewFromBigInt(annualPrice, 0).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(TargetPriceDenominator))
	return pct.StringFixed(2)
}
