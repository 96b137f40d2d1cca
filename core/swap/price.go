package swap

import (
	"fmt"
	"math/big"

	"coversdk/core/fixedpoint"
)

const (
	// PriceImpactScaleA is the scale of PriceImpactA results (parts per million).
	PriceImpactScaleA = 1_000_000
	// PriceImpactScaleB is the scale of PriceImpactB results (basis points).
	PriceImpactScaleB = 10_000
)

// SpotPrices holds the marginal price of one token, in base currency scaled by
// 10^18, on each curve.
type SpotPrices struct {
	A *big.Int `json:"spotPriceA"`
	B *big.Int `json:"spotPriceB"`
}

// SpotPrice returns base*10^18/tokenReserve for both curves.
func SpotPrice(reserves *Reserves) (SpotPrices, error) {
	if err := reserves.Validate(); err != nil {
		return SpotPrices{}, err
	}
	a, err := spotPrice(reserves, SideA)
	if err != nil {
		return SpotPrices{}, err
	}
	b, err := spotPrice(reserves, SideB)
	if err != nil {
		return SpotPrices{}, err
	}
	return SpotPrices{A: a, B: b}, nil
}

// spotPrice prices a single curve; the other token reserve is not read.
func spotPrice(reserves *Reserves, side Side) (*big.Int, error) {
	price, err := fixedpoint.MulDiv(fixedpoint.Unit(), reserves.BaseReserve, reserves.tokenReserve(side))
	if err != nil {
		return nil, fmt.Errorf("swap: spot price %s: %w", side, err)
	}
	return price, nil
}

// PriceImpactA measures how far buying tokens with baseIn moves the execution
// price above the A spot price. The result is expressed in parts per million
// (PriceImpactScaleA), not basis points.
func PriceImpactA(baseIn *big.Int, reserves *Reserves) (*big.Int, error) {
	if err := reserves.Validate(); err != nil {
		return nil, err
	}
	spot, err := spotPrice(reserves, SideA)
	if err != nil {
		return nil, err
	}
	tokenOut, err := ExactBaseInForTokenOut(baseIn, reserves)
	if err != nil {
		return nil, err
	}
	execution, err := fixedpoint.MulDiv(baseIn, fixedpoint.Unit(), tokenOut)
	if err != nil {
		return nil, fmt.Errorf("swap: price impact A: %w", err)
	}
	scale := big.NewInt(PriceImpactScaleA)
	ratio, err := fixedpoint.MulDiv(scale, execution, spot)
	if err != nil {
		return nil, fmt.Errorf("swap: price impact A: %w", err)
	}
	return ratio.Sub(ratio, scale), nil
}

// PriceImpactB measures how far selling tokenIn tokens moves the execution
// price below the B spot price. The result is expressed in basis points
// (PriceImpactScaleB), not parts per million.
func PriceImpactB(tokenIn *big.Int, reserves *Reserves) (*big.Int, error) {
	if err := reserves.Validate(); err != nil {
		return nil, err
	}
	spot, err := spotPrice(reserves, SideB)
	if err != nil {
		return nil, err
	}
	baseOut, err := ExactTokenInForBaseOut(tokenIn, reserves)
	if err != nil {
		return nil, err
	}
	execution, err := fixedpoint.MulDiv(baseOut, fixedpoint.Unit(), tokenIn)
	if err != nil {
		return nil, fmt.Errorf("swap: price impact B: %w", err)
	}
	scale := big.NewInt(PriceImpactScaleB)
	ratio, err := fixedpoint.MulDiv(scale, execution, spot)
	if err != nil {
		return nil, fmt.Errorf("swap: price impact B: %w", err)
	}
	return ratio.Sub(scale, ratio), nil
}
