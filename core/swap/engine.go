package swap

import (
	"fmt"
	"math/big"

	"coversdk/core/fixedpoint"
)

// ExactTokenInForBaseOut returns the base currency received when selling
// exactly tokenIn tokens. It prices on the B curve and rejects non-positive
// input.
func ExactTokenInForBaseOut(tokenIn *big.Int, reserves *Reserves) (*big.Int, error) {
	if tokenIn == nil {
		return nil, fmt.Errorf("swap: token in: %w", fixedpoint.ErrNil)
	}
	if tokenIn.Sign() <= 0 {
		return nil, ErrTokenInNonPositive
	}
	c, err := reserves.curve(SideB)
	if err != nil {
		return nil, err
	}
	return c.baseOutForTokenIn(tokenIn)
}

// ExactBaseInForTokenOut returns the tokens received when paying exactly
// baseIn base currency. It prices on the A curve and rejects non-positive
// input.
func ExactBaseInForTokenOut(baseIn *big.Int, reserves *Reserves) (*big.Int, error) {
	if baseIn == nil {
		return nil, fmt.Errorf("swap: base in: %w", fixedpoint.ErrNil)
	}
	if baseIn.Sign() <= 0 {
		return nil, ErrBaseInNonPositive
	}
	c, err := reserves.curve(SideA)
	if err != nil {
		return nil, err
	}
	return c.tokenOutForBaseIn(baseIn)
}

// BaseInForExactTokenOut returns the base currency required to buy exactly
// tokenOut tokens on the A curve. Requesting more than the reserve fails with
// ErrInsufficientLiquidity; requesting the whole reserve leaves an empty curve
// and surfaces fixedpoint.ErrDivisionByZero.
func BaseInForExactTokenOut(tokenOut *big.Int, reserves *Reserves) (*big.Int, error) {
	if tokenOut == nil {
		return nil, fmt.Errorf("swap: token out: %w", fixedpoint.ErrNil)
	}
	if tokenOut.Sign() <= 0 {
		return nil, ErrTokenOutNonPositive
	}
	c, err := reserves.curve(SideA)
	if err != nil {
		return nil, err
	}
	return c.baseInForTokenOut(tokenOut)
}

// TokenInForExactBaseOut returns the tokens that must be sold on the B curve to
// receive exactly baseOut base currency. The reserve checks mirror
// BaseInForExactTokenOut.
func TokenInForExactBaseOut(baseOut *big.Int, reserves *Reserves) (*big.Int, error) {
	if baseOut == nil {
		return nil, fmt.Errorf("swap: base out: %w", fixedpoint.ErrNil)
	}
	if baseOut.Sign() <= 0 {
		return nil, ErrBaseOutNonPositive
	}
	c, err := reserves.curve(SideB)
	if err != nil {
		return nil, err
	}
	return c.tokenInForBaseOut(baseOut)
}

func (c curve) baseOutForTokenIn(tokenIn *big.Int) (*big.Int, error) {
	tokenAfter := fixedpoint.Add(c.token, tokenIn)
	baseAfter, err := fixedpoint.Quo(c.k, tokenAfter)
	if err != nil {
		return nil, fmt.Errorf("swap: base out: %w", err)
	}
	out := fixedpoint.Sub(c.base, baseAfter)
	if out.Sign() < 0 {
		return nil, ErrCannotSwap
	}
	return out, nil
}

func (c curve) tokenOutForBaseIn(baseIn *big.Int) (*big.Int, error) {
	baseAfter := fixedpoint.Add(c.base, baseIn)
	tokenAfter, err := fixedpoint.Quo(c.k, baseAfter)
	if err != nil {
		return nil, fmt.Errorf("swap: token out: %w", err)
	}
	out := fixedpoint.Sub(c.token, tokenAfter)
	if out.Sign() < 0 {
		return nil, ErrCannotSwap
	}
	return out, nil
}

func (c curve) baseInForTokenOut(tokenOut *big.Int) (*big.Int, error) {
	if tokenOut.Cmp(c.token) > 0 {
		return nil, ErrInsufficientLiquidity
	}
	tokenAfter := fixedpoint.Sub(c.token, tokenOut)
	baseAfter, err := fixedpoint.Quo(c.k, tokenAfter)
	if err != nil {
		return nil, fmt.Errorf("swap: base in: %w", err)
	}
	return fixedpoint.Sub(baseAfter, c.base), nil
}

func (c curve) tokenInForBaseOut(baseOut *big.Int) (*big.Int, error) {
	if baseOut.Cmp(c.base) > 0 {
		return nil, ErrInsufficientLiquidity
	}
	baseAfter := fixedpoint.Sub(c.base, baseOut)
	tokenAfter, err := fixedpoint.Quo(c.k, baseAfter)
	if err != nil {
		return nil, fmt.Errorf("swap: token in: %w", err)
	}
	return fixedpoint.Sub(tokenAfter, c.token), nil
}
