package swap

import (
	"fmt"
	"math/big"

	"coversdk/core/fixedpoint"
)

// Policy selects how a swap entry point treats non-positive input.
type Policy uint8

const (
	// Strict rejects zero and negative amounts with a domain error.
	Strict Policy = iota
	// Lenient returns zero for zero and negative amounts. Only missing input
	// and arithmetic faults produce errors.
	Lenient
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// ParsePolicy resolves a policy by name.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("swap: unknown policy %q", name)
	}
}

// LenientTokenOut returns the tokens received for baseIn base currency using
// the legacy rules: non-positive input yields zero. Unlike
// ExactBaseInForTokenOut it prices on the B curve.
func LenientTokenOut(baseIn *big.Int, reserves *Reserves) (*big.Int, error) {
	if baseIn == nil {
		return nil, fmt.Errorf("swap: base in: %w", fixedpoint.ErrNil)
	}
	if baseIn.Sign() <= 0 {
		return fixedpoint.Zero(), nil
	}
	c, err := reserves.curve(SideB)
	if err != nil {
		return nil, err
	}
	return c.tokenOutForBaseIn(baseIn)
}

// LenientBaseOut returns the base currency received for tokenIn tokens using
// the legacy rules: non-positive input yields zero. Unlike
// ExactTokenInForBaseOut it prices on the A curve.
func LenientBaseOut(tokenIn *big.Int, reserves *Reserves) (*big.Int, error) {
	if tokenIn == nil {
		return nil, fmt.Errorf("swap: token in: %w", fixedpoint.ErrNil)
	}
	if tokenIn.Sign() <= 0 {
		return fixedpoint.Zero(), nil
	}
	c, err := reserves.curve(SideA)
	if err != nil {
		return nil, err
	}
	return c.baseOutForTokenIn(tokenIn)
}

// Engine binds a policy so callers choose the input rules once.
type Engine struct {
	Policy Policy
}

// NewEngine returns an engine bound to the supplied policy.
func NewEngine(policy Policy) Engine {
	return Engine{Policy: policy}
}

// TokenOut returns the tokens received for baseIn base currency.
func (e Engine) TokenOut(baseIn *big.Int, reserves *Reserves) (*big.Int, error) {
	if e.Policy == Lenient {
		return LenientTokenOut(baseIn, reserves)
	}
	return ExactBaseInForTokenOut(baseIn, reserves)
}

// BaseOut returns the base currency received for tokenIn tokens.
func (e Engine) BaseOut(tokenIn *big.Int, reserves *Reserves) (*big.Int, error) {
	if e.Policy == Lenient {
		return LenientBaseOut(tokenIn, reserves)
	}
	return ExactTokenInForBaseOut(tokenIn, reserves)
}
