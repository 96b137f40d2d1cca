// Package swap implements the constant-product calculations used to price the
// protocol token against the base currency.
//
// The pool holds a single base reserve and two token reserves. Each token
// reserve forms its own x*y=k curve with the base reserve: the A side is used
// when buying tokens with base currency and the B side when selling tokens for
// base currency. The two curves are not interchangeable.
package swap

import (
	"errors"
	"fmt"
	"math/big"

	"coversdk/core/fixedpoint"
)

var (
	// ErrTokenInNonPositive indicates the token input of an exact-in swap was zero or negative.
	ErrTokenInNonPositive = errors.New("token in value must be greater than 0")
	// ErrBaseInNonPositive indicates the base input of an exact-in swap was zero or negative.
	ErrBaseInNonPositive = errors.New("base in value must be greater than 0")
	// ErrTokenOutNonPositive indicates the requested token output was zero or negative.
	ErrTokenOutNonPositive = errors.New("token out value must be greater than 0")
	// ErrBaseOutNonPositive indicates the requested base output was zero or negative.
	ErrBaseOutNonPositive = errors.New("base out value must be greater than 0")
	// ErrCannotSwap indicates the post-trade state would produce a negative output.
	ErrCannotSwap = errors.New("cannot swap this amount")
	// ErrInsufficientLiquidity indicates the requested output exceeds the pool reserve.
	ErrInsufficientLiquidity = errors.New("swap: insufficient liquidity in pool")
	// ErrReservesRequired indicates no reserves snapshot was supplied.
	ErrReservesRequired = errors.New("swap: reserves required")
)

// Reserves is an immutable snapshot of the pool. Budget is informational and
// never used by the swap math.
type Reserves struct {
	TokenReserveA *big.Int `json:"tokenReserveA"`
	TokenReserveB *big.Int `json:"tokenReserveB"`
	BaseReserve   *big.Int `json:"baseReserve"`
	Budget        *big.Int `json:"budget,omitempty"`
}

// Validate ensures all curve reserves are present and non-negative.
func (r *Reserves) Validate() error {
	if r == nil {
		return ErrReservesRequired
	}
	if err := fixedpoint.RequireNonNegative("tokenReserveA", r.TokenReserveA); err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	if err := fixedpoint.RequireNonNegative("tokenReserveB", r.TokenReserveB); err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	if err := fixedpoint.RequireNonNegative("baseReserve", r.BaseReserve); err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	if r.Budget != nil && r.Budget.Sign() < 0 {
		return fmt.Errorf("swap: budget: %w", fixedpoint.ErrNegative)
	}
	return nil
}

// Clone returns a deep copy of the snapshot.
func (r *Reserves) Clone() *Reserves {
	if r == nil {
		return nil
	}
	return &Reserves{
		TokenReserveA: fixedpoint.Clone(r.TokenReserveA),
		TokenReserveB: fixedpoint.Clone(r.TokenReserveB),
		BaseReserve:   fixedpoint.Clone(r.BaseReserve),
		Budget:        fixedpoint.Clone(r.Budget),
	}
}

// Side selects one of the two token curves.
type Side uint8

const (
	// SideA is the curve used when buying tokens.
	SideA Side = iota
	// SideB is the curve used when selling tokens.
	SideB
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

func (r *Reserves) tokenReserve(side Side) *big.Int {
	if side == SideB {
		return r.TokenReserveB
	}
	return r.TokenReserveA
}

// curve captures the reserves of a single side together with its invariant.
type curve struct {
	token *big.Int
	base  *big.Int
	k     *big.Int
}

func (r *Reserves) curve(side Side) (curve, error) {
	if err := r.Validate(); err != nil {
		return curve{}, err
	}
	token := r.tokenReserve(side)
	return curve{
		token: token,
		base:  r.BaseReserve,
		k:     fixedpoint.Mul(token, r.BaseReserve),
	}, nil
}
