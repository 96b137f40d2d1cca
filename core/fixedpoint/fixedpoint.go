// Package fixedpoint provides the integer arithmetic used by every money
// calculation in the SDK. Quantities are arbitrary-precision signed integers
// and division truncates toward zero. Inputs are never mutated.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/params"
	"github.com/shopspring/decimal"
)

var (
	// ErrDivisionByZero indicates a ratio was computed against a zero denominator.
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")
	// ErrNil indicates a required amount was not supplied.
	ErrNil = errors.New("fixedpoint: amount required")
	// ErrNegative indicates a magnitude was supplied as a negative number.
	ErrNegative = errors.New("fixedpoint: amount must not be negative")
	// ErrNonPositive indicates an amount that must be strictly positive was zero or negative.
	ErrNonPositive = errors.New("fixedpoint: amount must be greater than zero")
	// ErrInvalidInteger indicates a string could not be parsed as an unsigned integer.
	ErrInvalidInteger = errors.New("fixedpoint: invalid unsigned integer")
)

// EtherDecimals is the number of fractional digits carried by ether denominated amounts.
const EtherDecimals = 18

var (
	unsignedPattern = regexp.MustCompile(`^[0-9]+$`)
	ether           = big.NewInt(params.Ether)
)

// Unit returns a fresh copy of the 10^18 fixed-point unit.
func Unit() *big.Int {
	return new(big.Int).Set(ether)
}

// Zero returns a freshly allocated zero value.
func Zero() *big.Int {
	return new(big.Int)
}

// Clone returns a copy of v, or nil when v is nil.
func Clone(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// Quo returns a/b truncated toward zero.
func Quo(a, b *big.Int) (*big.Int, error) {
	if a == nil || b == nil {
		return nil, ErrNil
	}
	if b.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	return new(big.Int).Quo(a, b), nil
}

// MulDiv returns a*b/d truncated toward zero. The product is computed at full
// precision before dividing.
func MulDiv(a, b, d *big.Int) (*big.Int, error) {
	if a == nil || b == nil || d == nil {
		return nil, ErrNil
	}
	if d.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, d), nil
}

// Mul returns a*b.
func Mul(a, b *big.Int) *big.Int {
	return new(big.Int).Mul(a, b)
}

// Add returns a+b.
func Add(a, b *big.Int) *big.Int {
	return new(big.Int).Add(a, b)
}

// Sub returns a-b.
func Sub(a, b *big.Int) *big.Int {
	return new(big.Int).Sub(a, b)
}

// RequirePositive rejects nil, zero and negative amounts. The name is used in
// the returned error to identify the offending argument.
func RequirePositive(name string, v *big.Int) error {
	if v == nil {
		return fmt.Errorf("%s: %w", name, ErrNil)
	}
	if v.Sign() <= 0 {
		return fmt.Errorf("%s: %w", name, ErrNonPositive)
	}
	return nil
}

// RequireNonNegative rejects nil and negative amounts.
func RequireNonNegative(name string, v *big.Int) error {
	if v == nil {
		return fmt.Errorf("%s: %w", name, ErrNil)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("%s: %w", name, ErrNegative)
	}
	return nil
}

// IsUnsignedInteger reports whether s is a plain base-10 unsigned integer
// without sign, whitespace or separators.
func IsUnsignedInteger(s string) bool {
	return unsignedPattern.MatchString(s)
}

// ParseUnsigned parses a base-10 unsigned integer string.
func ParseUnsigned(s string) (*big.Int, error) {
	if !IsUnsignedInteger(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInteger, s)
	}
	value, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInteger, s)
	}
	return value, nil
}

// MustParseUnsigned is like ParseUnsigned but panics on malformed input. It is
// intended for package level constants and test fixtures.
func MustParseUnsigned(s string) *big.Int {
	value, err := ParseUnsigned(s)
	if err != nil {
		panic(err)
	}
	return value
}

// ParseEther converts a decimal ether amount ("1.5") into wei. Amounts with
// more than 18 fractional digits are rejected rather than rounded.
func ParseEther(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty ether amount", ErrInvalidInteger)
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse ether amount %q: %w", s, err)
	}
	if amount.Exponent() < -EtherDecimals {
		return nil, fmt.Errorf("ether amount %q exceeds %d decimals", s, EtherDecimals)
	}
	return amount.Shift(EtherDecimals).BigInt(), nil
}

// MustParseEther is like ParseEther but panics on malformed input.
func MustParseEther(s string) *big.Int {
	value, err := ParseEther(s)
	if err != nil {
		panic(err)
	}
	return value
}

// FormatEther renders a wei amount as a decimal ether string without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals).String()
}

// Sum adds all values, treating nil entries as zero.
func Sum(values ...*big.Int) *big.Int {
	total := new(big.Int)
	for _, v := range values {
		if v == nil {
			continue
		}
		total.Add(total, v)
	}
	return total
}
