package swap

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"coversdk/core/fixedpoint"
)

func regressionReserves() *Reserves {
	return &Reserves{
		TokenReserveA: fixedpoint.MustParseUnsigned("142858457219554100789497"),
		TokenReserveB: fixedpoint.MustParseUnsigned("328817222320643252285179"),
		BaseReserve:   fixedpoint.MustParseUnsigned("5000000000000000000000"),
		Budget:        big.NewInt(0),
	}
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), fixedpoint.Unit())
}

func TestExactBaseInForTokenOutRegression(t *testing.T) {
	out, err := ExactBaseInForTokenOut(ether(1), regressionReserves())
	require.NoError(t, err)
	require.Equal(t, "28565978248261167925", out.String())
}

func TestExactTokenInForBaseOutRegression(t *testing.T) {
	out, err := ExactTokenInForBaseOut(ether(1), regressionReserves())
	require.NoError(t, err)
	require.Equal(t, "15205969926825736", out.String())
}

func TestExactOutRegression(t *testing.T) {
	reserves := regressionReserves()

	baseIn, err := BaseInForExactTokenOut(ether(1), reserves)
	require.NoError(t, err)
	require.Equal(t, "34999922981378727", baseIn.String())

	tokenIn, err := TokenInForExactBaseOut(ether(1), reserves)
	require.NoError(t, err)
	require.Equal(t, "65776599784085467550", tokenIn.String())
}

func TestStrictFamilyRejectsNonPositiveInput(t *testing.T) {
	reserves := regressionReserves()
	for _, amount := range []*big.Int{big.NewInt(0), big.NewInt(-1)} {
		_, err := ExactTokenInForBaseOut(amount, reserves)
		require.ErrorIs(t, err, ErrTokenInNonPositive)
		require.EqualError(t, err, "token in value must be greater than 0")

		_, err = ExactBaseInForTokenOut(amount, reserves)
		require.ErrorIs(t, err, ErrBaseInNonPositive)

		_, err = BaseInForExactTokenOut(amount, reserves)
		require.ErrorIs(t, err, ErrTokenOutNonPositive)

		_, err = TokenInForExactBaseOut(amount, reserves)
		require.ErrorIs(t, err, ErrBaseOutNonPositive)
	}
	_, err := ExactTokenInForBaseOut(nil, reserves)
	require.ErrorIs(t, err, fixedpoint.ErrNil)
}

func TestBaseInForExactTokenOutLiquidityBounds(t *testing.T) {
	reserves := regressionReserves()

	_, err := BaseInForExactTokenOut(fixedpoint.Clone(reserves.TokenReserveA), reserves)
	require.ErrorIs(t, err, fixedpoint.ErrDivisionByZero)

	tooMuch := fixedpoint.Add(reserves.TokenReserveA, big.NewInt(1))
	_, err = BaseInForExactTokenOut(tooMuch, reserves)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestTokenInForExactBaseOutLiquidityBounds(t *testing.T) {
	reserves := regressionReserves()

	_, err := TokenInForExactBaseOut(fixedpoint.Clone(reserves.BaseReserve), reserves)
	require.ErrorIs(t, err, fixedpoint.ErrDivisionByZero)

	tooMuch := fixedpoint.Add(reserves.BaseReserve, big.NewInt(1))
	_, err = TokenInForExactBaseOut(tooMuch, reserves)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestCalculationsDoNotMutateReserves(t *testing.T) {
	reserves := regressionReserves()
	before := reserves.Clone()
	amount := ether(3)

	_, err := ExactBaseInForTokenOut(amount, reserves)
	require.NoError(t, err)
	_, err = ExactTokenInForBaseOut(amount, reserves)
	require.NoError(t, err)
	_, err = BaseInForExactTokenOut(amount, reserves)
	require.NoError(t, err)
	_, err = TokenInForExactBaseOut(amount, reserves)
	require.NoError(t, err)
	_, err = PriceImpactA(amount, reserves)
	require.NoError(t, err)

	require.Zero(t, before.TokenReserveA.Cmp(reserves.TokenReserveA))
	require.Zero(t, before.TokenReserveB.Cmp(reserves.TokenReserveB))
	require.Zero(t, before.BaseReserve.Cmp(reserves.BaseReserve))
	require.Equal(t, "3000000000000000000", amount.String())
}

func TestInvalidReservesRejected(t *testing.T) {
	_, err := ExactBaseInForTokenOut(ether(1), nil)
	require.ErrorIs(t, err, ErrReservesRequired)

	reserves := regressionReserves()
	reserves.BaseReserve = big.NewInt(-5)
	_, err = ExactBaseInForTokenOut(ether(1), reserves)
	require.ErrorIs(t, err, fixedpoint.ErrNegative)

	reserves = regressionReserves()
	reserves.TokenReserveB = nil
	_, err = ExactTokenInForBaseOut(ether(1), reserves)
	require.ErrorIs(t, err, fixedpoint.ErrNil)
}

func TestRoundTripWithinTruncation(t *testing.T) {
	reserves := regressionReserves()
	for _, amount := range []*big.Int{big.NewInt(1), ether(1), ether(250), fixedpoint.MustParseUnsigned("123456789012345678901")} {
		tokenOut, err := ExactBaseInForTokenOut(amount, reserves)
		require.NoError(t, err)
		back, err := BaseInForExactTokenOut(tokenOut, reserves)
		require.NoError(t, err)
		diff := fixedpoint.Sub(back, amount)
		require.True(t, diff.Sign() >= 0 && diff.Cmp(big.NewInt(1)) <= 0, "amount %s round-tripped to %s", amount, back)
	}
}

func TestRoundTripProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randomAmount := func(maxExp int) *big.Int {
		exp := big.NewInt(int64(rng.Intn(maxExp) + 1))
		upper := new(big.Int).Exp(big.NewInt(10), exp, nil)
		v := new(big.Int).Rand(rng, upper)
		return v.Add(v, big.NewInt(1))
	}
	for i := 0; i < 200; i++ {
		reserves := &Reserves{
			TokenReserveA: fixedpoint.Add(randomAmount(27), ether(1)),
			TokenReserveB: fixedpoint.Add(randomAmount(27), ether(1)),
			BaseReserve:   fixedpoint.Add(randomAmount(25), ether(1)),
		}
		baseIn := randomAmount(22)
		tokenOut, err := ExactBaseInForTokenOut(baseIn, reserves)
		require.NoError(t, err)
		if tokenOut.Sign() == 0 {
			continue
		}
		back, err := BaseInForExactTokenOut(tokenOut, reserves)
		require.NoError(t, err)
		require.True(t, back.Cmp(baseIn) >= 0, "round trip undershot: %s < %s", back, baseIn)
		require.True(t, fixedpoint.Sub(back, baseIn).Cmp(truncationBound(reserves.BaseReserve, baseIn, reserves.TokenReserveA)) <= 0,
			"round trip of %s drifted to %s", baseIn, back)

		tokenIn := randomAmount(22)
		baseOut, err := ExactTokenInForBaseOut(tokenIn, reserves)
		require.NoError(t, err)
		if baseOut.Sign() == 0 {
			continue
		}
		tokenBack, err := TokenInForExactBaseOut(baseOut, reserves)
		require.NoError(t, err)
		require.True(t, tokenBack.Cmp(tokenIn) >= 0)
		require.True(t, fixedpoint.Sub(tokenBack, tokenIn).Cmp(truncationBound(reserves.TokenReserveB, tokenIn, reserves.BaseReserve)) <= 0)
	}
}

// truncationBound is the largest drift one unit of output truncation can cause
// on the input side: ceil((in reserve after trade) / (out reserve after trade)).
func truncationBound(inReserve, amountIn, outReserve *big.Int) *big.Int {
	after := fixedpoint.Add(inReserve, amountIn)
	k := fixedpoint.Mul(inReserve, outReserve)
	outAfter := new(big.Int).Quo(k, after)
	if outAfter.Sign() == 0 {
		return after
	}
	bound := new(big.Int).Quo(after, outAfter)
	return bound.Add(bound, big.NewInt(1))
}

func TestCannotSwapSentinel(t *testing.T) {
	c := curve{token: big.NewInt(10), base: big.NewInt(10), k: big.NewInt(1000)}
	_, err := c.baseOutForTokenIn(big.NewInt(1))
	if !errors.Is(err, ErrCannotSwap) {
		t.Fatalf("expected cannot swap, got %v", err)
	}
}
