package swap

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"coversdk/core/fixedpoint"
)

func TestSpotPrice(t *testing.T) {
	reserves := &Reserves{
		TokenReserveA: ether(2),
		TokenReserveB: ether(5),
		BaseReserve:   ether(10),
	}
	spot, err := SpotPrice(reserves)
	require.NoError(t, err)
	require.Equal(t, ether(5).String(), spot.A.String())
	require.Equal(t, ether(2).String(), spot.B.String())
}

func TestSpotPriceRegression(t *testing.T) {
	spot, err := SpotPrice(regressionReserves())
	require.NoError(t, err)
	require.Equal(t, "34999677984171963", spot.A.String())
	require.Equal(t, "15206016171270656", spot.B.String())
}

func TestSpotPriceEmptyCurve(t *testing.T) {
	reserves := &Reserves{
		TokenReserveA: big.NewInt(0),
		TokenReserveB: ether(5),
		BaseReserve:   ether(10),
	}
	_, err := SpotPrice(reserves)
	require.ErrorIs(t, err, fixedpoint.ErrDivisionByZero)
}

func TestPriceImpactScales(t *testing.T) {
	reserves := regressionReserves()

	// A side is reported in parts per million.
	impactA, err := PriceImpactA(ether(1), reserves)
	require.NoError(t, err)
	require.Equal(t, int64(200), impactA.Int64())

	impactA, err = PriceImpactA(ether(100), reserves)
	require.NoError(t, err)
	require.Equal(t, int64(20000), impactA.Int64())

	// B side is reported in basis points.
	impactB, err := PriceImpactB(ether(1), reserves)
	require.NoError(t, err)
	require.Equal(t, int64(1), impactB.Int64())

	impactB, err = PriceImpactB(ether(1000), reserves)
	require.NoError(t, err)
	require.Equal(t, int64(31), impactB.Int64())
}

func TestPriceImpactRejectsNonPositive(t *testing.T) {
	reserves := regressionReserves()
	_, err := PriceImpactA(big.NewInt(0), reserves)
	require.ErrorIs(t, err, ErrBaseInNonPositive)
	_, err = PriceImpactB(big.NewInt(-1), reserves)
	require.ErrorIs(t, err, ErrTokenInNonPositive)
}

func TestPriceImpactEmptyCurveSurfacesDivision(t *testing.T) {
	reserves := &Reserves{
		TokenReserveA: big.NewInt(0),
		TokenReserveB: big.NewInt(1),
		BaseReserve:   ether(1000),
	}
	_, err := PriceImpactA(big.NewInt(1), reserves)
	require.ErrorIs(t, err, fixedpoint.ErrDivisionByZero)
}

func TestPriceImpactReadsOnlyItsCurve(t *testing.T) {
	reserves := &Reserves{
		TokenReserveA: ether(100),
		TokenReserveB: big.NewInt(0),
		BaseReserve:   ether(10),
	}
	_, err := ExactBaseInForTokenOut(ether(1), reserves)
	require.NoError(t, err)
	impact, err := PriceImpactA(ether(1), reserves)
	require.NoError(t, err)
	require.Positive(t, impact.Sign())

	_, err = SpotPrice(reserves)
	require.ErrorIs(t, err, fixedpoint.ErrDivisionByZero)

	reserves = &Reserves{
		TokenReserveA: big.NewInt(0),
		TokenReserveB: ether(100),
		BaseReserve:   ether(10),
	}
	impact, err = PriceImpactB(ether(1), reserves)
	require.NoError(t, err)
	require.Positive(t, impact.Sign())
}
