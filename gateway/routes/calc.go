package routes

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"coversdk/core/premium"
	"coversdk/core/swap"
)

// integer accepts a JSON number or a decimal string.
type integer struct {
	v *big.Int
}

func (i *integer) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(bytes.Trim(bytes.TrimSpace(data), `"`)))
	if raw == "" || raw == "null" {
		i.v = nil
		return nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return fmt.Errorf("invalid integer %q", raw)
	}
	i.v = v
	return nil
}

func (i integer) value() *big.Int {
	if i.v == nil {
		return nil
	}
	return new(big.Int).Set(i.v)
}

type reservesBody struct {
	TokenReserveA integer `json:"tokenReserveA"`
	TokenReserveB integer `json:"tokenReserveB"`
	BaseReserve   integer `json:"baseReserve"`
	Budget        integer `json:"budget"`
}

func (b reservesBody) reserves() *swap.Reserves {
	return &swap.Reserves{
		TokenReserveA: b.TokenReserveA.value(),
		TokenReserveB: b.TokenReserveB.value(),
		BaseReserve:   b.BaseReserve.value(),
		Budget:        b.Budget.value(),
	}
}

type swapRequest struct {
	Amount   integer      `json:"amount"`
	Policy   string       `json:"policy"`
	Reserves reservesBody `json:"reserves"`
}

type swapResponse struct {
	Direction string `json:"direction"`
	Policy    string `json:"policy,omitempty"`
	Amount    string `json:"amount"`
	Result    string `json:"result"`
}

type swapFunc func(*big.Int, *swap.Reserves) (*big.Int, error)

// Strict directions price a fixed side of the trade; token-out and base-out
// follow the request's policy.
var strictDirections = map[string]swapFunc{
	"exact-token-in":  swap.ExactTokenInForBaseOut,
	"exact-base-in":   swap.ExactBaseInForTokenOut,
	"exact-token-out": swap.BaseInForExactTokenOut,
	"exact-base-out":  swap.TokenInForExactBaseOut,
}

func (h *handlers) swap(w http.ResponseWriter, r *http.Request) {
	direction := chi.URLParam(r, "direction")
	var req swapRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	fn, ok := strictDirections[direction]
	policyName := ""
	if !ok {
		policy, err := swap.ParsePolicy(strings.ToLower(strings.TrimSpace(req.Policy)))
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		engine := swap.NewEngine(policy)
		switch direction {
		case "token-out":
			fn = engine.TokenOut
		case "base-out":
			fn = engine.BaseOut
		default:
			writeJSONError(w, http.StatusNotFound, fmt.Errorf("unknown swap direction %q", direction))
			return
		}
		policyName = policy.String()
	}
	result, err := fn(req.Amount.value(), req.Reserves.reserves())
	h.swaps.Record("swap_"+direction, err)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, swapResponse{
		Direction: direction,
		Policy:    policyName,
		Amount:    req.Amount.value().String(),
		Result:    result.String(),
	})
}

type spotPriceRequest struct {
	Reserves reservesBody `json:"reserves"`
}

type spotPriceResponse struct {
	SpotPriceA string `json:"spotPriceA"`
	SpotPriceB string `json:"spotPriceB"`
}

func (h *handlers) spotPrice(w http.ResponseWriter, r *http.Request) {
	var req spotPriceRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	prices, err := swap.SpotPrice(req.Reserves.reserves())
	h.swaps.Record("spot_price", err)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spotPriceResponse{SpotPriceA: prices.A.String(), SpotPriceB: prices.B.String()})
}

type priceImpactRequest struct {
	Side     string       `json:"side"`
	Amount   integer      `json:"amount"`
	Reserves reservesBody `json:"reserves"`
}

type priceImpactResponse struct {
	Side   string `json:"side"`
	Impact string `json:"impact"`
	Scale  int64  `json:"scale"`
}

func (h *handlers) priceImpact(w http.ResponseWriter, r *http.Request) {
	var req priceImpactRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	var (
		impact *big.Int
		scale  int64
		err    error
	)
	side := strings.ToUpper(strings.TrimSpace(req.Side))
	switch side {
	case "A":
		impact, err = swap.PriceImpactA(req.Amount.value(), req.Reserves.reserves())
		scale = swap.PriceImpactScaleA
	case "B":
		impact, err = swap.PriceImpactB(req.Amount.value(), req.Reserves.reserves())
		scale = swap.PriceImpactScaleB
	default:
		writeBadRequest(w, errors.New(`side must be "A" or "B"`))
		return
	}
	h.swaps.Record("price_impact_"+strings.ToLower(side), err)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, priceImpactResponse{Side: side, Impact: impact.String(), Scale: scale})
}

type premiumRequest struct {
	Premium         integer          `json:"premium"`
	AnnualPrice     integer          `json:"annualPrice"`
	ProductID       *uint32          `json:"productId"`
	CommissionRatio *int64           `json:"commissionRatio"`
	Slippage        *decimal.Decimal `json:"slippage"`
}

type premiumResponse struct {
	MaxPremiumInAsset string `json:"maxPremiumInAsset"`
	CommissionRatio   int64  `json:"commissionRatio"`
	SlippageRatio     int64  `json:"slippageRatio"`
	YearlyCostPerc    string `json:"yearlyCostPerc,omitempty"`
}

// premium applies the distributor commission and slippage to a raw premium.
// The commission comes from commissionRatio, else from the product's type,
// else from the catalog default.
func (h *handlers) premium(w http.ResponseWriter, r *http.Request) {
	var req premiumRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	commission := h.catalog.DefaultCommission().Ratio
	switch {
	case req.CommissionRatio != nil:
		commission = *req.CommissionRatio
	case req.ProductID != nil:
		productType, err := h.catalog.ProductTypeOf(*req.ProductID)
		if err != nil {
			writeJSONError(w, http.StatusNotFound, err)
			return
		}
		commission = h.catalog.Commission(productType.ID).Ratio
	}
	slippage := decimal.Zero
	if req.Slippage != nil {
		slippage = *req.Slippage
	}
	slippageRatio, err := premium.SlippageFromFraction(slippage)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	maxPremium, err := premium.WithCommissionAndSlippage(req.Premium.value(), commission, slippageRatio)
	h.swaps.Record("premium", err)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	resp := premiumResponse{
		MaxPremiumInAsset: maxPremium.String(),
		CommissionRatio:   commission,
		SlippageRatio:     slippageRatio,
	}
	if annual := req.AnnualPrice.value(); annual != nil {
		adjusted, err := premium.WithCommissionAndSlippage(annual, commission, slippageRatio)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		resp.YearlyCostPerc = premium.YearlyCostPercentage(adjusted)
	}
	writeJSON(w, http.StatusOK, resp)
}
