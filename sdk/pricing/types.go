package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"coversdk/core/fixedpoint"
)

// NotEnoughCapacityMessage is the error the API returns when the pools cannot
// underwrite the requested amount.
const NotEnoughCapacityMessage = "Not enough capacity for the cover amount"

// Amount is a non-negative integer carried as a decimal string on the wire.
type Amount struct {
	v *big.Int
}

// NewAmount wraps a copy of v.
func NewAmount(v *big.Int) Amount {
	return Amount{v: fixedpoint.Clone(v)}
}

// Int returns a copy of the amount; the zero Amount yields 0.
func (a Amount) Int() *big.Int {
	if a.v == nil {
		return fixedpoint.Zero()
	}
	return new(big.Int).Set(a.v)
}

// IsZeroValue reports whether the amount was never set.
func (a Amount) IsZeroValue() bool { return a.v == nil }

func (a Amount) String() string {
	if a.v == nil {
		return "0"
	}
	return a.v.String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		a.v = nil
		return nil
	}
	raw = strings.Trim(raw, `"`)
	v, err := fixedpoint.ParseUnsigned(raw)
	if err != nil {
		return fmt.Errorf("amount %q: %w", raw, err)
	}
	a.v = v
	return nil
}

// PoolAllocationRequest is a slice of the cover routed to one staking pool.
type PoolAllocationRequest struct {
	PoolID                uint32 `json:"poolId"`
	CoverAmountInAsset    Amount `json:"coverAmountInAsset"`
	SkipMinPoolAllocation bool   `json:"skip"`
}

// Quote is the priced cover returned by the API.
type Quote struct {
	TotalCoverAmountInAsset Amount                  `json:"totalCoverAmountInAsset"`
	AnnualPrice             Amount                  `json:"annualPrice"`
	PremiumInNXM            Amount                  `json:"premiumInNXM"`
	PremiumInAsset          Amount                  `json:"premiumInAsset"`
	PoolAllocationRequests  []PoolAllocationRequest `json:"poolAllocationRequests"`
}

// AssetAmount pairs an asset identifier with an amount of it.
type AssetAmount struct {
	AssetID uint32 `json:"assetId"`
	Amount  Amount `json:"amount"`
}

// PoolCapacity is the capacity one pool offers for the quoted product.
type PoolCapacity struct {
	PoolID   uint32        `json:"poolId"`
	Capacity []AssetAmount `json:"capacity"`
}

// QuoteResponse is the body of GET /quote.
type QuoteResponse struct {
	Quote      *Quote         `json:"quote"`
	Capacities []PoolCapacity `json:"capacities"`
}

// Capacity is the body of GET /capacity/{productId}.
type Capacity struct {
	ProductID         uint32        `json:"productId"`
	AvailableCapacity []AssetAmount `json:"availableCapacity"`
	AllocatedNXM      Amount        `json:"allocatedNxm"`
	MinAnnualPrice    string        `json:"minAnnualPrice,omitempty"`
	MaxAnnualPrice    string        `json:"maxAnnualPrice,omitempty"`
}

// ForAsset returns the available capacity denominated in assetID.
func (c *Capacity) ForAsset(assetID uint32) (*big.Int, bool) {
	if c == nil {
		return nil, false
	}
	for _, entry := range c.AvailableCapacity {
		if entry.AssetID == assetID {
			return entry.Amount.Int(), true
		}
	}
	return nil, false
}

// SumPoolCapacities adds every capacity entry of every pool.
func SumPoolCapacities(pools []PoolCapacity) *big.Int {
	total := fixedpoint.Zero()
	for _, pool := range pools {
		for _, entry := range pool.Capacity {
			if entry.Amount.v != nil {
				total.Add(total, entry.Amount.v)
			}
		}
	}
	return total
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pricing api %d", e.Status)
	}
	return fmt.Sprintf("pricing api %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
		return apiErr
	}
	apiErr.Message = string(bytes.TrimSpace(body))
	return apiErr
}

// IsNotEnoughCapacity reports whether err carries the insufficient capacity signature.
func IsNotEnoughCapacity(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Message == NotEnoughCapacityMessage
}
