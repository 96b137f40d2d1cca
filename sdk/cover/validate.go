package cover

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"coversdk/core/address"
	"coversdk/core/content"
	"coversdk/core/fixedpoint"
	"coversdk/core/premium"
	"coversdk/core/products"
)

const (
	// MinimumCoverPeriod is the shortest cover that can be bought, in days.
	MinimumCoverPeriod = 28
	// MaximumCoverPeriod is the longest cover that can be bought, in days.
	MaximumCoverPeriod = 365

	secondsPerDay = 86_400
)

// validated is a request that passed every input check.
type validated struct {
	productID   uint32
	amount      *big.Int
	periodDays  uint32
	asset       products.Asset
	owner       string
	slippage    int64
	ref         ContentRef
	product     products.Product
	productType products.ProductType
	// required is empty when the product type accepts any metadata.
	required content.Type
}

// validate checks the request fields in order and returns the first violation
// as a caller-facing message.
func (o *Orchestrator) validate(req Request) (*validated, string) {
	if req.malformed.has(fieldProductID) || req.ProductID <= 0 || req.ProductID > int64(^uint32(0)) {
		return nil, "Invalid productId: must be a positive integer"
	}
	amount, err := fixedpoint.ParseUnsigned(req.CoverAmount)
	if req.malformed.has(fieldCoverAmount) || err != nil || amount.Sign() <= 0 {
		return nil, "Invalid coverAmount: must be a positive integer string"
	}
	if req.malformed.has(fieldCoverPeriod) || req.CoverPeriod < MinimumCoverPeriod || req.CoverPeriod > MaximumCoverPeriod {
		return nil, fmt.Sprintf("Invalid coverPeriod: must be between %d and %d days", MinimumCoverPeriod, MaximumCoverPeriod)
	}
	asset, ok := o.lookupAsset(req.CoverAsset)
	if req.malformed.has(fieldCoverAsset) || !ok {
		return nil, "Invalid coverAsset: must be one of " + o.assetList()
	}
	if req.malformed.has(fieldCoverBuyerAddress) || !address.Valid(req.CoverBuyerAddress) {
		return nil, "Invalid coverBuyerAddress: must be a valid Ethereum address"
	}
	if req.malformed.has(fieldSlippage) {
		return nil, "Invalid slippage: must be a number between 0 and 1"
	}
	fraction := o.defaultSlippage
	if req.Slippage != nil {
		fraction = *req.Slippage
	}
	slippage, err := premium.SlippageFromFraction(fraction)
	if err != nil {
		return nil, "Invalid slippage: must be a number between 0 and 1"
	}
	ref := req.IPFSCidOrContent
	switch ref.kind {
	case refInvalid:
		return nil, "Invalid ipfsCidOrContent: must be a valid IPFS CID or content object"
	case refCID:
		if !content.IsCID(ref.cid) {
			return nil, "Invalid ipfsCidOrContent: must be a valid IPFS CID or content object"
		}
	}

	productID := uint32(req.ProductID)
	product, ok := o.catalog.Product(productID)
	if !ok {
		return nil, fmt.Sprintf("Invalid productId: product %d not found", productID)
	}
	productType, err := o.catalog.ProductTypeOf(productID)
	if err != nil {
		return nil, fmt.Sprintf("Invalid productId: product %d not found", productID)
	}
	required, _ := o.catalog.RequiredContent(productID)
	if required != "" && ref.IsZero() {
		return nil, fmt.Sprintf("Missing IPFS content for product type %s. Expected content of type %s", productType.Name, required)
	}
	if ref.kind == refContent && required != "" && ref.content.ContentType() != required {
		return nil, fmt.Sprintf("Invalid ipfsCidOrContent: product type %s expects content of type %s", productType.Name, required)
	}

	return &validated{
		productID:   productID,
		amount:      amount,
		periodDays:  uint32(req.CoverPeriod),
		asset:       asset,
		owner:       address.Checksum(req.CoverBuyerAddress),
		slippage:    slippage,
		ref:         ref,
		product:     product,
		productType: productType,
		required:    required,
	}, ""
}

func (o *Orchestrator) lookupAsset(id int64) (products.Asset, bool) {
	if id < 0 || id > int64(^uint32(0)) {
		return products.Asset{}, false
	}
	return o.catalog.Asset(uint32(id))
}

func (o *Orchestrator) assetList() string {
	assets := o.catalog.Assets()
	names := make([]string, 0, len(assets))
	for _, a := range assets {
		names = append(names, fmt.Sprintf("%s (%d)", a.Symbol, a.ID))
	}
	return strings.Join(names, ", ")
}

// periodSeconds converts a cover period in days to seconds.
func periodSeconds(days uint32) uint64 {
	return uint64(days) * secondsPerDay
}

var defaultSlippage = decimal.RequireFromString("0.001")
