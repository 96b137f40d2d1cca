package cover

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"coversdk/core/content"
	"coversdk/sdk/pricing"
)

// Request is a cover purchase to price. CoverPeriod is in days and Slippage is
// a fraction in [0, 1]; a nil Slippage means the orchestrator default.
type Request struct {
	ProductID         int64            `json:"productId"`
	CoverAmount       string           `json:"coverAmount"`
	CoverPeriod       int64            `json:"coverPeriod"`
	CoverAsset        int64            `json:"coverAsset"`
	CoverBuyerAddress string           `json:"coverBuyerAddress"`
	Slippage          *decimal.Decimal `json:"slippage,omitempty"`
	IPFSCidOrContent  ContentRef       `json:"ipfsCidOrContent,omitempty"`

	// malformed marks fields whose JSON value had the wrong type.
	malformed fieldSet
}

type fieldSet uint8

const (
	fieldProductID fieldSet = 1 << iota
	fieldCoverAmount
	fieldCoverPeriod
	fieldCoverAsset
	fieldCoverBuyerAddress
	fieldSlippage
)

func (f fieldSet) has(field fieldSet) bool { return f&field != 0 }

// UnmarshalJSON decodes a request without failing on mistyped fields. Those
// are rejected during validation with the same message as an out of range
// value. Unknown fields and non-object documents are errors.
func (r *Request) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("request must be a JSON object")
	}
	var wire struct {
		ProductID         json.RawMessage `json:"productId"`
		CoverAmount       json.RawMessage `json:"coverAmount"`
		CoverPeriod       json.RawMessage `json:"coverPeriod"`
		CoverAsset        json.RawMessage `json:"coverAsset"`
		CoverBuyerAddress json.RawMessage `json:"coverBuyerAddress"`
		Slippage          json.RawMessage `json:"slippage"`
		IPFSCidOrContent  ContentRef      `json:"ipfsCidOrContent"`
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return err
	}

	out := Request{IPFSCidOrContent: wire.IPFSCidOrContent}
	fields := []struct {
		raw   json.RawMessage
		dst   any
		field fieldSet
	}{
		{wire.ProductID, &out.ProductID, fieldProductID},
		{wire.CoverAmount, &out.CoverAmount, fieldCoverAmount},
		{wire.CoverPeriod, &out.CoverPeriod, fieldCoverPeriod},
		{wire.CoverAsset, &out.CoverAsset, fieldCoverAsset},
		{wire.CoverBuyerAddress, &out.CoverBuyerAddress, fieldCoverBuyerAddress},
	}
	for _, f := range fields {
		if isAbsent(f.raw) {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			out.malformed |= f.field
		}
	}
	if !isAbsent(wire.Slippage) {
		var d decimal.Decimal
		if err := json.Unmarshal(wire.Slippage, &d); err != nil {
			out.malformed |= fieldSlippage
		} else {
			out.Slippage = &d
		}
	}
	*r = out
	return nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Response carries either Result or Error, never both.
type Response struct {
	Result *PurchaseInstruction `json:"result,omitempty"`
	Error  *Error               `json:"error,omitempty"`
}

// Error is a caller-facing failure. Data is set when the failure carries
// additional context such as the capacity still available.
type Error struct {
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// ErrorData accompanies insufficient capacity failures.
type ErrorData struct {
	MaxCapacity string `json:"maxCapacity"`
}

// PurchaseInstruction is what a wallet needs to display and submit a buy.
type PurchaseInstruction struct {
	DisplayInfo   DisplayInfo   `json:"displayInfo"`
	BuyCoverInput BuyCoverInput `json:"buyCoverInput"`
}

// DisplayInfo holds human-facing figures. Amounts are decimal integer strings in
// the cover asset's smallest unit.
type DisplayInfo struct {
	PremiumInAsset    string `json:"premiumInAsset"`
	CoverAmount       string `json:"coverAmount"`
	YearlyCostPerc    string `json:"yearlyCostPerc"`
	MaxCapacity       string `json:"maxCapacity"`
	TotalPoolCapacity string `json:"totalPoolCapacity"`
}

// BuyCoverParams mirrors the arguments of the cover contract's buy call.
type BuyCoverParams struct {
	CoverID               string `json:"coverId"`
	Owner                 string `json:"owner"`
	ProductID             uint32 `json:"productId"`
	CoverAsset            uint32 `json:"coverAsset"`
	Amount                string `json:"amount"`
	Period                uint64 `json:"period"`
	MaxPremiumInAsset     string `json:"maxPremiumInAsset"`
	PaymentAsset          uint32 `json:"paymentAsset"`
	CommissionRatio       int64  `json:"commissionRatio"`
	CommissionDestination string `json:"commissionDestination"`
	IPFSData              string `json:"ipfsData"`
}

// BuyCoverInput bundles the buy parameters with the routed pool allocations.
type BuyCoverInput struct {
	BuyCoverParams         BuyCoverParams                  `json:"buyCoverParams"`
	PoolAllocationRequests []pricing.PoolAllocationRequest `json:"poolAllocationRequests"`
}

type refKind uint8

const (
	refEmpty refKind = iota
	refCID
	refRaw
	refContent
	refInvalid
)

// ContentRef is the cover metadata reference of a request: nothing, an
// existing IPFS CID, or content still to be uploaded. Raw JSON objects are typed
// against the schema the product requires.
type ContentRef struct {
	kind    refKind
	cid     string
	raw     json.RawMessage
	content content.Content
}

// CID references metadata that is already pinned.
func CID(cid string) ContentRef {
	if cid == "" {
		return ContentRef{}
	}
	return ContentRef{kind: refCID, cid: cid}
}

// Structured references typed content to validate and upload.
func Structured(c content.Content) ContentRef {
	if c == nil {
		return ContentRef{}
	}
	return ContentRef{kind: refContent, content: c}
}

// RawContent references an untyped JSON object to validate and upload.
func RawContent(raw json.RawMessage) ContentRef {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ContentRef{}
	}
	if trimmed[0] != '{' {
		return ContentRef{kind: refInvalid}
	}
	return ContentRef{kind: refRaw, raw: append(json.RawMessage(nil), trimmed...)}
}

// IsZero reports whether no metadata was referenced.
func (r ContentRef) IsZero() bool { return r.kind == refEmpty }

func (r ContentRef) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case refCID:
		return json.Marshal(r.cid)
	case refRaw:
		return r.raw, nil
	case refContent:
		return json.Marshal(r.content)
	default:
		return []byte(`""`), nil
	}
}

// UnmarshalJSON never fails: unusable values are recorded and rejected during
// request validation with a caller-facing message.
func (r *ContentRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*r = ContentRef{}
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			*r = ContentRef{kind: refInvalid}
			return nil
		}
		if s == "" {
			*r = ContentRef{}
			return nil
		}
		*r = ContentRef{kind: refCID, cid: s}
	default:
		*r = RawContent(trimmed)
	}
	return nil
}
