// Package content validates the structured metadata attached to covers and
// governance actions before it is uploaded to IPFS.
//
// Every content type is a concrete struct implementing the sealed Content
// interface. Decode is the single place that maps a type tag to its struct;
// adding a type means adding a constant, a struct and a case there.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Type tags a metadata payload with its schema.
type Type string

const (
	TypeCoverValidators               Type = "coverValidators"
	TypeCoverQuotaShare               Type = "coverQuotaShare"
	TypeCoverAumCoverAmountPercentage Type = "coverAumCoverAmountPercentage"
	TypeCoverWalletAddress            Type = "coverWalletAddress"
	TypeCoverWalletAddresses          Type = "coverWalletAddresses"
	TypeCoverFreeText                 Type = "coverFreeText"
	TypeCoverDesignatedWallets        Type = "coverDesignatedWallets"
	TypeDefiPassContent               Type = "defiPassContent"
	TypeStakingPoolDetails            Type = "stakingPoolDetails"
	TypeAssessmentCriteriaAnswers     Type = "assessmentCriteriaAnswers"
	TypeAssessmentReason              Type = "assessmentReason"
	TypeGovernanceProposal            Type = "governanceProposal"
	TypeGovernanceCategory            Type = "governanceCategory"
	TypeFileAttachment                Type = "fileAttachment"
)

// Types lists every supported content type in declaration order.
func Types() []Type {
	return []Type{
		TypeCoverValidators,
		TypeCoverQuotaShare,
		TypeCoverAumCoverAmountPercentage,
		TypeCoverWalletAddress,
		TypeCoverWalletAddresses,
		TypeCoverFreeText,
		TypeCoverDesignatedWallets,
		TypeDefiPassContent,
		TypeStakingPoolDetails,
		TypeAssessmentCriteriaAnswers,
		TypeAssessmentReason,
		TypeGovernanceProposal,
		TypeGovernanceCategory,
		TypeFileAttachment,
	}
}

// Valid reports whether t names a supported content type.
func (t Type) Valid() bool {
	_, err := newContent(t)
	return err == nil
}

func (t Type) String() string { return string(t) }

var (
	// ErrUnknownType indicates the content type tag is not supported.
	ErrUnknownType = errors.New("content: unknown content type")
	// ErrTypeMismatch indicates the content does not match the type required by the product.
	ErrTypeMismatch = errors.New("content: content type mismatch")
)

// ValidationError names the first field that violated its schema.
type ValidationError struct {
	Type   Type
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s content: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid %s content: %s %s", e.Type, e.Field, e.Reason)
}

func fieldError(t Type, field, reason string) error {
	return &ValidationError{Type: t, Field: field, Reason: reason}
}

// Content is implemented only by the payload structs of this package.
type Content interface {
	ContentType() Type
	Validate() error
	sealed()
}

// Envelope is the wire form of a payload: the type tag and its body.
type Envelope struct {
	Type    Type            `json:"type"`
	Content json.RawMessage `json:"content"`
}

// Decode parses raw into the struct registered for t. The result is not validated.
func Decode(t Type, raw []byte) (Content, error) {
	c, err := newContent(t)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, &ValidationError{Type: t, Reason: "content required"}
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, &ValidationError{Type: t, Reason: fmt.Sprintf("malformed content: %v", err)}
	}
	return c, nil
}

// DecodeEnvelope parses and validates a tagged payload.
func DecodeEnvelope(env Envelope) (Content, error) {
	c, err := Decode(env.Type, env.Content)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ValidateAs checks that c carries the expected type and satisfies its schema.
func ValidateAs(expected Type, c Content) error {
	if c == nil {
		return &ValidationError{Type: expected, Reason: "content required"}
	}
	if c.ContentType() != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, expected, c.ContentType())
	}
	return c.Validate()
}

func newContent(t Type) (Content, error) {
	switch t {
	case TypeCoverValidators:
		return &CoverValidators{}, nil
	case TypeCoverQuotaShare:
		return &CoverQuotaShare{}, nil
	case TypeCoverAumCoverAmountPercentage:
		return &CoverAumCoverAmountPercentage{}, nil
	case TypeCoverWalletAddress:
		return &CoverWalletAddress{}, nil
	case TypeCoverWalletAddresses:
		return &CoverWalletAddresses{}, nil
	case TypeCoverFreeText:
		return &CoverFreeText{}, nil
	case TypeCoverDesignatedWallets:
		return &CoverDesignatedWallets{}, nil
	case TypeDefiPassContent:
		return &DefiPassContent{}, nil
	case TypeStakingPoolDetails:
		return &StakingPoolDetails{}, nil
	case TypeAssessmentCriteriaAnswers:
		return &AssessmentCriteriaAnswers{}, nil
	case TypeAssessmentReason:
		return &AssessmentReason{}, nil
	case TypeGovernanceProposal:
		return &GovernanceProposal{}, nil
	case TypeGovernanceCategory:
		return &GovernanceCategory{}, nil
	case TypeFileAttachment:
		return &FileAttachment{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
}
