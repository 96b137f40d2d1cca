package content

import (
	"encoding/base64"
	"fmt"
	"strings"

	"coversdk/core/address"
	"coversdk/core/fixedpoint"
)

const (
	maxFreeTextLength   = 4_096
	maxTitleLength      = 256
	maxAttachmentBytes  = 10 << 20
	maxListedAddresses  = 1_000
	maxCriteriaAnswers  = 64
	maxDesignatedWallet = 200
)

// CoverValidators lists the validator public keys covered by a slashing cover.
type CoverValidators struct {
	Validators []string `json:"validators"`
}

func (*CoverValidators) ContentType() Type { return TypeCoverValidators }
func (*CoverValidators) sealed()           {}

func (c *CoverValidators) Validate() error {
	if len(c.Validators) == 0 {
		return fieldError(TypeCoverValidators, "validators", "must contain at least one validator")
	}
	for i, v := range c.Validators {
		if strings.TrimSpace(v) == "" {
			return fieldError(TypeCoverValidators, fmt.Sprintf("validators[%d]", i), "must not be empty")
		}
	}
	return nil
}

// CoverQuotaShare captures the share of a quota-share agreement being covered.
type CoverQuotaShare struct {
	QuotaShare float64 `json:"quotaShare"`
}

func (*CoverQuotaShare) ContentType() Type { return TypeCoverQuotaShare }
func (*CoverQuotaShare) sealed()           {}

func (c *CoverQuotaShare) Validate() error {
	return percentage(TypeCoverQuotaShare, "quotaShare", c.QuotaShare)
}

// CoverAumCoverAmountPercentage is the share of assets under management covered by a fund cover.
type CoverAumCoverAmountPercentage struct {
	AumCoverAmountPercentage float64 `json:"aumCoverAmountPercentage"`
}

func (*CoverAumCoverAmountPercentage) ContentType() Type { return TypeCoverAumCoverAmountPercentage }
func (*CoverAumCoverAmountPercentage) sealed()           {}

func (c *CoverAumCoverAmountPercentage) Validate() error {
	return percentage(TypeCoverAumCoverAmountPercentage, "aumCoverAmountPercentage", c.AumCoverAmountPercentage)
}

// CoverWalletAddress names the single wallet protected by the cover.
type CoverWalletAddress struct {
	WalletAddress string `json:"walletAddress"`
}

func (*CoverWalletAddress) ContentType() Type { return TypeCoverWalletAddress }
func (*CoverWalletAddress) sealed()           {}

func (c *CoverWalletAddress) Validate() error {
	if !address.Valid(c.WalletAddress) {
		return fieldError(TypeCoverWalletAddress, "walletAddress", "must be a valid Ethereum address")
	}
	return nil
}

// CoverWalletAddresses names every wallet protected by the cover.
type CoverWalletAddresses struct {
	WalletAddresses []string `json:"walletAddresses"`
}

func (*CoverWalletAddresses) ContentType() Type { return TypeCoverWalletAddresses }
func (*CoverWalletAddresses) sealed()           {}

func (c *CoverWalletAddresses) Validate() error {
	if len(c.WalletAddresses) == 0 {
		return fieldError(TypeCoverWalletAddresses, "walletAddresses", "must contain at least one address")
	}
	if len(c.WalletAddresses) > maxListedAddresses {
		return fieldError(TypeCoverWalletAddresses, "walletAddresses", fmt.Sprintf("must contain at most %d addresses", maxListedAddresses))
	}
	for i, addr := range c.WalletAddresses {
		if !address.Valid(addr) {
			return fieldError(TypeCoverWalletAddresses, fmt.Sprintf("walletAddresses[%d]", i), "must be a valid Ethereum address")
		}
	}
	return nil
}

// CoverFreeText carries free-form cover wording.
type CoverFreeText struct {
	FreeText string `json:"freeText"`
}

func (*CoverFreeText) ContentType() Type { return TypeCoverFreeText }
func (*CoverFreeText) sealed()           {}

func (c *CoverFreeText) Validate() error {
	return text(TypeCoverFreeText, "freeText", c.FreeText, maxFreeTextLength)
}

// DesignatedWallet allocates part of the cover amount to a wallet.
type DesignatedWallet struct {
	Wallet   string `json:"wallet"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// CoverDesignatedWallets splits a cover between several wallets.
type CoverDesignatedWallets struct {
	Wallets []DesignatedWallet `json:"wallets"`
}

func (*CoverDesignatedWallets) ContentType() Type { return TypeCoverDesignatedWallets }
func (*CoverDesignatedWallets) sealed()           {}

func (c *CoverDesignatedWallets) Validate() error {
	if len(c.Wallets) == 0 {
		return fieldError(TypeCoverDesignatedWallets, "wallets", "must contain at least one wallet")
	}
	if len(c.Wallets) > maxDesignatedWallet {
		return fieldError(TypeCoverDesignatedWallets, "wallets", fmt.Sprintf("must contain at most %d wallets", maxDesignatedWallet))
	}
	for i, w := range c.Wallets {
		prefix := fmt.Sprintf("wallets[%d]", i)
		if !address.Valid(w.Wallet) {
			return fieldError(TypeCoverDesignatedWallets, prefix+".wallet", "must be a valid Ethereum address")
		}
		amount, err := fixedpoint.ParseUnsigned(w.Amount)
		if err != nil || amount.Sign() <= 0 {
			return fieldError(TypeCoverDesignatedWallets, prefix+".amount", "must be a positive integer string")
		}
		if strings.TrimSpace(w.Currency) == "" {
			return fieldError(TypeCoverDesignatedWallets, prefix+".currency", "must not be empty")
		}
	}
	return nil
}

// DefiPassContent identifies the wallet enrolled in a DeFi pass cover.
type DefiPassContent struct {
	WalletAddress string `json:"walletAddress"`
}

func (*DefiPassContent) ContentType() Type { return TypeDefiPassContent }
func (*DefiPassContent) sealed()           {}

func (c *DefiPassContent) Validate() error {
	if !address.Valid(c.WalletAddress) {
		return fieldError(TypeDefiPassContent, "walletAddress", "must be a valid Ethereum address")
	}
	return nil
}

// StakingPoolDetails is the public profile of a staking pool.
type StakingPoolDetails struct {
	PoolName        string `json:"poolName"`
	PoolDescription string `json:"poolDescription,omitempty"`
}

func (*StakingPoolDetails) ContentType() Type { return TypeStakingPoolDetails }
func (*StakingPoolDetails) sealed()           {}

func (c *StakingPoolDetails) Validate() error {
	if err := text(TypeStakingPoolDetails, "poolName", c.PoolName, maxTitleLength); err != nil {
		return err
	}
	if len(c.PoolDescription) > maxFreeTextLength {
		return fieldError(TypeStakingPoolDetails, "poolDescription", fmt.Sprintf("must be at most %d characters", maxFreeTextLength))
	}
	return nil
}

// CriteriaAnswer is a single answer given by an assessor.
type CriteriaAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AssessmentCriteriaAnswers records the assessor's answers to the claim criteria.
type AssessmentCriteriaAnswers struct {
	Answers []CriteriaAnswer `json:"answers"`
}

func (*AssessmentCriteriaAnswers) ContentType() Type { return TypeAssessmentCriteriaAnswers }
func (*AssessmentCriteriaAnswers) sealed()           {}

func (c *AssessmentCriteriaAnswers) Validate() error {
	if len(c.Answers) == 0 {
		return fieldError(TypeAssessmentCriteriaAnswers, "answers", "must contain at least one answer")
	}
	if len(c.Answers) > maxCriteriaAnswers {
		return fieldError(TypeAssessmentCriteriaAnswers, "answers", fmt.Sprintf("must contain at most %d answers", maxCriteriaAnswers))
	}
	for i, a := range c.Answers {
		if strings.TrimSpace(a.Question) == "" {
			return fieldError(TypeAssessmentCriteriaAnswers, fmt.Sprintf("answers[%d].question", i), "must not be empty")
		}
		if strings.TrimSpace(a.Answer) == "" {
			return fieldError(TypeAssessmentCriteriaAnswers, fmt.Sprintf("answers[%d].answer", i), "must not be empty")
		}
	}
	return nil
}

// AssessmentReason is the written justification for an assessment vote.
type AssessmentReason struct {
	Reason string `json:"reason"`
}

func (*AssessmentReason) ContentType() Type { return TypeAssessmentReason }
func (*AssessmentReason) sealed()           {}

func (c *AssessmentReason) Validate() error {
	return text(TypeAssessmentReason, "reason", c.Reason, maxFreeTextLength)
}

// GovernanceProposal is the human readable body of a governance proposal.
type GovernanceProposal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (*GovernanceProposal) ContentType() Type { return TypeGovernanceProposal }
func (*GovernanceProposal) sealed()           {}

func (c *GovernanceProposal) Validate() error {
	if err := text(TypeGovernanceProposal, "title", c.Title, maxTitleLength); err != nil {
		return err
	}
	return text(TypeGovernanceProposal, "description", c.Description, maxFreeTextLength)
}

// GovernanceCategory describes a category of governance actions.
type GovernanceCategory struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (*GovernanceCategory) ContentType() Type { return TypeGovernanceCategory }
func (*GovernanceCategory) sealed()           {}

func (c *GovernanceCategory) Validate() error {
	if err := text(TypeGovernanceCategory, "name", c.Name, maxTitleLength); err != nil {
		return err
	}
	if len(c.Description) > maxFreeTextLength {
		return fieldError(TypeGovernanceCategory, "description", fmt.Sprintf("must be at most %d characters", maxFreeTextLength))
	}
	return nil
}

// FileAttachment is a small file embedded as base64.
type FileAttachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

func (*FileAttachment) ContentType() Type { return TypeFileAttachment }
func (*FileAttachment) sealed()           {}

func (c *FileAttachment) Validate() error {
	if err := text(TypeFileAttachment, "filename", c.Filename, maxTitleLength); err != nil {
		return err
	}
	if !strings.Contains(c.MimeType, "/") {
		return fieldError(TypeFileAttachment, "mimeType", "must be a MIME type")
	}
	if c.Data == "" {
		return fieldError(TypeFileAttachment, "data", "must not be empty")
	}
	decoded, err := base64.StdEncoding.DecodeString(c.Data)
	if err != nil {
		return fieldError(TypeFileAttachment, "data", "must be base64 encoded")
	}
	if len(decoded) > maxAttachmentBytes {
		return fieldError(TypeFileAttachment, "data", fmt.Sprintf("must be at most %d bytes", maxAttachmentBytes))
	}
	return nil
}

func percentage(t Type, field string, v float64) error {
	if v < 0 || v > 100 {
		return fieldError(t, field, "must be between 0 and 100")
	}
	return nil
}

func text(t Type, field, v string, limit int) error {
	if strings.TrimSpace(v) == "" {
		return fieldError(t, field, "must not be empty")
	}
	if len(v) > limit {
		return fieldError(t, field, fmt.Sprintf("must be at most %d characters", limit))
	}
	return nil
}
