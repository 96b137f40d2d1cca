package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"coversdk/core/address"
	"coversdk/core/premium"
	"coversdk/observability/logging"
)

// Validate checks the configuration after defaults were applied.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if err := validateURL("api.url", cfg.API.URL); err != nil {
		return err
	}
	if err := validateURL("ipfs.url", cfg.IPFS.URL); err != nil {
		return err
	}
	slippage, err := decimal.NewFromString(strings.TrimSpace(cfg.DefaultSlippage))
	if err != nil {
		return fmt.Errorf("defaultSlippage: %w", err)
	}
	if _, err := premium.SlippageFromFraction(slippage); err != nil {
		return fmt.Errorf("defaultSlippage: %w", err)
	}
	if c := cfg.Commission; c != nil {
		if c.Ratio < 0 || c.Ratio >= premium.Denominator {
			return fmt.Errorf("commission.ratio must be in [0, %d)", premium.Denominator)
		}
		if !address.Valid(c.Destination) {
			return fmt.Errorf("commission.destination must be a valid address")
		}
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if r := cfg.Telemetry.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("telemetry.sampleRatio must be in [0, 1]")
	}
	if err := cfg.Gateway.Validate(); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	return nil
}

func validateURL(field, raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", field)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}
