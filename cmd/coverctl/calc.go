package main

import (
	"flag"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"coversdk/config"
	"coversdk/core/premium"
	"coversdk/core/swap"
)

type reserveFlags struct {
	tokenA, tokenB, base string
}

func (r *reserveFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.tokenA, "token-a", "", "token reserve of the A curve")
	fs.StringVar(&r.tokenB, "token-b", "", "token reserve of the B curve")
	fs.StringVar(&r.base, "base", "", "base currency reserve")
}

func (r *reserveFlags) reserves() (*swap.Reserves, error) {
	tokenA, err := parseInteger("token-a", r.tokenA)
	if err != nil {
		return nil, err
	}
	tokenB, err := parseInteger("token-b", r.tokenB)
	if err != nil {
		return nil, err
	}
	base, err := parseInteger("base", r.base)
	if err != nil {
		return nil, err
	}
	return &swap.Reserves{TokenReserveA: tokenA, TokenReserveB: tokenB, BaseReserve: base}, nil
}

func parseInteger(name, raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("--%s is required", name)
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("--%s must be an integer", name)
	}
	return v, nil
}

type swapFunc func(*big.Int, *swap.Reserves) (*big.Int, error)

func fixed(fn swapFunc) func(swap.Policy) swapFunc {
	return func(swap.Policy) swapFunc { return fn }
}

// token-out and base-out honour --policy; the exact directions are always strict.
var swapDirections = map[string]func(swap.Policy) swapFunc{
	"exact-token-in":  fixed(swap.ExactTokenInForBaseOut),
	"exact-base-in":   fixed(swap.ExactBaseInForTokenOut),
	"exact-token-out": fixed(swap.BaseInForExactTokenOut),
	"exact-base-out":  fixed(swap.TokenInForExactBaseOut),
	"token-out":       func(p swap.Policy) swapFunc { return swap.NewEngine(p).TokenOut },
	"base-out":        func(p swap.Policy) swapFunc { return swap.NewEngine(p).BaseOut },
}

func runSwapCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("swap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var direction, amount, policyName string
	var reserves reserveFlags
	fs.StringVar(&direction, "direction", "", "exact-token-in, exact-base-in, exact-token-out, exact-base-out, token-out or base-out")
	fs.StringVar(&amount, "amount", "", "input amount in the smallest unit")
	fs.StringVar(&policyName, "policy", "strict", "strict or lenient (token-out and base-out only)")
	reserves.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	build, ok := swapDirections[direction]
	if !ok {
		return fail(stderr, "unknown --direction %q", direction)
	}
	policy, err := swap.ParsePolicy(strings.ToLower(strings.TrimSpace(policyName)))
	if err != nil {
		return fail(stderr, "%v", err)
	}
	in, err := parseInteger("amount", amount)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	snapshot, err := reserves.reserves()
	if err != nil {
		return fail(stderr, "%v", err)
	}
	out, err := build(policy)(in, snapshot)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	writeJSON(stdout, map[string]string{"direction": direction, "amount": in.String(), "result": out.String()})
	return 0
}

func runSpotCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("spot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var reserves reserveFlags
	reserves.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	snapshot, err := reserves.reserves()
	if err != nil {
		return fail(stderr, "%v", err)
	}
	prices, err := swap.SpotPrice(snapshot)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	writeJSON(stdout, map[string]string{"spotPriceA": prices.A.String(), "spotPriceB": prices.B.String()})
	return 0
}

func runImpactCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("impact", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var side, amount string
	var reserves reserveFlags
	fs.StringVar(&side, "side", "A", "A (base in, parts per million) or B (token in, basis points)")
	fs.StringVar(&amount, "amount", "", "input amount in the smallest unit")
	reserves.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	in, err := parseInteger("amount", amount)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	snapshot, err := reserves.reserves()
	if err != nil {
		return fail(stderr, "%v", err)
	}
	var (
		impact *big.Int
		scale  int64
	)
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case "A":
		impact, err = swap.PriceImpactA(in, snapshot)
		scale = swap.PriceImpactScaleA
	case "B":
		impact, err = swap.PriceImpactB(in, snapshot)
		scale = swap.PriceImpactScaleB
	default:
		return fail(stderr, "--side must be A or B")
	}
	if err != nil {
		return fail(stderr, "%v", err)
	}
	writeJSON(stdout, map[string]any{"side": strings.ToUpper(side), "impact": impact.String(), "scale": scale})
	return 0
}

func runPremiumCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("premium", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cfgPath, raw, annual, slippage string
	var productID, commission int64
	fs.StringVar(&cfgPath, "config", "", "path to a YAML or TOML configuration file")
	fs.StringVar(&raw, "premium", "", "premium returned by the pricing service")
	fs.StringVar(&annual, "annual-price", "", "optional annual price to render as a yearly cost percentage")
	fs.StringVar(&slippage, "slippage", "0", "slippage fraction")
	fs.Int64Var(&productID, "product", -1, "product whose commission applies")
	fs.Int64Var(&commission, "commission", -1, "explicit commission ratio in basis points")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	base, err := parseInteger("premium", raw)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	fraction, err := decimal.NewFromString(strings.TrimSpace(slippage))
	if err != nil {
		return fail(stderr, "invalid --slippage: %v", err)
	}
	slippageRatio, err := premium.SlippageFromFraction(fraction)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	if commission < 0 {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fail(stderr, "%v", err)
		}
		catalog, err := cfg.LoadCatalog()
		if err != nil {
			return fail(stderr, "%v", err)
		}
		commission = catalog.DefaultCommission().Ratio
		if productID >= 0 {
			productType, err := catalog.ProductTypeOf(uint32(productID))
			if err != nil {
				return fail(stderr, "%v", err)
			}
			commission = catalog.Commission(productType.ID).Ratio
		}
	}
	maxPremium, err := premium.WithCommissionAndSlippage(base, commission, slippageRatio)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	out := map[string]any{
		"maxPremiumInAsset": maxPremium.String(),
		"commissionRatio":   commission,
		"slippageRatio":     slippageRatio,
	}
	if strings.TrimSpace(annual) != "" {
		annualPrice, err := parseInteger("annual-price", annual)
		if err != nil {
			return fail(stderr, "%v", err)
		}
		adjusted, err := premium.WithCommissionAndSlippage(annualPrice, commission, slippageRatio)
		if err != nil {
			return fail(stderr, "%v", err)
		}
		out["yearlyCostPerc"] = premium.YearlyCostPercentage(adjusted)
	}
	writeJSON(stdout, out)
	return 0
}
