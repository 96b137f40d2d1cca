package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"coversdk/config"
	"coversdk/observability/logging"
	"coversdk/sdk/cover"
	"coversdk/sdk/ipfs"
	"coversdk/sdk/pricing"
)

type quoter interface {
	Quote(ctx context.Context, req cover.Request) (cover.Response, error)
}

// newQuoter builds the orchestrator from configuration; tests replace it.
var newQuoter = buildQuoter

func buildQuoter(cfgPath string, stderr io.Writer) (quoter, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.SetupWithOptions("coverctl", cfg.Environment, logging.Options{
		Level:  cfg.Logging.Level,
		File:   cfg.Logging.File,
		Output: stderr,
	})
	if err != nil {
		return nil, err
	}
	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return nil, err
	}
	api, err := pricing.New(cfg.API.URL, pricing.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return nil, err
	}
	uploader, err := ipfs.New(cfg.IPFS.URL, cfg.SDKVersion)
	if err != nil {
		return nil, err
	}
	return cover.New(catalog, api, uploader,
		cover.WithLogger(logger),
		cover.WithDefaultSlippage(cfg.Slippage()))
}

func runQuoteCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("quote", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath, amount, buyer, slippage, cid, contentPath string
		productID, period, asset                           int64
	)
	fs.StringVar(&cfgPath, "config", "", "path to a YAML or TOML configuration file")
	fs.Int64Var(&productID, "product", 0, "product identifier")
	fs.StringVar(&amount, "amount", "", "cover amount in the cover asset's smallest unit")
	fs.Int64Var(&period, "period", cover.MinimumCoverPeriod, "cover period in days")
	fs.Int64Var(&asset, "asset", 0, "cover asset identifier")
	fs.StringVar(&buyer, "buyer", "", "address of the cover buyer")
	fs.StringVar(&slippage, "slippage", "", "slippage fraction, e.g. 0.001 (defaults to the configured value)")
	fs.StringVar(&cid, "ipfs", "", "CID of already uploaded cover metadata")
	fs.StringVar(&contentPath, "content", "", "path to a JSON cover metadata document to upload")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		return fail(stderr, "unexpected positional arguments")
	}
	if cid != "" && contentPath != "" {
		return fail(stderr, "--ipfs and --content are mutually exclusive")
	}

	req := cover.Request{
		ProductID:         productID,
		CoverAmount:       strings.TrimSpace(amount),
		CoverPeriod:       period,
		CoverAsset:        asset,
		CoverBuyerAddress: strings.TrimSpace(buyer),
	}
	if s := strings.TrimSpace(slippage); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fail(stderr, "invalid --slippage: %v", err)
		}
		req.Slippage = &d
	}
	switch {
	case cid != "":
		req.IPFSCidOrContent = cover.CID(strings.TrimSpace(cid))
	case contentPath != "":
		data, err := os.ReadFile(contentPath)
		if err != nil {
			return fail(stderr, "read content: %v", err)
		}
		req.IPFSCidOrContent = cover.RawContent(json.RawMessage(data))
	}

	q, err := newQuoter(cfgPath, stderr)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	resp, err := q.Quote(context.Background(), req)
	if err != nil {
		return fail(stderr, "%s: %v", cover.SomethingWentWrong, err)
	}
	writeJSON(stdout, resp)
	if resp.Error != nil {
		fmt.Fprintf(stderr, "Error: %s\n", resp.Error.Message)
		return 1
	}
	return 0
}
