package main

import (
	"flag"
	"io"

	"coversdk/config"
)

func runProductsCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cfgPath string
	var productType int64
	var private bool
	fs.StringVar(&cfgPath, "config", "", "path to a YAML or TOML configuration file")
	fs.Int64Var(&productType, "type", -1, "list the public products of this product type")
	fs.BoolVar(&private, "private", false, "list the identifiers of private products")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if (productType >= 0) == private {
		return fail(stderr, "exactly one of --type or --private is required")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return fail(stderr, "%v", err)
	}
	if private {
		writeJSON(stdout, map[string]any{"private": catalog.PrivateProducts()})
		return 0
	}
	if productType > int64(^uint32(0)) {
		return fail(stderr, "product type %d not found", productType)
	}
	pt, ok := catalog.ProductType(uint32(productType))
	if !ok {
		return fail(stderr, "product type %d not found", productType)
	}
	writeJSON(stdout, map[string]any{"productType": pt, "products": catalog.ProductsByType(pt.ID)})
	return 0
}
