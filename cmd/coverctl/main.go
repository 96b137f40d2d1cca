package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "quote":
		return runQuoteCommand(args[1:], stdout, stderr)
	case "swap":
		return runSwapCommand(args[1:], stdout, stderr)
	case "spot":
		return runSpotCommand(args[1:], stdout, stderr)
	case "impact":
		return runImpactCommand(args[1:], stdout, stderr)
	case "premium":
		return runPremiumCommand(args[1:], stdout, stderr)
	case "validate-content":
		return runValidateContentCommand(args[1:], stdout, stderr)
	case "products":
		return runProductsCommand(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func usage() string {
	return `Usage: coverctl <command> [flags]

Commands:
  quote             price a cover purchase and print the buy cover inputs
  swap              run a swap calculation against a reserves snapshot
  spot              print the spot prices of both curves
  impact            print the price impact of a trade
  premium           apply commission and slippage to a raw premium
  validate-content  validate a cover metadata document or CID
  products          list catalog products by type or the private products`
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(stderr io.Writer, format string, args ...any) int {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
	return 1
}
