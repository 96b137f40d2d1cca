package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coversdk/sdk/cover"
)

var regressionFlags = []string{
	"--token-a", "142858457219554100789497",
	"--token-b", "328817222320643252285179",
	"--base", "5000000000000000000000",
}

func runCLI(t *testing.T, args ...string) (int, map[string]any, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	exit := run(args, stdout, stderr)
	var out map[string]any
	if stdout.Len() > 0 {
		if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
			t.Fatalf("decode stdout %q: %v", stdout.String(), err)
		}
	}
	return exit, out, stderr.String()
}

func TestUnknownCommand(t *testing.T) {
	exit, _, stderr := runCLI(t, "frobnicate")
	if exit != 1 || !strings.Contains(stderr, "Unknown command: frobnicate") {
		t.Fatalf("unexpected result %d %q", exit, stderr)
	}
	exit, _, stderr = runCLI(t)
	if exit != 1 || !strings.Contains(stderr, "Usage: coverctl") {
		t.Fatalf("expected usage, got %d %q", exit, stderr)
	}
}

func TestSwapCommand(t *testing.T) {
	args := append([]string{"swap", "--direction", "exact-base-in", "--amount", "1000000000000000000"}, regressionFlags...)
	exit, out, stderr := runCLI(t, args...)
	if exit != 0 {
		t.Fatalf("swap failed: %s", stderr)
	}
	if out["result"] != "28565978248261167925" {
		t.Fatalf("unexpected result %v", out["result"])
	}

	args = append([]string{"swap", "--direction", "token-out", "--policy", "lenient", "--amount", "0"}, regressionFlags...)
	exit, out, _ = runCLI(t, args...)
	if exit != 0 || out["result"] != "0" {
		t.Fatalf("lenient swap should return zero, got %d %v", exit, out)
	}

	args = append([]string{"swap", "--direction", "token-out", "--amount", "0"}, regressionFlags...)
	exit, _, stderr = runCLI(t, args...)
	if exit != 1 || !strings.Contains(stderr, "base in value must be greater than 0") {
		t.Fatalf("strict swap should reject zero, got %d %q", exit, stderr)
	}

	exit, _, stderr = runCLI(t, "swap", "--direction", "sideways", "--amount", "1")
	if exit != 1 || !strings.Contains(stderr, "unknown --direction") {
		t.Fatalf("unexpected result %d %q", exit, stderr)
	}
	exit, _, stderr = runCLI(t, "swap", "--direction", "exact-base-in", "--amount", "1")
	if exit != 1 || !strings.Contains(stderr, "--token-a is required") {
		t.Fatalf("expected missing reserves error, got %d %q", exit, stderr)
	}
}

func TestSpotAndImpactCommands(t *testing.T) {
	exit, out, stderr := runCLI(t, append([]string{"spot"}, regressionFlags...)...)
	if exit != 0 {
		t.Fatalf("spot failed: %s", stderr)
	}
	if out["spotPriceA"] != "34999677984171963" || out["spotPriceB"] != "15206016171270656" {
		t.Fatalf("unexpected spot prices %v", out)
	}

	exit, out, stderr = runCLI(t, append([]string{"impact", "--side", "A", "--amount", "1000000000000000000"}, regressionFlags...)...)
	if exit != 0 || out["impact"] != "200" || out["scale"] != float64(1_000_000) {
		t.Fatalf("unexpected impact %d %v %s", exit, out, stderr)
	}
	exit, out, _ = runCLI(t, append([]string{"impact", "--side", "B", "--amount", "1000000000000000000"}, regressionFlags...)...)
	if exit != 0 || out["impact"] != "1" || out["scale"] != float64(10_000) {
		t.Fatalf("unexpected impact %d %v", exit, out)
	}
	exit, _, _ = runCLI(t, append([]string{"impact", "--side", "C", "--amount", "1"}, regressionFlags...)...)
	if exit != 1 {
		t.Fatalf("expected invalid side to fail")
	}
}

func TestPremiumCommand(t *testing.T) {
	exit, out, stderr := runCLI(t, "premium", "--premium", "1000000000000000000", "--slippage", "0.01", "--annual-price", "250")
	if exit != 0 {
		t.Fatalf("premium failed: %s", stderr)
	}
	if out["maxPremiumInAsset"] != "1188235294117647058" || out["yearlyCostPerc"] != "2.96" {
		t.Fatalf("unexpected premium %v", out)
	}

	exit, out, _ = runCLI(t, "premium", "--premium", "1000", "--product", "14")
	if exit != 0 || out["maxPremiumInAsset"] != "1000" || out["commissionRatio"] != float64(0) {
		t.Fatalf("unexpected premium for zero-commission product %d %v", exit, out)
	}

	exit, out, _ = runCLI(t, "premium", "--premium", "8500", "--commission", "1500")
	if exit != 0 || out["maxPremiumInAsset"] != "10000" {
		t.Fatalf("unexpected premium with explicit commission %d %v", exit, out)
	}

	if exit, _, _ := runCLI(t, "premium", "--premium", "1", "--commission", "10000"); exit != 1 {
		t.Fatalf("expected invalid commission to fail")
	}
	if exit, _, _ := runCLI(t, "premium", "--premium", "1", "--product", "9999"); exit != 1 {
		t.Fatalf("expected unknown product to fail")
	}
}

func TestValidateContentCommand(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.json")
	if err := os.WriteFile(valid, []byte(`{"walletAddress":"0x586b9b2F8010b284A0197f392156f1A7Eb5e86e9"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`{"walletAddress":"nope"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	exit, out, stderr := runCLI(t, "validate-content", "--type", "coverWalletAddress", "--file", valid)
	if exit != 0 || out["valid"] != true {
		t.Fatalf("expected valid content, got %d %v %s", exit, out, stderr)
	}
	exit, _, stderr = runCLI(t, "validate-content", "--type", "coverWalletAddress", "--file", invalid)
	if exit != 1 || !strings.Contains(stderr, "walletAddress") {
		t.Fatalf("expected field error, got %d %q", exit, stderr)
	}
	exit, _, stderr = runCLI(t, "validate-content", "--type", "bogus", "--file", valid)
	if exit != 1 || !strings.Contains(stderr, "coverFreeText") {
		t.Fatalf("expected type list, got %d %q", exit, stderr)
	}
	exit, out, _ = runCLI(t, "validate-content", "--cid", "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	if exit != 0 || out["valid"] != true {
		t.Fatalf("expected valid CID, got %d %v", exit, out)
	}
	if exit, _, _ := runCLI(t, "validate-content", "--cid", "not-a-cid"); exit != 1 {
		t.Fatalf("expected invalid CID to fail")
	}
}

type fakeQuoter struct {
	req  cover.Request
	resp cover.Response
	err  error
}

func (f *fakeQuoter) Quote(_ context.Context, req cover.Request) (cover.Response, error) {
	f.req = req
	return f.resp, f.err
}

func withQuoter(t *testing.T, q *fakeQuoter) {
	t.Helper()
	original := newQuoter
	newQuoter = func(string, io.Writer) (quoter, error) { return q, nil }
	t.Cleanup(func() { newQuoter = original })
}

func TestQuoteCommand(t *testing.T) {
	q := &fakeQuoter{resp: cover.Response{Result: &cover.PurchaseInstruction{DisplayInfo: cover.DisplayInfo{PremiumInAsset: "42"}}}}
	withQuoter(t, q)

	exit, out, stderr := runCLI(t, "quote", "--product", "1", "--amount", "100", "--period", "30",
		"--buyer", "0x586b9b2F8010b284A0197f392156f1A7Eb5e86e9", "--slippage", "0.02",
		"--ipfs", "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	if exit != 0 {
		t.Fatalf("quote failed: %s", stderr)
	}
	if _, ok := out["result"]; !ok {
		t.Fatalf("expected result in output, got %v", out)
	}
	if q.req.ProductID != 1 || q.req.CoverPeriod != 30 || q.req.Slippage.String() != "0.02" || q.req.IPFSCidOrContent.IsZero() {
		t.Fatalf("unexpected request %+v", q.req)
	}
}

func TestQuoteCommandErrors(t *testing.T) {
	q := &fakeQuoter{resp: cover.Response{Error: &cover.Error{Message: "Invalid coverAmount"}}}
	withQuoter(t, q)

	exit, out, stderr := runCLI(t, "quote", "--product", "1")
	if exit != 1 || !strings.Contains(stderr, "Invalid coverAmount") {
		t.Fatalf("expected error response, got %d %q", exit, stderr)
	}
	if _, ok := out["error"]; !ok {
		t.Fatalf("expected error in output, got %v", out)
	}

	if exit, _, _ := runCLI(t, "quote", "--ipfs", "x", "--content", "y"); exit != 1 {
		t.Fatalf("expected mutually exclusive flags to fail")
	}
	if exit, _, _ := runCLI(t, "quote", "--slippage", "lots"); exit != 1 {
		t.Fatalf("expected invalid slippage to fail")
	}
	if exit, _, _ := runCLI(t, "quote", "--content", filepath.Join(t.TempDir(), "missing.json")); exit != 1 {
		t.Fatalf("expected missing content file to fail")
	}
}

func TestProductsCommand(t *testing.T) {
	exit, out, stderr := runCLI(t, "products", "--private")
	if exit != 0 {
		t.Fatalf("products failed: %s", stderr)
	}
	private, _ := out["private"].([]any)
	if len(private) != 2 || private[0] != float64(6) || private[1] != float64(9) {
		t.Fatalf("unexpected private products %v", out)
	}

	exit, out, stderr = runCLI(t, "products", "--type", "0")
	if exit != 0 {
		t.Fatalf("products failed: %s", stderr)
	}
	if listed, _ := out["products"].([]any); len(listed) != 4 {
		t.Fatalf("unexpected products %v", out)
	}

	if exit, _, _ := runCLI(t, "products", "--type", "99"); exit != 1 {
		t.Fatalf("expected unknown product type to fail")
	}
	if exit, _, _ := runCLI(t, "products"); exit != 1 {
		t.Fatalf("expected missing selector to fail")
	}
	if exit, _, _ := runCLI(t, "products", "--type", "0", "--private"); exit != 1 {
		t.Fatalf("expected conflicting selectors to fail")
	}
}
