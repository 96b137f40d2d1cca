package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"coversdk/config"
	gatewayconfig "coversdk/gateway/config"
)

func TestRateGroupsFlattenPaths(t *testing.T) {
	groups := rateGroups(gatewayconfig.Default().RateLimits)
	if len(groups) != 5 {
		t.Fatalf("expected five groups, got %d", len(groups))
	}
	if groups[0].Prefix != "/v1/quote" || groups[0].RateLimitKey != "quote" {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[2].Prefix != "/v1/products" || groups[2].RateLimitKey != "quote" {
		t.Fatalf("unexpected catalog group %+v", groups[2])
	}
	if groups[4].Prefix != "/v1/premium" || groups[4].RateLimitKey != "calc" {
		t.Fatalf("unexpected last group %+v", groups[4])
	}
}

func TestSecureEndpoint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	cfg.Environment = "prod"
	if _, err := secureEndpoint(cfg, "api", "http://router.example.com/v2", logger); err == nil {
		t.Fatalf("expected plaintext endpoint to be rejected in prod")
	}
	cfg.Gateway.Security.AutoUpgradeHTTP = true
	got, err := secureEndpoint(cfg, "api", "http://router.example.com/v2", logger)
	if err != nil || got != "https://router.example.com/v2" {
		t.Fatalf("expected upgrade, got %q %v", got, err)
	}
	cfg.Environment = "dev"
	cfg.Gateway.Security.AutoUpgradeHTTP = false
	if got, err := secureEndpoint(cfg, "api", "http://localhost:3000", logger); err != nil || got != "http://localhost:3000" {
		t.Fatalf("dev should keep plaintext, got %q %v", got, err)
	}
}

func TestBuildTLSConfig(t *testing.T) {
	cfg, err := buildTLSConfig("", gatewayconfig.SecurityConfig{})
	if err != nil || cfg != nil {
		t.Fatalf("expected no TLS without certificates, got %v %v", cfg, err)
	}
	if _, err := buildTLSConfig("", gatewayconfig.SecurityConfig{TLSCertFile: "cert.pem"}); err == nil {
		t.Fatalf("expected half-configured TLS to fail")
	}
	if _, err := buildTLSConfig(t.TempDir(), gatewayconfig.SecurityConfig{TLSCertFile: "cert.pem", TLSKeyFile: "key.pem"}); err == nil {
		t.Fatalf("expected missing key pair to fail")
	}
}

func TestResolvePathAndLoopback(t *testing.T) {
	if got := resolvePath("/etc/cover", "tls/cert.pem"); got != filepath.Join("/etc/cover", "tls/cert.pem") {
		t.Fatalf("unexpected resolved path %q", got)
	}
	if got := resolvePath("/etc/cover", "/abs/cert.pem"); got != "/abs/cert.pem" {
		t.Fatalf("absolute paths should be kept, got %q", got)
	}
	for addr, want := range map[string]bool{
		"127.0.0.1:8080": true,
		"localhost:8080": true,
		"[::1]:8080":     true,
		":8080":          false,
		"0.0.0.0:8080":   false,
		"bogus":          false,
	} {
		if got := isLoopbackAddress(addr); got != want {
			t.Fatalf("isLoopbackAddress(%q) = %v, want %v", addr, got, want)
		}
	}
}
