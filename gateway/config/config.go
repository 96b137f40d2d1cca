package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RateLimitConfig throttles a group of routes per client. Tokens sets the
// bucket cost of individual "METHOD /path" routes; every other request costs
// DefaultTokens, or one token when that is unset.
type RateLimitConfig struct {
	ID                string         `yaml:"id" toml:"id"`
	RequestsPerMinute float64        `yaml:"requestsPerMinute" toml:"requestsPerMinute"`
	RatePerSecond     float64        `yaml:"ratePerSecond" toml:"ratePerSecond"`
	Burst             int            `yaml:"burst" toml:"burst"`
	Paths             []string       `yaml:"paths" toml:"paths"`
	DefaultTokens     int            `yaml:"defaultTokens" toml:"defaultTokens"`
	Tokens            map[string]int `yaml:"tokens" toml:"tokens"`
}

// ObservabilityConfig toggles request metrics, tracing and access logs.
type ObservabilityConfig struct {
	ServiceName   string `yaml:"serviceName" toml:"serviceName"`
	Metrics       bool   `yaml:"metrics" toml:"metrics"`
	Tracing       bool   `yaml:"tracing" toml:"tracing"`
	LogRequests   bool   `yaml:"logRequests" toml:"logRequests"`
	MetricsPrefix string `yaml:"metricsPrefix" toml:"metricsPrefix"`
}

// AuthConfig enables HMAC-signed bearer tokens on the quote routes.
type AuthConfig struct {
	Enabled       bool          `yaml:"enabled" toml:"enabled"`
	HMACSecret    string        `yaml:"hmacSecret" toml:"hmacSecret"`
	Issuer        string        `yaml:"issuer" toml:"issuer"`
	Audience      string        `yaml:"audience" toml:"audience"`
	ScopeClaim    string        `yaml:"scopeClaim" toml:"scopeClaim"`
	OptionalPaths []string      `yaml:"optionalPaths" toml:"optionalPaths"`
	ClockSkew     time.Duration `yaml:"clockSkew" toml:"clockSkew"`
}

// CORSConfig lists the browser origins allowed to call the gateway.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins" toml:"allowedOrigins"`
}

// SecurityConfig carries TLS material and the plaintext upstream policy.
type SecurityConfig struct {
	AutoUpgradeHTTP bool   `yaml:"autoUpgradeHTTP" toml:"autoUpgradeHTTP"`
	TLSCertFile     string `yaml:"tlsCertFile" toml:"tlsCertFile"`
	TLSKeyFile      string `yaml:"tlsKeyFile" toml:"tlsKeyFile"`
}

// Config is the HTTP edge configuration of the quote gateway.
type Config struct {
	ListenAddress string              `yaml:"listen" toml:"listen"`
	ReadTimeout   time.Duration       `yaml:"readTimeout" toml:"readTimeout"`
	WriteTimeout  time.Duration       `yaml:"writeTimeout" toml:"writeTimeout"`
	IdleTimeout   time.Duration       `yaml:"idleTimeout" toml:"idleTimeout"`
	RateLimits    []RateLimitConfig   `yaml:"rateLimits" toml:"rateLimits"`
	Observability ObservabilityConfig `yaml:"observability" toml:"observability"`
	Auth          AuthConfig          `yaml:"auth" toml:"auth"`
	CORS          CORSConfig          `yaml:"cors" toml:"cors"`
	Security      SecurityConfig      `yaml:"security" toml:"security"`
}

// Default returns the gateway configuration used when a file leaves a field unset.
func Default() Config {
	return Config{
		ListenAddress: ":8080",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   120 * time.Second,
		RateLimits: []RateLimitConfig{
			{
				ID:                "quote",
				RequestsPerMinute: 120,
				Burst:             20,
				Paths:             []string{"/v1/quote", "/v1/capacity", "/v1/products"},
				Tokens:            map[string]int{"POST /v1/quote": 2},
			},
			{ID: "calc", RatePerSecond: 20, Burst: 40, Paths: []string{"/v1/swap", "/v1/premium"}},
		},
		Observability: ObservabilityConfig{
			ServiceName:   "cover-gateway",
			Metrics:       true,
			Tracing:       true,
			LogRequests:   true,
			MetricsPrefix: "cover_gateway",
		},
		Auth: AuthConfig{
			ScopeClaim: "scope",
			ClockSkew:  2 * time.Minute,
		},
	}
}

// ApplyDefaults fills zero values from Default.
func (cfg *Config) ApplyDefaults() {
	def := Default()
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = def.ListenAddress
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.RateLimits == nil {
		cfg.RateLimits = def.RateLimits
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = def.Observability.ServiceName
	}
	if cfg.Observability.MetricsPrefix == "" {
		cfg.Observability.MetricsPrefix = def.Observability.MetricsPrefix
	}
	if cfg.Auth.ScopeClaim == "" {
		cfg.Auth.ScopeClaim = def.Auth.ScopeClaim
	}
	if cfg.Auth.ClockSkew <= 0 {
		cfg.Auth.ClockSkew = def.Auth.ClockSkew
	}
}

// Validate rejects configurations the gateway cannot serve.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	for i, rl := range cfg.RateLimits {
		if strings.TrimSpace(rl.ID) == "" {
			return fmt.Errorf("rateLimits[%d].id required", i)
		}
		if rl.RatePerSecond <= 0 && rl.RequestsPerMinute <= 0 {
			return fmt.Errorf("rateLimits[%d] must set ratePerSecond or requestsPerMinute", i)
		}
		for j, p := range rl.Paths {
			if !strings.HasPrefix(strings.TrimSpace(p), "/") {
				return fmt.Errorf("rateLimits[%d].paths[%d] must start with '/'", i, j)
			}
		}
		if rl.DefaultTokens < 0 {
			return fmt.Errorf("rateLimits[%d].defaultTokens must not be negative", i)
		}
		if rl.Burst > 0 && rl.DefaultTokens > rl.Burst {
			return fmt.Errorf("rateLimits[%d].defaultTokens exceeds burst %d", i, rl.Burst)
		}
		for route, tokens := range rl.Tokens {
			method, path, ok := strings.Cut(route, " ")
			if !ok || method == "" || method != strings.ToUpper(method) || !strings.HasPrefix(path, "/") {
				return fmt.Errorf("rateLimits[%d].tokens key %q must look like \"METHOD /path\"", i, route)
			}
			if tokens <= 0 {
				return fmt.Errorf("rateLimits[%d].tokens[%q] must be positive", i, route)
			}
			if rl.Burst > 0 && tokens > rl.Burst {
				return fmt.Errorf("rateLimits[%d].tokens[%q] exceeds burst %d", i, route, rl.Burst)
			}
		}
	}
	if cfg.Auth.Enabled && strings.TrimSpace(cfg.Auth.HMACSecret) == "" {
		return fmt.Errorf("auth.hmacSecret required when auth is enabled")
	}
	trimmed := make([]string, len(cfg.Auth.OptionalPaths))
	for i, path := range cfg.Auth.OptionalPaths {
		p := strings.TrimSpace(path)
		if p == "" {
			return fmt.Errorf("auth.optionalPaths[%d] cannot be empty", i)
		}
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("auth.optionalPaths[%d] must start with '/'", i)
		}
		trimmed[i] = p
	}
	cfg.Auth.OptionalPaths = trimmed
	if (cfg.Security.TLSCertFile == "") != (cfg.Security.TLSKeyFile == "") {
		return fmt.Errorf("security.tlsCertFile and security.tlsKeyFile must be set together")
	}
	return nil
}

// TLSEnabled reports whether the gateway should serve HTTPS.
func (cfg Config) TLSEnabled() bool {
	return cfg.Security.TLSCertFile != "" && cfg.Security.TLSKeyFile != ""
}

// EnforceSecureScheme ensures the supplied URL uses HTTPS outside of the dev environment.
// If autoUpgrade is enabled, insecure HTTP URLs are transparently upgraded to HTTPS.
// The returned boolean indicates whether an upgrade occurred.
func EnforceSecureScheme(env string, target *url.URL, autoUpgrade bool) (*url.URL, bool, error) {
	if target == nil {
		return nil, false, fmt.Errorf("target URL is nil")
	}
	switch strings.ToLower(strings.TrimSpace(target.Scheme)) {
	case "https":
		return target, false, nil
	case "http":
		if isDevEnv(env) {
			return target, false, nil
		}
		if autoUpgrade {
			upgraded := *target
			upgraded.Scheme = "https"
			return &upgraded, true, nil
		}
		if strings.TrimSpace(env) == "" {
			env = "(unset)"
		}
		return nil, false, fmt.Errorf("plaintext HTTP endpoints are not permitted for environment %s", env)
	case "":
		return nil, false, fmt.Errorf("URL scheme is required")
	default:
		return nil, false, fmt.Errorf("unsupported URL scheme %q", target.Scheme)
	}
}

func isDevEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	}
	return false
}
