package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"coversdk/core/products"
)

const (
	// DefaultAPIURL is the public cover router.
	DefaultAPIURL = "https://api.nexusmutual.io/v2"
	// DefaultSDKVersion is reported to the upload service when none is configured.
	DefaultSDKVersion = "1.0.0"
	// DefaultSlippage is applied to quotes that do not name a slippage.
	DefaultSlippage = "0.001"

	defaultTimeout = 30 * time.Second
)

// Environment variables overriding file values.
const (
	EnvRouterURL   = "COVER_ROUTER_URL"
	EnvIPFSURL     = "COVER_IPFS_URL"
	EnvEnvironment = "COVER_ENV"
)

// Default returns the configuration used when no file is supplied.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file, applies defaults and
// environment overrides, then validates. An empty path yields Default with
// environment overrides.
func Load(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".toml":
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, key := range undecoded {
				keys = append(keys, key.String())
			}
			return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

func (cfg *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvRouterURL); ok && strings.TrimSpace(v) != "" {
		cfg.API.URL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvIPFSURL); ok && strings.TrimSpace(v) != "" {
		cfg.IPFS.URL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvEnvironment); ok && strings.TrimSpace(v) != "" {
		cfg.Environment = strings.TrimSpace(v)
	}
}

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "dev"
	}
	if strings.TrimSpace(cfg.SDKVersion) == "" {
		cfg.SDKVersion = DefaultSDKVersion
	}
	if strings.TrimSpace(cfg.API.URL) == "" {
		cfg.API.URL = DefaultAPIURL
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = defaultTimeout
	}
	if strings.TrimSpace(cfg.IPFS.URL) == "" {
		cfg.IPFS.URL = cfg.API.URL
	}
	if cfg.IPFS.Timeout <= 0 {
		cfg.IPFS.Timeout = cfg.API.Timeout
	}
	if strings.TrimSpace(cfg.DefaultSlippage) == "" {
		cfg.DefaultSlippage = DefaultSlippage
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Gateway.ApplyDefaults()
}

// Slippage returns the parsed default slippage fraction. It assumes Validate passed.
func (cfg Config) Slippage() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(cfg.DefaultSlippage))
	if err != nil {
		return decimal.RequireFromString(DefaultSlippage)
	}
	return d
}

// LoadCatalog returns the configured product catalog: the file named by
// Catalog, or the embedded default, with the commission override applied.
func (cfg Config) LoadCatalog() (*products.Catalog, error) {
	var (
		catalog *products.Catalog
		err     error
	)
	if path := strings.TrimSpace(cfg.Catalog); path != "" {
		catalog, err = products.Load(path)
	} else {
		catalog, err = products.Default()
	}
	if err != nil {
		return nil, err
	}
	if cfg.Commission == nil {
		return catalog, nil
	}
	return catalog.WithCommission(products.Commission{
		Ratio:       cfg.Commission.Ratio,
		Destination: cfg.Commission.Destination,
	})
}
