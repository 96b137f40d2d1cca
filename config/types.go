package config

import (
	"time"

	gatewayconfig "coversdk/gateway/config"
)

// APIConfig points at the cover router pricing API.
type APIConfig struct {
	URL     string        `yaml:"url" toml:"url"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// IPFSConfig points at the metadata upload endpoint. An empty URL reuses the API URL.
type IPFSConfig struct {
	URL     string        `yaml:"url" toml:"url"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// CommissionConfig replaces the catalog's default distributor commission.
type CommissionConfig struct {
	Ratio       int64  `yaml:"ratio" toml:"ratio"`
	Destination string `yaml:"destination" toml:"destination"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB" toml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups" toml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays" toml:"maxAgeDays"`
}

// TelemetryConfig wires the OTLP exporters.
type TelemetryConfig struct {
	Endpoint    string  `yaml:"endpoint" toml:"endpoint"`
	Insecure    bool    `yaml:"insecure" toml:"insecure"`
	Headers     string  `yaml:"headers" toml:"headers"`
	Traces      bool    `yaml:"traces" toml:"traces"`
	Metrics     bool    `yaml:"metrics" toml:"metrics"`
	SampleRatio float64 `yaml:"sampleRatio" toml:"sampleRatio"`
}

// Config is the runtime configuration shared by coverctl and the gateway.
type Config struct {
	Environment     string               `yaml:"environment" toml:"environment"`
	SDKVersion      string               `yaml:"sdkVersion" toml:"sdkVersion"`
	API             APIConfig            `yaml:"api" toml:"api"`
	IPFS            IPFSConfig           `yaml:"ipfs" toml:"ipfs"`
	DefaultSlippage string               `yaml:"defaultSlippage" toml:"defaultSlippage"`
	Catalog         string               `yaml:"catalog" toml:"catalog"`
	Commission      *CommissionConfig    `yaml:"commission" toml:"commission"`
	Logging         LoggingConfig        `yaml:"logging" toml:"logging"`
	Telemetry       TelemetryConfig      `yaml:"telemetry" toml:"telemetry"`
	Gateway         gatewayconfig.Config `yaml:"gateway" toml:"gateway"`
}
