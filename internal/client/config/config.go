package config

import "time"

// Config holds runtime settings for the PostProof CLI.
//
// Fields:
//   - SignerEndpoint: URL of the backend signing endpoint (token issuance).
//   - FetchEndpoint: URL of the attestor's proof-producing fetch endpoint.
//   - AttestorEndpoint: base URL of the attestor's session REST API.
//   - AttestorWSEndpoint: base URL of the attestor's session update feed.
//   - AppID / AppSecret: application credentials issued by the attestor.
//     AppSecret may be left empty and entered interactively at startup.
//   - ProviderID: identifier of the attestation provider for post ownership.
//   - HistoryDBPath: path of the local verification history database.
//   - HistoryMaxEntries: how many history records are kept.
//   - RequestTimeout: per-request timeout for all HTTP calls.
type Config struct {
	SignerEndpoint     string
	FetchEndpoint      string
	AttestorEndpoint   string
	AttestorWSEndpoint string
	AppID              string
	AppSecret          string
	ProviderID         string
	HistoryDBPath      string
	HistoryMaxEntries  int
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults for local development.
func (c *Config) LoadDefaults() {
	c.SignerEndpoint = "http://127.0.0.1:8085/sign"
	c.FetchEndpoint = "http://127.0.0.1:8086/zkfetch"
	c.AttestorEndpoint = "http://127.0.0.1:8086"
	c.AttestorWSEndpoint = "ws://127.0.0.1:8086"
	c.ProviderID = "instagram-post"
	c.HistoryDBPath = "postproof.db"
	c.HistoryMaxEntries = 100
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
