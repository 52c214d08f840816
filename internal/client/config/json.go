package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/postproof/internal/flagx"
	"github.com/dmitrijs2005/postproof/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the timeout either as a string like
// "30s" or as integer nanoseconds. Only fields present in the file override
// the running config.
type JsonConfig struct {
	SignerEndpoint     string         `json:"signer_endpoint"`
	FetchEndpoint      string         `json:"fetch_endpoint"`
	AttestorEndpoint   string         `json:"attestor_endpoint"`
	AttestorWSEndpoint string         `json:"attestor_ws_endpoint"`
	AppID              string         `json:"app_id"`
	AppSecret          string         `json:"app_secret"`
	ProviderID         string         `json:"provider_id"`
	HistoryDBPath      string         `json:"history_db_path"`
	HistoryMaxEntries  int            `json:"history_max_entries"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Panics on read or unmarshal errors (caller should recover if desired).
// Intended usage: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlayString(&cfg.SignerEndpoint, jc.SignerEndpoint)
	overlayString(&cfg.FetchEndpoint, jc.FetchEndpoint)
	overlayString(&cfg.AttestorEndpoint, jc.AttestorEndpoint)
	overlayString(&cfg.AttestorWSEndpoint, jc.AttestorWSEndpoint)
	overlayString(&cfg.AppID, jc.AppID)
	overlayString(&cfg.AppSecret, jc.AppSecret)
	overlayString(&cfg.ProviderID, jc.ProviderID)
	overlayString(&cfg.HistoryDBPath, jc.HistoryDBPath)
	if jc.HistoryMaxEntries > 0 {
		cfg.HistoryMaxEntries = jc.HistoryMaxEntries
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
