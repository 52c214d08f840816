package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/postproof/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string   signer endpoint URL
//	-f string   proof fetch endpoint URL
//	-a string   attestor REST base URL
//	-w string   attestor WebSocket base URL
//	-app string application id
//	-p string   provider id
//	-d string   history database path
//	-t int      request timeout in seconds
//
// The function filters os.Args down to the flags it knows about, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-f", "-a", "-w", "-app", "-p", "-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.SignerEndpoint, "s", cfg.SignerEndpoint, "signer endpoint URL")
	fs.StringVar(&cfg.FetchEndpoint, "f", cfg.FetchEndpoint, "proof fetch endpoint URL")
	fs.StringVar(&cfg.AttestorEndpoint, "a", cfg.AttestorEndpoint, "attestor REST base URL")
	fs.StringVar(&cfg.AttestorWSEndpoint, "w", cfg.AttestorWSEndpoint, "attestor WebSocket base URL")
	fs.StringVar(&cfg.AppID, "app", cfg.AppID, "application id")
	fs.StringVar(&cfg.ProviderID, "p", cfg.ProviderID, "provider id")
	fs.StringVar(&cfg.HistoryDBPath, "d", cfg.HistoryDBPath, "history database path")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
