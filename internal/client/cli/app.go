package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/dmitrijs2005/postproof/internal/attest/browser"
	"github.com/dmitrijs2005/postproof/internal/attest/reclaim"
	"github.com/dmitrijs2005/postproof/internal/client/config"
	"github.com/dmitrijs2005/postproof/internal/common"
	"github.com/dmitrijs2005/postproof/internal/fetchproof"
	"github.com/dmitrijs2005/postproof/internal/flow"
	"github.com/dmitrijs2005/postproof/internal/history"
	"github.com/dmitrijs2005/postproof/internal/logging"
	"github.com/dmitrijs2005/postproof/internal/proofdata"
	"github.com/dmitrijs2005/postproof/internal/verify"

	_ "modernc.org/sqlite"
)

type App struct {
	config *config.Config
	flow   *flow.Flow
	store  *history.Store
	db     *sql.DB
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if cfg.AppSecret == "" {
		secret, err := getSecret(os.Stdout, "Enter application secret")
		if err != nil {
			return nil, err
		}
		cfg.AppSecret = string(secret)
		common.WipeByteArray(secret)
	}

	db, err := history.InitDatabase(ctx, cfg.HistoryDBPath)
	if err != nil {
		log.Error(ctx, "error initializing history database", "error", err)
		return nil, err
	}
	store := history.NewStore(db, cfg.HistoryMaxEntries)

	signer := reclaim.NewSignerClient(cfg.SignerEndpoint, cfg.RequestTimeout)
	fetcher := reclaim.NewFetchClient(cfg.FetchEndpoint, cfg.RequestTimeout)
	attestor := reclaim.NewAttestor(reclaim.AttestorConfig{
		BaseURL:   cfg.AttestorEndpoint,
		WSURL:     cfg.AttestorWSEndpoint,
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		Timeout:   cfg.RequestTimeout,
		Logger:    log,
	})

	fetchStage := fetchproof.NewStage(signer, fetcher, log)
	verifyStage := verify.NewStage(attestor, browser.NewOpener(log), cfg.ProviderID, log)
	extractor := proofdata.NewExtractor(log)

	return &App{
		config: cfg,
		flow:   flow.New(fetchStage, verifyStage, extractor, store, log),
		store:  store,
		db:     db,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
