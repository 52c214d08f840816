// Package fetchproof retrieves the owner identity of a post together with
// a proof artifact over the fetch. Two sequential remote calls are made:
// token acquisition, then the proof-producing fetch of the canonical embed
// document.
package fetchproof

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/postproof/internal/attest"
	"github.com/dmitrijs2005/postproof/internal/logging"
	"github.com/dmitrijs2005/postproof/internal/posturl"
	"github.com/dmitrijs2005/postproof/internal/proofdata"
)

// Identity is the result of one fetch attempt. Username stays empty when
// the extraction rule found no match; the proof artifact is kept either
// way. Attempts replace each other wholesale; nothing is merged.
type Identity struct {
	Username string
	Proof    proofdata.Proof
}

// usernameRule extracts the owner's username from the embed document.
var usernameRule = attest.FetchRule{
	Name:    "username",
	Pattern: `"username":"(?P<username>[^"]+)"`,
}

var embedHeaders = map[string]string{
	"Accept": "text/html",
}

type Stage struct {
	tokens  attest.TokenSource
	fetcher attest.ProofFetcher
	log     logging.Logger
}

func NewStage(tokens attest.TokenSource, fetcher attest.ProofFetcher, log logging.Logger) *Stage {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Stage{tokens: tokens, fetcher: fetcher, log: log}
}

// FetchOwnerIdentity normalizes the raw post URL and fetches it with proof.
// Either remote call failing fails the whole attempt with no partial state;
// re-invoking retries from scratch. Invocations are independent and not
// deduplicated here; the orchestrator serializes them.
func (s *Stage) FetchOwnerIdentity(ctx context.Context, rawURL string) (*Identity, error) {
	url := posturl.Normalize(rawURL)

	token, err := s.tokens.SigningToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("signing token error: %w", err)
	}

	res, err := s.fetcher.FetchWithProof(ctx, url, embedHeaders, []attest.FetchRule{usernameRule}, token)
	if err != nil {
		return nil, fmt.Errorf("proof fetch error: %w", err)
	}

	username := res.ExtractedValues[usernameRule.Name]
	if username == "" {
		s.log.Warn(ctx, "username pattern did not match fetched document", "url", url)
	}

	return &Identity{Username: username, Proof: res.Proof}, nil
}
