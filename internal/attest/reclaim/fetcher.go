package reclaim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/postproof/internal/attest"
	"github.com/dmitrijs2005/postproof/internal/proofdata"
)

// FetchClient performs proof-producing fetches: the attestation service
// retrieves the document, applies the extraction rules, and returns the
// matched values together with a proof artifact over the fetch.
type FetchClient struct {
	endpoint string
	httpc    *http.Client
}

func NewFetchClient(endpoint string, timeout time.Duration) *FetchClient {
	return &FetchClient{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
	}
}

type fetchRequest struct {
	URL             string             `json:"url"`
	Headers         map[string]string  `json:"headers,omitempty"`
	ResponseMatches []attest.FetchRule `json:"responseMatches"`
}

type fetchResponse struct {
	ExtractedParameterValues map[string]string `json:"extractedParameterValues"`
	Proof                    proofdata.Proof   `json:"proof"`
}

func (c *FetchClient) FetchWithProof(ctx context.Context, url string, headers map[string]string, rules []attest.FetchRule, token string) (*attest.FetchResult, error) {
	body, err := json.Marshal(fetchRequest{URL: url, Headers: headers, ResponseMatches: rules})
	if err != nil {
		return nil, fmt.Errorf("marshal fetch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proof fetch request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, mapStatus(resp.StatusCode, "proof fetch")
	}

	var fr fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("decode fetch response: %w", err)
	}

	values := fr.ExtractedParameterValues
	if values == nil {
		values = map[string]string{}
	}
	return &attest.FetchResult{ExtractedValues: values, Proof: fr.Proof}, nil
}
