// Package reclaim contains the concrete HTTP/WebSocket clients for the
// attestation collaborators: the backend signing endpoint, the zk-fetch
// endpoint, and the verification session API. The proof machinery behind
// these endpoints is opaque; this package only moves typed payloads.
package reclaim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/postproof/internal/attest"
)

// SignerClient obtains short-lived signed tokens from the backend signing
// endpoint. The endpoint takes no input; the token authorizes subsequent
// zk-fetch calls.
type SignerClient struct {
	endpoint string
	httpc    *http.Client
}

func NewSignerClient(endpoint string, timeout time.Duration) *SignerClient {
	return &SignerClient{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
	}
}

type signerResponse struct {
	Token string `json:"token"`
}

// SigningToken requests a fresh token. Tokens that decode as JWTs are
// screened for expiry locally so an already-stale credential fails fast;
// opaque non-JWT tokens are passed through untouched. Signature checking
// belongs to the attestation service, not to this client.
func (c *SignerClient) SigningToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", fmt.Errorf("build signer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("signing token request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", mapStatus(resp.StatusCode, "signer")
	}

	var sr signerResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode signer response: %w", err)
	}
	if sr.Token == "" {
		return "", fmt.Errorf("signer returned an empty token")
	}

	if err := screenExpiry(sr.Token); err != nil {
		return "", err
	}
	return sr.Token, nil
}

// screenExpiry rejects JWT-shaped tokens whose exp claim already passed.
func screenExpiry(token string) error {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		// Not a JWT; treat as opaque.
		return nil
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return attest.ErrTokenExpired
	}
	return nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// mapStatus converts an HTTP status into the shared sentinel errors so
// callers can classify failures with errors.Is.
func mapStatus(code int, what string) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%s: %w", what, attest.ErrUnauthorized)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%s: status %d: %w", what, code, attest.ErrUnavailable)
	default:
		return fmt.Errorf("%s: unexpected status %d", what, code)
	}
}
