package reclaim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/postproof/internal/attest"
	"github.com/dmitrijs2005/postproof/internal/logging"
)

// Attestor creates verification sessions against the attestation service's
// REST API. Session results are delivered over a WebSocket subscription,
// see session.go.
type Attestor struct {
	baseURL   string
	wsURL     string
	appID     string
	appSecret string
	httpc     *http.Client
	log       logging.Logger
}

// AttestorConfig carries the application credentials issued by the
// attestation service and the two endpoints the client talks to.
type AttestorConfig struct {
	BaseURL   string
	WSURL     string
	AppID     string
	AppSecret string
	Timeout   time.Duration
	Logger    logging.Logger
}

func NewAttestor(cfg AttestorConfig) *Attestor {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Attestor{
		baseURL:   cfg.BaseURL,
		wsURL:     cfg.WSURL,
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
		httpc:     &http.Client{Timeout: cfg.Timeout},
		log:       log,
	}
}

type createSessionRequest struct {
	AppID      string `json:"appId"`
	ProviderID string `json:"providerId"`
	RequestID  string `json:"requestId"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// NewSession registers a fresh verification session bound to the given
// provider. The request id is client-generated so retries on the user's
// side never alias an older session.
func (a *Attestor) NewSession(ctx context.Context, providerID string) (attest.Session, error) {
	reqID := uuid.NewString()

	body, err := json.Marshal(createSessionRequest{AppID: a.appID, ProviderID: providerID, RequestID: reqID})
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-App-Secret", a.appSecret)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, mapStatus(resp.StatusCode, "create session")
	}

	var sr createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	if sr.SessionID == "" {
		return nil, fmt.Errorf("attestor returned an empty session id")
	}

	a.log.Info(ctx, "verification session created", "session_id", sr.SessionID, "provider_id", providerID)

	return &session{
		attestor:   a,
		id:         sr.SessionID,
		providerID: providerID,
		params:     make(map[string]string),
	}, nil
}
