package reclaim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// session is one in-progress verification exchange. The verification URL is
// retrieved over REST; the outcome arrives over a WebSocket subscription
// keyed by the session id. Exactly one of the Listen callbacks fires, once.
type session struct {
	attestor   *Attestor
	id         string
	providerID string

	mu     sync.Mutex
	params map[string]string

	conn      *websocket.Conn
	closeOnce sync.Once
}

func (s *session) SetParameter(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params[name] = value
}

type linkRequest struct {
	Parameters map[string]string `json:"parameters"`
}

type linkResponse struct {
	URL string `json:"url"`
}

// VerificationURL asks the service to mint the interactive verification
// link carrying the recorded parameters.
func (s *session) VerificationURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	params := make(map[string]string, len(s.params))
	for k, v := range s.params {
		params[k] = v
	}
	s.mu.Unlock()

	body, err := json.Marshal(linkRequest{Parameters: params})
	if err != nil {
		return "", fmt.Errorf("marshal link request: %w", err)
	}

	url := fmt.Sprintf("%s/sessions/%s/link", s.attestor.baseURL, s.id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build link request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-App-Secret", s.attestor.appSecret)

	resp, err := s.attestor.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("request verification url: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", mapStatus(resp.StatusCode, "verification url")
	}

	var lr linkResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("decode link response: %w", err)
	}
	if lr.URL == "" {
		return "", fmt.Errorf("attestor returned an empty verification url")
	}
	return lr.URL, nil
}

// resultMessage is the wire shape of a session outcome notification.
type resultMessage struct {
	Type    string          `json:"type"`
	Proofs  json.RawMessage `json:"proofs,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Listen subscribes to the session result feed. The read loop runs on its
// own goroutine; callback delivery is serialized through a sync.Once so a
// racing read error after a success message is dropped.
func (s *session) Listen(ctx context.Context, onSuccess func(json.RawMessage), onError func(error)) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, resp, err := dialer.DialContext(ctx, fmt.Sprintf("%s/sessions/%s/updates", s.attestor.wsURL, s.id), nil)
	if resp != nil && resp.Body != nil {
		drainAndClose(resp.Body)
	}
	if err != nil {
		return fmt.Errorf("dial session updates: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	var once sync.Once
	go func() {
		for {
			var msg resultMessage
			if err := conn.ReadJSON(&msg); err != nil {
				once.Do(func() { onError(fmt.Errorf("session updates read: %w", err)) })
				return
			}

			switch msg.Type {
			case "success":
				once.Do(func() { onSuccess(msg.Proofs) })
				return
			case "error", "failed":
				m := msg.Message
				if m == "" {
					m = "verification failed"
				}
				once.Do(func() { onError(errors.New(m)) })
				return
			default:
				// Progress notifications are informational only.
				s.attestor.log.Debug(ctx, "session update", "session_id", s.id, "type", msg.Type)
			}
		}
	}()

	return nil
}

// Close tears down the local subscription. The remote session, if still
// pending, is left to expire server-side.
func (s *session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			err = conn.Close()
		}
	})
	return err
}
