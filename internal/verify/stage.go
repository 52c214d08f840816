// Package verify drives the two-step attestation flow as an explicit state
// machine: initialize a session bound to the post identifier, open the
// out-of-band surface, navigate it to the verification URL, and await the
// asynchronous success/error callback.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/postproof/internal/attest"
	"github.com/dmitrijs2005/postproof/internal/logging"
	"github.com/dmitrijs2005/postproof/internal/posturl"
	"github.com/dmitrijs2005/postproof/internal/proofdata"
)

var (
	ErrNotInitialized       = errors.New("verification not initialized")
	ErrNoPostIdentifier     = errors.New("post url contains no identifier")
	ErrPopupBlocked         = errors.New("popup blocked")
	ErrClosedBeforeLoading  = errors.New("popup closed before loading")
	ErrInvalidProofResponse = errors.New("invalid proof response")
)

// Stage owns one verification attempt at a time: the session handle, the
// surface handle, and the resulting proof set. It is the only component
// allowed to close the surface.
//
// gen numbers the current attempt. Initialize and Reset bump it; every
// asynchronous resolution carries the value captured at registration and
// is dropped when it no longer matches, so a callback from an abandoned
// attempt cannot move the stage.
type Stage struct {
	attestor   attest.Attestor
	opener     attest.SurfaceOpener
	providerID string
	log        logging.Logger

	mu      sync.Mutex
	state   State
	gen     uint64
	session attest.Session
	surface attest.Surface
	proofs  []proofdata.Proof
	err     error
}

func NewStage(attestor attest.Attestor, opener attest.SurfaceOpener, providerID string, log logging.Logger) *Stage {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Stage{
		attestor:   attestor,
		opener:     opener,
		providerID: providerID,
		log:        log,
	}
}

func (s *Stage) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Stage) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Proofs returns the proof set of a succeeded attempt, in delivery order.
func (s *Stage) Proofs() []proofdata.Proof {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]proofdata.Proof, len(s.proofs))
	copy(out, s.proofs)
	return out
}

// Initialize binds a fresh session to the identifier extracted from the
// current URL. It is invoked whenever a new owner identity becomes
// available, which invalidates any prior session handle. A URL without a
// post identifier fails the attempt before any remote call.
func (s *Stage) Initialize(ctx context.Context, rawURL string) error {
	s.mu.Lock()
	s.discardAttemptLocked(ctx)
	s.gen++
	gen := s.gen
	s.state = StateInitializing
	s.proofs = nil
	s.err = nil
	s.mu.Unlock()

	shortcode, ok := posturl.ExtractShortcode(rawURL)
	if !ok {
		return s.fail(ctx, gen, fmt.Errorf("%w: %q", ErrNoPostIdentifier, rawURL))
	}

	sess, err := s.attestor.NewSession(ctx, s.providerID)
	if err != nil {
		return s.fail(ctx, gen, fmt.Errorf("session init error: %w", err))
	}
	sess.SetParameter("url", posturl.Normalize(rawURL))
	sess.SetParameter("media_code", shortcode)

	s.mu.Lock()
	if gen != s.gen {
		// Reset or a newer Initialize won the race while the session was
		// being created; this attempt is already abandoned.
		s.mu.Unlock()
		_ = sess.Close()
		return nil
	}
	s.session = sess
	s.state = StateReady
	s.mu.Unlock()

	s.log.Info(ctx, "verification session ready", "shortcode", shortcode)
	return nil
}

// Start runs the user-triggered verification sequence. The surface is
// opened eagerly, before the verification URL is requested, so that popup
// blockers do not reject a surface opened from inside an asynchronous
// callback. The three steps (open, fetch URL, navigate) are strictly
// sequential so the handle can be re-validated before navigation.
//
// Starting while not in StateReady is a no-op that returns
// ErrNotInitialized without altering state.
func (s *Stage) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.state = StateAwaitingPopup
	gen := s.gen
	sess := s.session
	s.mu.Unlock()

	surf, err := s.opener.Open(ctx)
	if err != nil || surf == nil || !surf.IsOpen() {
		return s.fail(ctx, gen, ErrPopupBlocked)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		_ = surf.Close()
		return nil
	}
	s.surface = surf
	s.mu.Unlock()

	url, err := sess.VerificationURL(ctx)
	if err != nil {
		return s.fail(ctx, gen, fmt.Errorf("verification url error: %w", err))
	}

	// The user may have closed the surface while the URL request was pending.
	if !surf.IsOpen() {
		return s.fail(ctx, gen, ErrClosedBeforeLoading)
	}

	if err := surf.Navigate(url); err != nil {
		return s.fail(ctx, gen, fmt.Errorf("popup navigation error: %w", err))
	}

	if err := sess.Listen(ctx,
		func(raw json.RawMessage) { s.handleSuccess(ctx, gen, raw) },
		func(err error) { s.handleError(ctx, gen, err) },
	); err != nil {
		return s.fail(ctx, gen, fmt.Errorf("listen error: %w", err))
	}

	// The callback may already have resolved the attempt; only move to
	// verifying when the sequence is still in flight.
	s.mu.Lock()
	if gen == s.gen && s.state == StateAwaitingPopup {
		s.state = StateVerifying
	}
	s.mu.Unlock()
	return nil
}

// Reset returns the stage to its initial condition from any state,
// discarding the session handle, the surface, the proof set, and the error.
func (s *Stage) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardAttemptLocked(ctx)
	s.gen++
	s.state = StateUninitialized
	s.proofs = nil
	s.err = nil
}

// handleSuccess validates the proof payload delivered by the success
// callback. A payload that is absent or a bare string resolves the attempt
// to StateFailed with an invalid-proof-response error instead. Results of
// an attempt that has since been reset or replaced are dropped.
func (s *Stage) handleSuccess(ctx context.Context, gen uint64, raw json.RawMessage) {
	proofs, err := proofdata.DecodeProofs(raw)
	if err != nil {
		_ = s.fail(ctx, gen, fmt.Errorf("%w: %v", ErrInvalidProofResponse, err))
		return
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug(ctx, "dropping success result of an abandoned attempt")
		return
	}
	s.proofs = proofs
	s.state = StateSucceeded
	s.closeSurfaceLocked(ctx)
	s.mu.Unlock()

	s.log.Info(ctx, "verification succeeded", "proofs", len(proofs))
}

// handleError records the collaborator's error callback and closes the
// surface if it is still open.
func (s *Stage) handleError(ctx context.Context, gen uint64, err error) {
	_ = s.fail(ctx, gen, fmt.Errorf("verification error: %w", err))
}

// fail resolves the attempt identified by gen to StateFailed, recording err
// and best-effort closing any open surface. When gen is no longer current
// the stage is left untouched. The error is returned for synchronous
// callers either way.
func (s *Stage) fail(ctx context.Context, gen uint64, err error) error {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug(ctx, "dropping error result of an abandoned attempt", "error", err)
		return err
	}
	s.err = err
	s.state = StateFailed
	s.closeSurfaceLocked(ctx)
	s.mu.Unlock()

	s.log.Error(ctx, "verification failed", "error", err)
	return err
}

// discardAttemptLocked drops the session and surface of the current
// attempt. Callers must hold s.mu.
func (s *Stage) discardAttemptLocked(ctx context.Context) {
	if s.session != nil {
		if err := s.session.Close(); err != nil {
			s.log.Warn(ctx, "closing session failed", "error", err)
		}
		s.session = nil
	}
	s.closeSurfaceLocked(ctx)
}

// closeSurfaceLocked best-effort closes the surface; close failures are
// swallowed and logged, never escalated. Callers must hold s.mu.
func (s *Stage) closeSurfaceLocked(ctx context.Context) {
	if s.surface == nil {
		return
	}
	if s.surface.IsOpen() {
		if err := s.surface.Close(); err != nil {
			s.log.Warn(ctx, "closing surface failed", "error", err)
		}
	}
	s.surface = nil
}
