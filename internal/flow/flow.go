// Package flow wires the fetch-proof stage, the verification stage, and
// the proof aggregator into the end-to-end user-visible lifecycle: idle →
// fetched → verifying → verified or failed → reset. It owns the only
// mutable flow state; the stages stay stateless with respect to it.
package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/postproof/internal/fetchproof"
	"github.com/dmitrijs2005/postproof/internal/history"
	"github.com/dmitrijs2005/postproof/internal/logging"
	"github.com/dmitrijs2005/postproof/internal/posturl"
	"github.com/dmitrijs2005/postproof/internal/proofdata"
	"github.com/dmitrijs2005/postproof/internal/verify"
)

// ErrFetchInProgress guards against overlapping fetches. There is no queue;
// the user retries once the current attempt resolves.
var ErrFetchInProgress = errors.New("fetch already in progress")

// Archiver records verified posts. Implemented by history.Store; optional.
type Archiver interface {
	Record(ctx context.Context, rec *history.Record) error
}

// Snapshot is the read-only projection handed to the rendering layer. It
// is recomputed on request; the post record is always derived fresh from
// the current proof set.
type Snapshot struct {
	State    verify.State
	Fetching bool
	Username string
	Post     *proofdata.PostData
	Err      string
}

type Flow struct {
	fetch   *fetchproof.Stage
	stage   *verify.Stage
	extract *proofdata.Extractor
	archive Archiver
	log     logging.Logger

	mu       sync.Mutex
	fetching bool
	rawURL   string
	identity *fetchproof.Identity
	errMsg   string
	recorded bool
}

func New(fetch *fetchproof.Stage, stage *verify.Stage, extract *proofdata.Extractor, archive Archiver, log logging.Logger) *Flow {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Flow{
		fetch:   fetch,
		stage:   stage,
		extract: extract,
		archive: archive,
		log:     log,
	}
}

// Fetch retrieves the owner identity for rawURL and, when a username was
// extracted, initializes the verification stage against the same URL. A
// fetch replaces the previous identity wholesale and invalidates any prior
// verification session.
func (f *Flow) Fetch(ctx context.Context, rawURL string) error {
	f.mu.Lock()
	if f.fetching {
		f.mu.Unlock()
		return ErrFetchInProgress
	}
	f.fetching = true
	f.errMsg = ""
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.fetching = false
		f.mu.Unlock()
	}()

	f.stage.Reset(ctx)

	id, err := f.fetch.FetchOwnerIdentity(ctx, rawURL)
	if err != nil {
		f.mu.Lock()
		f.identity = nil
		f.errMsg = err.Error()
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.identity = id
	f.rawURL = rawURL
	f.recorded = false
	f.mu.Unlock()

	if id.Username == "" {
		f.log.Warn(ctx, "post owner could not be determined; verification not initialized", "url", rawURL)
		return nil
	}

	if err := f.stage.Initialize(ctx, rawURL); err != nil {
		f.mu.Lock()
		f.errMsg = err.Error()
		f.mu.Unlock()
		return err
	}
	return nil
}

// StartVerification triggers the user-initiated verification step.
func (f *Flow) StartVerification(ctx context.Context) error {
	if err := f.stage.Start(ctx); err != nil {
		f.mu.Lock()
		f.errMsg = err.Error()
		f.mu.Unlock()
		return err
	}
	return nil
}

// Reset returns the whole flow to its initial condition, including the
// URL input. The remote session, if pending, is merely abandoned.
func (f *Flow) Reset(ctx context.Context) {
	f.stage.Reset(ctx)

	f.mu.Lock()
	f.fetching = false
	f.rawURL = ""
	f.identity = nil
	f.errMsg = ""
	f.recorded = false
	f.mu.Unlock()
}

// Snapshot projects the current flow state. On the first snapshot after a
// successful verification the post is archived; archive failures are
// logged, never surfaced.
func (f *Flow) Snapshot(ctx context.Context) Snapshot {
	st := f.stage.State()

	var post *proofdata.PostData
	if st == verify.StateSucceeded {
		post = f.extract.PostData(ctx, f.stage.Proofs())
		f.maybeRecord(ctx, post)
	}

	f.mu.Lock()
	snap := Snapshot{
		State:    st,
		Fetching: f.fetching,
		Post:     post,
	}
	if f.identity != nil {
		snap.Username = f.identity.Username
	}
	snap.Err = f.errMsg
	f.mu.Unlock()

	if snap.Err == "" {
		if err := f.stage.Err(); err != nil {
			snap.Err = err.Error()
		}
	}
	return snap
}

func (f *Flow) maybeRecord(ctx context.Context, post *proofdata.PostData) {
	if post == nil || f.archive == nil {
		return
	}

	f.mu.Lock()
	if f.recorded {
		f.mu.Unlock()
		return
	}
	f.recorded = true
	rawURL := f.rawURL
	username := post.Username
	if username == "" && f.identity != nil {
		username = f.identity.Username
	}
	f.mu.Unlock()

	shortcode, _ := posturl.ExtractShortcode(rawURL)
	rec := &history.Record{
		ID:         uuid.NewString(),
		Shortcode:  shortcode,
		Username:   username,
		Likes:      post.Likes,
		Comments:   post.Comments,
		MediaCode:  post.MediaCode,
		VerifiedAt: time.Now(),
	}
	if err := f.archive.Record(ctx, rec); err != nil {
		f.log.Warn(ctx, "recording verification history failed", "error", err)
	}
}
