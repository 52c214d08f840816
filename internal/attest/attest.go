// Package attest declares the external collaborator capabilities the
// verification flow consumes: the backend signer, the proof-producing
// fetcher, the attestation session, and the out-of-band browser surface.
// All of them are opaque to this application; concrete clients live in
// subpackages and tests substitute hand-written fakes.
package attest

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/postproof/internal/proofdata"
)

// TokenSource obtains a short-lived signed credential from the backend
// signing endpoint. It takes no input and carries no business logic.
type TokenSource interface {
	SigningToken(ctx context.Context) (string, error)
}

// FetchRule is a named-capture extraction rule applied by the attestation
// service to the fetched document. Pattern uses (?P<name>...) groups.
type FetchRule struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

// FetchResult is the outcome of a proof-producing fetch: the parameter
// values matched by the extraction rules plus the opaque proof artifact.
type FetchResult struct {
	ExtractedValues map[string]string
	Proof           proofdata.Proof
}

// ProofFetcher retrieves a document through the attestation service so that
// its content is accompanied by a proof artifact.
type ProofFetcher interface {
	FetchWithProof(ctx context.Context, url string, headers map[string]string, rules []FetchRule, token string) (*FetchResult, error)
}

// Session is a stateful handle to one in-progress attestation exchange,
// bound to a single post identifier. At most one session is active at a
// time; a new fetch of the owner identity invalidates any prior handle.
type Session interface {
	// SetParameter records a provider parameter (e.g. the post URL) to be
	// embedded in the verification request.
	SetParameter(name, value string)

	// VerificationURL returns the URL the user must visit to complete the
	// out-of-band verification step. May suspend on a remote call.
	VerificationURL(ctx context.Context) (string, error)

	// Listen registers interest in the session outcome. Exactly one of the
	// callbacks is invoked, once, when the external service resolves the
	// session. The registration itself may fail synchronously.
	Listen(ctx context.Context, onSuccess func(json.RawMessage), onError func(error)) error

	// Close releases local resources (e.g. the result subscription). It does
	// not cancel the remote session.
	Close() error
}

// Attestor constructs verification sessions bound to a provider.
type Attestor interface {
	NewSession(ctx context.Context, providerID string) (Session, error)
}

// Surface is the out-of-band browser surface used for the interactive
// verification step. It is owned exclusively by the verification stage for
// the duration of one attempt, which is the only component allowed to
// close it.
type Surface interface {
	IsOpen() bool
	Navigate(url string) error
	Close() error
}

// SurfaceOpener opens a fresh surface. Opening eagerly, before any remote
// call, keeps popup blockers from rejecting a surface opened inside an
// asynchronous callback.
type SurfaceOpener interface {
	Open(ctx context.Context) (Surface, error)
}
