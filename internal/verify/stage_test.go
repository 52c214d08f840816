package verify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/postproof/internal/attest"
)

// ---- fakes ----

type fakeSurface struct {
	open        bool
	NavigatedTo string
	NavigateErr error
	CloseErr    error
	CloseCalls  int
}

func (f *fakeSurface) IsOpen() bool { return f.open }

func (f *fakeSurface) Navigate(url string) error {
	f.NavigatedTo = url
	return f.NavigateErr
}

func (f *fakeSurface) Close() error {
	f.CloseCalls++
	f.open = false
	return f.CloseErr
}

type fakeOpener struct {
	Surface *fakeSurface
	Err     error
	Calls   int
}

func (f *fakeOpener) Open(ctx context.Context) (attest.Surface, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Surface, nil
}

type fakeSession struct {
	Params map[string]string

	URL        string
	URLErr     error
	URLCalls   int
	OnURLFetch func() // runs while the URL request is "pending"

	ListenErr error
	OnSuccess func(json.RawMessage)
	OnError   func(error)

	CloseCalls int
}

func (f *fakeSession) SetParameter(name, value string) {
	if f.Params == nil {
		f.Params = map[string]string{}
	}
	f.Params[name] = value
}

func (f *fakeSession) VerificationURL(ctx context.Context) (string, error) {
	f.URLCalls++
	if f.OnURLFetch != nil {
		f.OnURLFetch()
	}
	return f.URL, f.URLErr
}

func (f *fakeSession) Listen(ctx context.Context, onSuccess func(json.RawMessage), onError func(error)) error {
	f.OnSuccess = onSuccess
	f.OnError = onError
	return f.ListenErr
}

func (f *fakeSession) Close() error {
	f.CloseCalls++
	return nil
}

type fakeAttestor struct {
	Session *fakeSession
	Err     error

	LastProviderID string
	Sessions       []*fakeSession
}

func (f *fakeAttestor) NewSession(ctx context.Context, providerID string) (attest.Session, error) {
	f.LastProviderID = providerID
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Session != nil {
		f.Sessions = append(f.Sessions, f.Session)
		return f.Session, nil
	}
	sess := &fakeSession{URL: "https://verify.example/x"}
	f.Sessions = append(f.Sessions, sess)
	return sess, nil
}

func newTestStage(att *fakeAttestor, op *fakeOpener) *Stage {
	return NewStage(att, op, "provider-ig", nil)
}

const postURL = "https://www.instagram.com/p/ABC123/"

// ---- initialize ----

func TestInitialize_Success(t *testing.T) {
	att := &fakeAttestor{Session: &fakeSession{URL: "u"}}
	s := newTestStage(att, &fakeOpener{})

	require.NoError(t, s.Initialize(context.Background(), postURL))
	require.Equal(t, StateReady, s.State())

	require.Equal(t, "provider-ig", att.LastProviderID)
	require.Equal(t, "https://www.instagram.com/p/ABC123/embed/", att.Session.Params["url"])
	require.Equal(t, "ABC123", att.Session.Params["media_code"])
}

func TestInitialize_NoIdentifier_FailsBeforeSessionCreation(t *testing.T) {
	att := &fakeAttestor{}
	s := newTestStage(att, &fakeOpener{})

	err := s.Initialize(context.Background(), "https://www.instagram.com/someuser/")
	require.ErrorIs(t, err, ErrNoPostIdentifier)
	require.Equal(t, StateFailed, s.State())
	require.Empty(t, att.Sessions, "session must not be created without an identifier")
}

func TestInitialize_SessionError_Fails(t *testing.T) {
	att := &fakeAttestor{Err: errors.New("bad credentials")}
	s := newTestStage(att, &fakeOpener{})

	err := s.Initialize(context.Background(), postURL)
	require.Error(t, err)
	require.Equal(t, StateFailed, s.State())
	require.ErrorContains(t, s.Err(), "session init error")
}

func TestInitialize_ReplacesPriorSession(t *testing.T) {
	first := &fakeSession{URL: "u"}
	att := &fakeAttestor{Session: first}
	s := newTestStage(att, &fakeOpener{})

	require.NoError(t, s.Initialize(context.Background(), postURL))

	second := &fakeSession{URL: "u2"}
	att.Session = second
	require.NoError(t, s.Initialize(context.Background(), postURL))

	require.Equal(t, 1, first.CloseCalls, "prior session handle must be discarded")
	require.Equal(t, StateReady, s.State())
}

// ---- start ----

func TestStart_WhileUninitialized_NoOpWithError(t *testing.T) {
	s := newTestStage(&fakeAttestor{}, &fakeOpener{})

	err := s.Start(context.Background())
	require.ErrorIs(t, err, ErrNotInitialized)
	require.Equal(t, StateUninitialized, s.State())
	require.Nil(t, s.Err(), "error slot must stay untouched")
}

func TestStart_PopupBlocked_URLNeverRequested(t *testing.T) {
	sess := &fakeSession{URL: "u"}
	att := &fakeAttestor{Session: sess}
	op := &fakeOpener{Surface: &fakeSurface{open: false}}
	s := newTestStage(att, op)

	require.NoError(t, s.Initialize(context.Background(), postURL))

	err := s.Start(context.Background())
	require.ErrorIs(t, err, ErrPopupBlocked)
	require.Equal(t, StateFailed, s.State())
	require.Zero(t, sess.URLCalls, "verification url must not be requested after a blocked popup")
}

func TestStart_OpenerError_PopupBlocked(t *testing.T) {
	att := &fakeAttestor{Session: &fakeSession{URL: "u"}}
	op := &fakeOpener{Err: errors.New("window.open returned null")}
	s := newTestStage(att, op)

	require.NoError(t, s.Initialize(context.Background(), postURL))
	require.ErrorIs(t, s.Start(context.Background()), ErrPopupBlocked)
	require.Equal(t, StateFailed, s.State())
}

func TestStart_SurfaceClosedWhileURLPending(t *testing.T) {
	surf := &fakeSurface{open: true}
	sess := &fakeSession{URL: "u"}
	// The user closes the popup while the URL request is in flight.
	sess.OnURLFetch = func() { surf.open = false }

	att := &fakeAttestor{Session: sess}
	s := newTestStage(att, &fakeOpener{Surface: surf})

	require.NoError(t, s.Initialize(context.Background(), postURL))

	err := s.Start(context.Background())
	require.ErrorIs(t, err, ErrClosedBeforeLoading)
	require.Equal(t, StateFailed, s.State())
	require.Empty(t, surf.NavigatedTo, "closed surface must not be navigated")
}

func TestStart_URLError_ClosesSurface(t *testing.T) {
	surf := &fakeSurface{open: true}
	att := &fakeAttestor{Session: &fakeSession{URLErr: errors.New("session expired")}}
	s := newTestStage(att, &fakeOpener{Surface: surf})

	require.NoError(t, s.Initialize(context.Background(), postURL))
	require.Error(t, s.Start(context.Background()))
	require.Equal(t, StateFailed, s.State())
	require.Equal(t, 1, surf.CloseCalls)
}

func TestStart_SurfaceCloseErrorIsSwallowed(t *testing.T) {
	surf := &fakeSurface{open: true, CloseErr: errors.New("already gone")}
	att := &fakeAttestor{Session: &fakeSession{URLErr: errors.New("boom")}}
	s := newTestStage(att, &fakeOpener{Surface: surf})

	require.NoError(t, s.Initialize(context.Background(), postURL))

	err := s.Start(context.Background())
	require.ErrorContains(t, err, "verification url error")
	require.NotContains(t, err.Error(), "already gone")
}

func TestStart_SequenceOrderAndVerifyingState(t *testing.T) {
	surf := &fakeSurface{open: true}
	sess := &fakeSession{URL: "https://verify.example/sess"}
	att := &fakeAttestor{Session: sess}
	s := newTestStage(att, &fakeOpener{Surface: surf})

	require.NoError(t, s.Initialize(context.Background(), postURL))
	require.NoError(t, s.Start(context.Background()))

	require.Equal(t, StateVerifying, s.State())
	require.Equal(t, "https://verify.example/sess", surf.NavigatedTo)
	require.NotNil(t, sess.OnSuccess)
	require.NotNil(t, sess.OnError)
}

func TestStart_ListenError_Fails(t *testing.T) {
	surf := &fakeSurface{open: true}
	att := &fakeAttestor{Session: &fakeSession{URL: "u", ListenErr: errors.New("subscribe failed")}}
	s := newTestStage(att, &fakeOpener{Surface: surf})

	require.NoError(t, s.Initialize(context.Background(), postURL))
	require.Error(t, s.Start(context.Background()))
	require.Equal(t, StateFailed, s.State())
}

func TestStart_Twice_SecondIsNoOp(t *testing.T) {
	surf := &fakeSurface{open: true}
	sess := &fakeSession{URL: "u"}
	att := &fakeAttestor{Session: sess}
	op := &fakeOpener{Surface: surf}
	s := newTestStage(att, op)

	require.NoError(t, s.Initialize(context.Background(), postURL))
	require.NoError(t, s.Start(context.Background()))

	err := s.Start(context.Background())
	require.ErrorIs(t, err, ErrNotInitialized)
	require.Equal(t, StateVerifying, s.State())
	require.Equal(t, 1, op.Calls)
}

// ---- callbacks ----

func startedStage(t *testing.T) (*Stage, *fakeSession, *fakeSurface) {
	t.Helper()
	surf := &fakeSurface{open: true}
	sess := &fakeSession{URL: "u"}
	att := &fakeAttestor{Session: sess}
	s := newTestStage(att, &fakeOpener{Surface: surf})

	require.NoError(t, s.Initialize(context.Background(), postURL))
	require.NoError(t, s.Start(context.Background()))
	return s, sess, surf
}

func TestSuccessCallback_SingleObjectNormalizedToSequence(t *testing.T) {
	s, sess, surf := startedStage(t)

	sess.OnSuccess(json.RawMessage(`{"identifier":"0xabc"}`))

	require.Equal(t, StateSucceeded, s.State())
	proofs := s.Proofs()
	require.Len(t, proofs, 1)
	require.Equal(t, "0xabc", proofs[0].Identifier)
	require.False(t, surf.IsOpen(), "surface is released once the attempt resolves")
}

func TestSuccessCallback_ArrayKept(t *testing.T) {
	s, sess, _ := startedStage(t)

	sess.OnSuccess(json.RawMessage(`[{"identifier":"a"},{"identifier":"b"}]`))

	require.Equal(t, StateSucceeded, s.State())
	require.Len(t, s.Proofs(), 2)
}

func TestSuccessCallback_BareStringFails(t *testing.T) {
	s, sess, _ := startedStage(t)

	sess.OnSuccess(json.RawMessage(`"i swear this is a proof"`))

	require.Equal(t, StateFailed, s.State())
	require.ErrorIs(t, s.Err(), ErrInvalidProofResponse)
	require.Empty(t, s.Proofs())
}

func TestSuccessCallback_MissingPayloadFails(t *testing.T) {
	s, sess, _ := startedStage(t)

	sess.OnSuccess(nil)

	require.Equal(t, StateFailed, s.State())
	require.ErrorIs(t, s.Err(), ErrInvalidProofResponse)
}

func TestErrorCallback_RecordsMessageAndClosesSurface(t *testing.T) {
	s, sess, surf := startedStage(t)

	sess.OnError(errors.New("user rejected"))

	require.Equal(t, StateFailed, s.State())
	require.ErrorContains(t, s.Err(), "user rejected")
	require.Equal(t, 1, surf.CloseCalls)
}

// ---- reset ----

func TestReset_FromAnyStateReturnsToInitial(t *testing.T) {
	s, sess, _ := startedStage(t)
	sess.OnSuccess(json.RawMessage(`{"identifier":"0xabc"}`))
	require.Equal(t, StateSucceeded, s.State())

	s.Reset(context.Background())

	require.Equal(t, StateUninitialized, s.State())
	require.Empty(t, s.Proofs())
	require.Nil(t, s.Err())
	require.Equal(t, 1, sess.CloseCalls)
}

func TestReset_WhileVerifyingIgnoresLateSuccess(t *testing.T) {
	s, sess, _ := startedStage(t)

	s.Reset(context.Background())

	// The subscription of the abandoned attempt resolves after the reset.
	sess.OnSuccess(json.RawMessage(`{"identifier":"stale"}`))

	require.Equal(t, StateUninitialized, s.State())
	require.Empty(t, s.Proofs())
	require.Nil(t, s.Err())
}

func TestReset_WhileVerifyingIgnoresLateError(t *testing.T) {
	s, sess, _ := startedStage(t)

	s.Reset(context.Background())

	// Closing the subscription makes its read loop error; that error belongs
	// to the abandoned attempt, not to the freshly reset stage.
	sess.OnError(errors.New("session updates read: use of closed connection"))

	require.Equal(t, StateUninitialized, s.State())
	require.Nil(t, s.Err())
}

func TestReinitialize_IgnoresCallbacksFromPriorAttempt(t *testing.T) {
	first := &fakeSession{URL: "u"}
	att := &fakeAttestor{Session: first}
	s := newTestStage(att, &fakeOpener{Surface: &fakeSurface{open: true}})

	require.NoError(t, s.Initialize(context.Background(), postURL))
	require.NoError(t, s.Start(context.Background()))

	second := &fakeSession{URL: "u2"}
	att.Session = second
	require.NoError(t, s.Initialize(context.Background(), postURL))
	require.Equal(t, StateReady, s.State())

	first.OnError(errors.New("user rejected"))
	require.Equal(t, StateReady, s.State(), "stale error must not clobber the new attempt")
	require.Nil(t, s.Err())

	first.OnSuccess(json.RawMessage(`{"identifier":"stale"}`))
	require.Equal(t, StateReady, s.State(), "stale success must not clobber the new attempt")
	require.Empty(t, s.Proofs())
}

func TestReset_AfterFailureClearsError(t *testing.T) {
	att := &fakeAttestor{Err: errors.New("down")}
	s := newTestStage(att, &fakeOpener{})

	require.Error(t, s.Initialize(context.Background(), postURL))
	require.Equal(t, StateFailed, s.State())

	s.Reset(context.Background())
	require.Equal(t, StateUninitialized, s.State())
	require.Nil(t, s.Err())
}
