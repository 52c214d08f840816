// Package browser implements the out-of-band surface capability on top of
// the platform's default browser. A desktop browser tab cannot report being
// closed by the user, so IsOpen only tracks closes performed through the
// handle itself; richer diagnostics come from fakes in tests.
package browser

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/dmitrijs2005/postproof/internal/attest"
	"github.com/dmitrijs2005/postproof/internal/logging"
)

// startCommand is a test seam for launching the platform opener.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

type Opener struct {
	log logging.Logger
}

func NewOpener(log logging.Logger) *Opener {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Opener{log: log}
}

// Open returns a fresh surface handle. The actual browser process is only
// spawned on Navigate; until then the handle just reserves the slot, which
// keeps the eager-open-then-navigate ordering of the verification stage
// meaningful on desktop platforms too.
func (o *Opener) Open(ctx context.Context) (attest.Surface, error) {
	return &surface{log: o.log, open: true}, nil
}

type surface struct {
	log logging.Logger

	mu   sync.Mutex
	open bool
}

func (s *surface) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *surface) Navigate(url string) error {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if !open {
		return fmt.Errorf("surface already closed")
	}

	name, args := openerCommand(url)
	if err := startCommand(name, args...); err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	return nil
}

func (s *surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

func openerCommand(url string) (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
