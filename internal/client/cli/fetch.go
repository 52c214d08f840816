package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/postproof/internal/flow"
)

// fetchPost resolves the post owner for a URL given as an argument or
// prompted interactively. On success the verification stage is primed and
// "verify" becomes available.
func (a *App) fetchPost(ctx context.Context, args []string) {
	var rawURL string
	if len(args) > 0 {
		rawURL = args[0]
	} else {
		var err error
		rawURL, err = GetSimpleText(a.reader, "Post URL", a.out)
		if err != nil {
			fmt.Fprintln(a.out, "Error:", err)
			return
		}
	}
	if rawURL == "" {
		fmt.Fprintln(a.out, "Usage: fetch <url>")
		return
	}

	if err := a.flow.Fetch(ctx, rawURL); err != nil {
		if errors.Is(err, flow.ErrFetchInProgress) {
			fmt.Fprintln(a.out, "A fetch is already running; wait for it to finish.")
			return
		}
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	snap := a.flow.Snapshot(ctx)
	if snap.Username == "" {
		fmt.Fprintln(a.out, "Post fetched, but the owner could not be determined.")
		return
	}
	fmt.Fprintf(a.out, "Post owner: %s. Run 'verify' to prove ownership.\n", snap.Username)
}
