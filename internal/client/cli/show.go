package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/postproof/internal/verify"
)

// show renders the current flow snapshot, including the attested post data
// once the verification succeeds.
func (a *App) show(ctx context.Context) {
	snap := a.flow.Snapshot(ctx)

	fmt.Fprintln(a.out, "State:", snap.State)
	if snap.Fetching {
		fmt.Fprintln(a.out, "Fetch in progress...")
	}
	if snap.Username != "" {
		fmt.Fprintln(a.out, "Owner:", snap.Username)
	}
	if snap.Err != "" {
		fmt.Fprintln(a.out, "Error:", snap.Err)
	}

	if snap.State != verify.StateSucceeded || snap.Post == nil {
		return
	}

	p := snap.Post
	fmt.Fprintln(a.out, "Verified post:")
	if p.Caption != "" {
		fmt.Fprintln(a.out, "  Caption: ", p.Caption)
	}
	if p.Image != "" {
		fmt.Fprintln(a.out, "  Image:   ", p.Image)
	}
	if p.Video != "" {
		fmt.Fprintln(a.out, "  Video:   ", p.Video)
	}
	fmt.Fprintln(a.out, "  Likes:   ", p.Likes)
	fmt.Fprintln(a.out, "  Comments:", p.Comments)
	if p.MediaCode != "" {
		fmt.Fprintln(a.out, "  Media:   ", p.MediaCode)
	}
}
