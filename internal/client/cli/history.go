package cli

import (
	"context"
	"fmt"
)

const historyListLimit = 20

// listHistory prints the most recent verified posts, newest first.
func (a *App) listHistory(ctx context.Context) {
	records, err := a.store.ListRecent(ctx, historyListLimit)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(a.out, "No verified posts yet.")
		return
	}

	for _, r := range records {
		fmt.Fprintf(a.out, "%s  %-20s %-12s likes=%d comments=%d\n",
			r.VerifiedAt.Format("2006-01-02 15:04"), r.Username, r.Shortcode, r.Likes, r.Comments)
	}
}
