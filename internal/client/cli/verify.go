package cli

import (
	"context"
	"fmt"
)

// verifyPost kicks off the attested verification. The command returns
// immediately; the result arrives asynchronously and is visible via "show".
func (a *App) verifyPost(ctx context.Context) {
	if err := a.flow.StartVerification(ctx); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fmt.Fprintln(a.out, "Verification started. Complete the sign-in in the opened browser window, then run 'show'.")
}

func (a *App) reset(ctx context.Context) {
	a.flow.Reset(ctx)
	fmt.Fprintln(a.out, "Flow reset.")
}
