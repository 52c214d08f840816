package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus(ctx context.Context) string {
	snap := a.flow.Snapshot(ctx)

	s := ""
	if snap.Username != "" {
		s = snap.Username + " "
	}
	s += snap.State.String()
	if snap.Fetching {
		s += " fetching"
	}
	return fmt.Sprintf("(%s)", s)
}

// Root runs the interactive loop. It reads a line, parses the first token
// as the command, and dispatches to methods on a. The loop exits on EOF or
// when the user types "exit" or "quit".
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to PostProof CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "postproof %s> ", a.getStatus(ctx))
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(a.out, "Available commands: fetch [url], verify, show, history, reset, exit")

		case "fetch":
			a.fetchPost(ctx, args)
		case "verify":
			a.verifyPost(ctx)
		case "show":
			a.show(ctx)
		case "history":
			a.listHistory(ctx)
		case "reset":
			a.reset(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}
