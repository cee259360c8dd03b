package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
)

// RunCLI reads one question per line from in and writes answers to out until
// "quit" or "exit", end of input, or ctx cancellation. The artifact janitor
// and config watcher run alongside; no HTTP server is started.
func (a *App) RunCLI(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	a.runBackground(gctx, g)

	err := a.cliLoop(ctx, in, out)
	cancel()
	if werr := g.Wait(); err == nil {
		err = werr
	}
	return err
}

func (a *App) cliLoop(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "--- Yesu Mitra (Friend of Jesus) ---")
	fmt.Fprintln(out, "Type 'quit' or 'exit' to end.")
	if err := a.chat.Ready(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		fmt.Fprint(out, "\nYou: ")
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "quit", "exit":
			fmt.Fprintln(out, "May God bless you and keep you. Goodbye!")
			return nil
		case "":
			continue
		}

		fmt.Fprintln(out, "\nYesu Mitra is praying and reflecting...")
		resp, err := a.chat.Ask(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, "\n--- Yesu Mitra's Response ---")
		fmt.Fprintln(out, resp.Answer)
		if resp.Audio != nil {
			fmt.Fprintf(out, "\n[Audio: %s]\n", resp.Audio.Path)
		}
	}
}
