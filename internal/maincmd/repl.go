package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/glox/internal/config"
	"github.com/mna/glox/lang/vm"
)

// Repl runs a read-eval-print loop over stdio.Stdin, one line of source per
// iteration, against a single VM instance kept alive across lines so
// globals and classes defined on one line are visible on the next. A
// compile or runtime error is reported and the loop continues; only EOF on
// stdin or context cancellation ends it.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, args []string) mainer.ExitCode {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "repl: %s\n", err)
		return exitSoftErr
	}
	machine := vm.New(cfg, stdio.Stdout)

	in := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !in.Scan() {
			break
		}
		select {
		case <-ctx.Done():
			return exitOK
		default:
		}

		if err := machine.Interpret(ctx, in.Text()); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
		}
	}
	return exitOK
}
