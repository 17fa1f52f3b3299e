package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glox/internal/config"
	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/vm"
)

// Run compiles and executes the single file named by args.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) mainer.ExitCode {
	if len(args) != 1 {
		fmt.Fprintln(stdio.Stderr, "run: expected exactly one file path")
		return exitUsage
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "run: %s\n", err)
		return exitIOErr
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "run: %s\n", err)
		return exitSoftErr
	}

	machine := vm.New(cfg, stdio.Stdout)
	if err := machine.Interpret(ctx, string(src)); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return exitCodeFor(err)
	}
	return exitOK
}

// exitCodeFor maps an error returned from vm.Interpret to a sysexits-style
// code: 65 for a compile-time ErrorList, 70 for a runtime error (or
// anything else, including context cancellation).
func exitCodeFor(err error) mainer.ExitCode {
	var cerrs compiler.ErrorList
	if errors.As(err, &cerrs) {
		return exitDataErr
	}
	var rerr *vm.RuntimeError
	if errors.As(err, &rerr) {
		return exitSoftErr
	}
	return exitSoftErr
}
