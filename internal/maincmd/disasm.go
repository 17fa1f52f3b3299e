package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glox/internal/config"
	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/heap"
	"github.com/mna/glox/lang/object"
)

// Disasm compiles the single file named by args and prints its
// disassembled bytecode without running it: one flat dump, no interactive
// navigation or paging.
func (c *Cmd) Disasm(_ context.Context, stdio mainer.Stdio, args []string) mainer.ExitCode {
	if len(args) != 1 {
		fmt.Fprintln(stdio.Stderr, "disasm: expected exactly one file path")
		return exitUsage
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "disasm: %s\n", err)
		return exitIOErr
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "disasm: %s\n", err)
		return exitSoftErr
	}

	h := heap.New(cfg.GCInitialBytes, cfg.GCGrowthFactor)
	fn, err := compiler.Compile(h, string(src))
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return exitDataErr
	}

	object.DisassembleFunction(stdio.Stdout, fn)
	return exitOK
}
