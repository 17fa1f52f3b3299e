// Package maincmd implements the glox command-line tool: argument parsing
// and dispatch to the run/repl/tokenize/disasm subcommands, using a Cmd
// struct with flag-tagged fields parsed by github.com/mna/mainer.Parser
// and dispatch by reflection over Cmd's own methods.
package maincmd

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "glox"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<command>] [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<command>] [<path>...]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and bytecode VM for the glox programming language.

With no command and no path, enters the REPL (same as 'repl').

The <command> can be one of:
       run <path>                Compile and execute the given file.
       repl                      Read-eval-print loop.
       tokenize <path>...        Print the token stream of the given
                                 file(s).
       disasm <path>             Compile the given file and print its
                                 disassembled bytecode without running it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// exit codes, matching the language's <sysexits.h>-style contract: usage
// error, file-read failure, compile error, runtime error, success.
const (
	exitUsage   mainer.ExitCode = 64
	exitDataErr mainer.ExitCode = 65
	exitOK      mainer.ExitCode = 0
	exitSoftErr mainer.ExitCode = 70
	exitIOErr   mainer.ExitCode = 74
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) mainer.ExitCode
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	// No command at all defaults to the REPL.
	if len(c.args) == 0 {
		c.cmdFn = c.Repl
		return nil
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	cmdFn, ok := commands[cmdName]
	if !ok {
		// An unrecognized first argument with no other arguments is treated
		// as a path for 'run <path>' so `glox foo.lox` keeps working without
		// a subcommand.
		if len(c.args) == 1 {
			c.cmdFn = c.Run
			return nil
		}
		return fmt.Errorf("unknown command: %s", cmdName)
	}
	c.cmdFn = cmdFn

	if cmdName == "tokenize" || cmdName == "run" || cmdName == "disasm" {
		if len(c.args[1:]) == 0 {
			return fmt.Errorf("%s: at least one file must be provided", cmdName)
		}
	}

	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return exitOK

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return exitOK
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	var rest []string
	if len(c.args) > 0 {
		if _, isCmd := buildCmds(c)[c.args[0]]; isCmd {
			rest = c.args[1:]
		} else {
			rest = c.args
		}
	}
	return c.cmdFn(ctx, stdio, rest)
}

// valid commands are those that take a context.Context and a mainer.Stdio
// and a slice of strings as input, and return a mainer.ExitCode as output
// (rather than an error, since each command maps its own failures to a
// specific sysexits-style code).
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) mainer.ExitCode {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) mainer.ExitCode)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Name() != "ExitCode" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		fn, ok := vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) mainer.ExitCode)
		if !ok {
			continue
		}
		cmds[strings.ToLower(m.Name)] = fn
	}
	return cmds
}
