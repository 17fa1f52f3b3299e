package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glox/lang/scanner"
	"github.com/mna/glox/lang/token"
)

// Tokenize prints the token stream of each file named by args, one token
// per line, in the form "<path>: line N: <kind> <text>".
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) mainer.ExitCode {
	code := exitOK
	for _, path := range args {
		if tokenizeFile(stdio, path) != nil {
			code = exitIOErr
		}
	}
	return code
}

func tokenizeFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "tokenize: %s\n", err)
		return err
	}

	var sc scanner.Scanner
	sc.Init(string(src))
	for {
		lex := sc.Next()
		if lex.Kind == token.ILLEGAL {
			fmt.Fprintf(stdio.Stderr, "%s: line %d: %s\n", path, lex.Line, lex.Text)
			continue
		}
		if lex.Text != "" {
			fmt.Fprintf(stdio.Stdout, "%s: line %4d: %-16s %s\n", path, lex.Line, lex.Kind, lex.Text)
		} else {
			fmt.Fprintf(stdio.Stdout, "%s: line %4d: %s\n", path, lex.Line, lex.Kind)
		}
		if lex.Kind == token.EOF {
			break
		}
	}
	return nil
}
