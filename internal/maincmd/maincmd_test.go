package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/glox/internal/maincmd"
)

func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, code mainer.ExitCode) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	stdio := mainer.Stdio{
		Stdin:  strings.NewReader(stdin),
		Stdout: &outBuf,
		Stderr: &errBuf,
	}
	c := &maincmd.Cmd{BuildVersion: "0.0.0-test", BuildDate: "2026-01-01"}
	code = c.Main(args, stdio)
	return outBuf.String(), errBuf.String(), code
}

func TestVersionFlag(t *testing.T) {
	out, _, code := run(t, "", "--version")
	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Contains(t, out, "0.0.0-test")
}

func TestHelpFlag(t *testing.T) {
	out, _, code := run(t, "", "--help")
	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Contains(t, out, "run <path>")
}

func TestUnknownCommand(t *testing.T) {
	_, errOut, code := run(t, "", "frobnicate", "a", "b")
	assert.Equal(t, mainer.ExitCode(64), code)
	assert.Contains(t, errOut, "unknown command")
}

func TestRunMissingFile(t *testing.T) {
	_, errOut, code := run(t, "", "run", "does-not-exist.lox")
	assert.Equal(t, mainer.ExitCode(74), code)
	assert.NotEmpty(t, errOut)
}

func TestRunFileWithCompileError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.lox")
	require.NoError(t, os.WriteFile(path, []byte("var = 1;"), 0o600))

	_, errOut, code := run(t, "", "run", path)
	assert.Equal(t, mainer.ExitCode(65), code)
	assert.Contains(t, errOut, "Error")
}

func TestRunFileSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.lox")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + 1;`), 0o600))

	out, _, code := run(t, "", "run", path)
	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Equal(t, "2\n", out)
}

func TestBarePathRunsAsScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.lox")
	require.NoError(t, os.WriteFile(path, []byte(`print "hi";`), 0o600))

	out, _, code := run(t, "", path)
	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Equal(t, "hi\n", out)
}

func TestTokenizeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toks.lox")
	require.NoError(t, os.WriteFile(path, []byte(`var x = 1;`), 0o600))

	out, _, code := run(t, "", "tokenize", path)
	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Contains(t, out, "identifier")
	assert.Contains(t, out, "x")
}

func TestDisasmFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disasm.lox")
	require.NoError(t, os.WriteFile(path, []byte(`print 1;`), 0o600))

	out, _, code := run(t, "", "disasm", path)
	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Contains(t, out, "OP_PRINT")
}

func TestReplEchoesExpressions(t *testing.T) {
	out, _, code := run(t, "print 1 + 1;\nprint 2 + 2;\n", "repl")
	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Contains(t, out, "2")
	assert.Contains(t, out, "4")
}
