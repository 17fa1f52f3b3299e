package vm_test

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/glox/internal/config"
	"github.com/mna/glox/internal/filetest"
	"github.com/mna/glox/lang/vm"
)

var testUpdateVMTests = flag.Bool("test.update-vm-tests", false, "If set, replace expected end-to-end VM test results with actual results.")

// TestGolden drives every testdata/in/*.lox source through a fresh VM and
// diffs its printed output and any runtime error against the matching
// testdata/out/*.want and *.err golden files.
func TestGolden(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")
	for _, fi := range filetest.SourceFiles(t, srcDir, ".lox") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, readErr := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			require.NoError(t, readErr)

			var buf, ebuf bytes.Buffer
			machine := vm.New(cfg, &buf)
			if runErr := machine.Interpret(context.Background(), string(src)); runErr != nil {
				fmt.Fprintln(&ebuf, runErr)
			}

			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateVMTests)
			filetest.DiffErrors(t, fi, ebuf.String(), resultDir, testUpdateVMTests)
		})
	}
}
