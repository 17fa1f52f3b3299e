package vm_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/glox/internal/config"
	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/vm"
)

func run(t *testing.T, source string) (stdout string, err error) {
	t.Helper()
	cfg, cfgErr := config.Load()
	require.NoError(t, cfgErr)

	var buf bytes.Buffer
	machine := vm.New(cfg, &buf)
	err = machine.Interpret(context.Background(), source)
	return buf.String(), err
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3 - 4 / 2;`)
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestStringConcatenationInternsResult(t *testing.T) {
	out, err := run(t, `
		var a = "foo" + "bar";
		var b = "foo" + "bar";
		print a == b;
	`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestClosureCapturesEnclosingLocal(t *testing.T) {
	out, err := run(t, `
		fun makeCounter() {
			var count = 0;
			fun inc() {
				count = count + 1;
				return count;
			}
			return inc;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestSiblingClosuresShareOneUpvalue(t *testing.T) {
	out, err := run(t, `
		fun pair() {
			var x = 0;
			fun get() { return x; }
			fun set(v) { x = v; }
			set(42);
			return get();
		}
		print pair();
	`)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestMethodDispatchAndThis(t *testing.T) {
	out, err := run(t, `
		class Box {
			init(v) {
				this.v = v;
			}
			get() {
				return this.v;
			}
		}
		var b = Box(7);
		print b.get();
	`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestInheritedMethodAndSuper(t *testing.T) {
	out, err := run(t, `
		class Animal {
			speak() {
				return "...";
			}
			describe() {
				return "i say " + this.speak();
			}
		}
		class Dog < Animal {
			speak() {
				return "woof";
			}
			describe() {
				return super.describe() + "!";
			}
		}
		print Dog().describe();
	`)
	require.NoError(t, err)
	assert.Equal(t, "i say woof!\n", out)
}

func TestUndefinedVariableIsARuntimeError(t *testing.T) {
	_, err := run(t, `print nope;`)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok, "expected *vm.RuntimeError, got %T", err)
	assert.Contains(t, rerr.Message, "Undefined variable 'nope'")
	require.Len(t, rerr.Trace, 1)
	assert.Contains(t, rerr.Trace[0], "in script")
}

func TestCompileErrorReportsEveryDiagnostic(t *testing.T) {
	_, err := run(t, `
		print ;
		var = 1;
	`)
	require.Error(t, err)
	cerrs, ok := err.(compiler.ErrorList)
	require.True(t, ok, "expected compiler.ErrorList, got %T", err)
	assert.GreaterOrEqual(t, len(cerrs), 2)
}

func TestRuntimeErrorUnwindsCallStack(t *testing.T) {
	_, err := run(t, `
		fun a() { return b(); }
		fun b() { return c(); }
		fun c() { return 1 + nil; }
		a();
	`)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok, "expected *vm.RuntimeError, got %T", err)
	assert.Len(t, rerr.Trace, 4)
}

func TestGCStressKeepsProgramCorrect(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.StressGC = true
	cfg.GCInitialBytes = 1

	var buf bytes.Buffer
	machine := vm.New(cfg, &buf)
	err = machine.Interpret(context.Background(), `
		var total = "";
		for (var i = 0; i < 200; i = i + 1) {
			total = total + "x";
		}
		print total == total;
	`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", buf.String())
}

func TestClassInstantiationWithoutInitializer(t *testing.T) {
	out, err := run(t, `
		class Empty {}
		var e = Empty();
		print e;
	`)
	require.NoError(t, err)
	assert.Equal(t, "Empty instance\n", out)
}

func TestNativeClockReturnsNumber(t *testing.T) {
	out, err := run(t, `print clock() >= 0;`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestCannotCallANonCallable(t *testing.T) {
	_, err := run(t, `
		var x = 1;
		x();
	`)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	assert.Contains(t, rerr.Message, "Can only call functions and classes.")
}
