// Package config defines the VM's environment-driven tunables: stack and
// call-frame capacity, GC thresholds, and the debug trace flags, loaded
// with github.com/caarlos0/env the same way the rest of the module's
// dependency stack is sourced from the environment rather than flags.
package config

import "github.com/caarlos0/env/v6"

// Config holds every tunable the VM and heap consult at startup: a
// 256-slot initial value stack, 64 call frames, and a 1 MiB initial GC
// threshold doubling on each collection.
type Config struct {
	InitialStackSize int     `env:"GLOX_STACK_SIZE" envDefault:"256"`
	MaxCallFrames    int     `env:"GLOX_MAX_FRAMES" envDefault:"64"`
	GCInitialBytes   int64   `env:"GLOX_GC_INITIAL_BYTES" envDefault:"1048576"`
	GCGrowthFactor   float64 `env:"GLOX_GC_GROWTH_FACTOR" envDefault:"2.0"`
	TraceExecution   bool    `env:"GLOX_TRACE_EXECUTION" envDefault:"false"`
	TracePrintCode   bool    `env:"GLOX_TRACE_PRINT_CODE" envDefault:"false"`
	StressGC         bool    `env:"GLOX_STRESS_GC" envDefault:"false"`
}

// Load reads a Config from the environment, applying the defaults above for
// any variable that is unset.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
