// Package config reads the environment variables that govern this
// runtime's device discovery and compiler behavior, the closest
// equivalent this module has to the original implementation's
// configure-time install prefix and autoconf knobs.
package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	envPrefix             = "OPENCRUN_PREFIX"
	envPrefixLLVM         = "OPENCRUN_PREFIX_LLVM"
	envCompilerOptions    = "OPENCRUN_COMPILER_OPTIONS"
	envProfiledCounters   = "OPENCRUN_PROFILED_COUNTERS"
	envInternalDiagnostic = "OPENCRUN_INTERNAL_DIAGNOSTIC"
)

// Config is the typed form of the OPENCRUN_* environment, read once at
// Platform construction.
type Config struct {
	// Prefix is the install prefix this runtime reports through
	// CL_PLATFORM_* string queries. It has no effect on behavior, only
	// on what a client sees when it asks where the platform lives.
	Prefix string

	// PrefixLLVM would locate an LLVM toolchain in the original
	// implementation; kept as a reported field only, since this
	// runtime's compiler (ir + compiler packages) never shells out to
	// one.
	PrefixLLVM string

	// CompilerOptions is appended ahead of the options string passed to
	// clBuildProgram/clCompileProgram, the same precedence the original
	// gives its equivalent variable: caller-supplied options still win
	// on conflict because they are applied after this prefix.
	CompilerOptions string

	// ProfiledCounters is the comma-separated OPENCRUN_PROFILED_COUNTERS
	// list. A non-empty list turns on profile-trace collection for every
	// event, whatever the queue's own profiling flag; the names in it are
	// not interpreted and no hardware counter is sampled. Unset leaves
	// profiling to each queue's flag.
	ProfiledCounters []string

	// InternalDiagnostic turns on verbose per-command debug logging
	// (cpu and compiler log at logrus.Debug instead of Info).
	InternalDiagnostic bool
}

// FromEnvironment reads the OPENCRUN_* variables from the process
// environment. Every field has a usable zero value, so a completely
// unset environment yields a valid, if minimal, Config.
func FromEnvironment() Config {
	return Config{
		Prefix:             os.Getenv(envPrefix),
		PrefixLLVM:         os.Getenv(envPrefixLLVM),
		CompilerOptions:    os.Getenv(envCompilerOptions),
		ProfiledCounters:   splitList(os.Getenv(envProfiledCounters)),
		InternalDiagnostic: parseBool(os.Getenv(envInternalDiagnostic)),
	}
}

// MergeCompilerOptions prepends c.CompilerOptions to options, the
// order clBuildProgram documents for implementation-defined option
// injection.
func (c Config) MergeCompilerOptions(options string) string {
	if c.CompilerOptions == "" {
		return options
	}
	if options == "" {
		return c.CompilerOptions
	}
	return c.CompilerOptions + " " + options
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	fields := strings.Split(s, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseBool(s string) bool {
	if s == "" {
		return false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return v
}
