package config_test

import (
	"os"
	"testing"

	"github.com/opencrun-go/opencrun/config"
)

func withEnv(t *testing.T, kv map[string]string, fn func()) {
	t.Helper()
	for k, v := range kv {
		old, had := os.LookupEnv(k)
		if err := os.Setenv(k, v); err != nil {
			t.Fatalf("Setenv(%s): %v", k, err)
		}
		defer func(k string, old string, had bool) {
			if had {
				os.Setenv(k, old)
			} else {
				os.Unsetenv(k)
			}
		}(k, old, had)
	}
	fn()
}

func TestFromEnvironmentDefaults(t *testing.T) {
	withEnv(t, map[string]string{
		"OPENCRUN_PREFIX":               "",
		"OPENCRUN_PREFIX_LLVM":          "",
		"OPENCRUN_COMPILER_OPTIONS":     "",
		"OPENCRUN_PROFILED_COUNTERS":    "",
		"OPENCRUN_INTERNAL_DIAGNOSTIC":  "",
	}, func() {
		cfg := config.FromEnvironment()
		if cfg.Prefix != "" || cfg.PrefixLLVM != "" || cfg.CompilerOptions != "" {
			t.Errorf("expected empty string fields, got %+v", cfg)
		}
		if len(cfg.ProfiledCounters) != 0 {
			t.Errorf("expected no profiled counters, got %v", cfg.ProfiledCounters)
		}
		if cfg.InternalDiagnostic {
			t.Error("expected InternalDiagnostic false by default")
		}
	})
}

func TestFromEnvironmentPopulated(t *testing.T) {
	withEnv(t, map[string]string{
		"OPENCRUN_PREFIX":              "/opt/opencrun",
		"OPENCRUN_PREFIX_LLVM":         "/opt/llvm",
		"OPENCRUN_COMPILER_OPTIONS":    "-cl-opt-disable",
		"OPENCRUN_PROFILED_COUNTERS":   "cycles, cache-misses ,instructions",
		"OPENCRUN_INTERNAL_DIAGNOSTIC": "true",
	}, func() {
		cfg := config.FromEnvironment()
		if cfg.Prefix != "/opt/opencrun" {
			t.Errorf("Prefix = %q", cfg.Prefix)
		}
		if cfg.PrefixLLVM != "/opt/llvm" {
			t.Errorf("PrefixLLVM = %q", cfg.PrefixLLVM)
		}
		want := []string{"cycles", "cache-misses", "instructions"}
		if len(cfg.ProfiledCounters) != len(want) {
			t.Fatalf("ProfiledCounters = %v, want %v", cfg.ProfiledCounters, want)
		}
		for i, w := range want {
			if cfg.ProfiledCounters[i] != w {
				t.Errorf("ProfiledCounters[%d] = %q, want %q", i, cfg.ProfiledCounters[i], w)
			}
		}
		if !cfg.InternalDiagnostic {
			t.Error("expected InternalDiagnostic true")
		}
	})
}

func TestMergeCompilerOptions(t *testing.T) {
	tt := []struct {
		name    string
		prefix  string
		options string
		want    string
	}{
		{name: "both empty", prefix: "", options: "", want: ""},
		{name: "prefix only", prefix: "-cl-opt-disable", options: "", want: "-cl-opt-disable"},
		{name: "options only", prefix: "", options: "-cl-mad-enable", want: "-cl-mad-enable"},
		{name: "both", prefix: "-cl-opt-disable", options: "-cl-mad-enable", want: "-cl-opt-disable -cl-mad-enable"},
	}
	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Config{CompilerOptions: tc.prefix}
			if got := cfg.MergeCompilerOptions(tc.options); got != tc.want {
				t.Errorf("MergeCompilerOptions() = %q, want %q", got, tc.want)
			}
		})
	}
}
