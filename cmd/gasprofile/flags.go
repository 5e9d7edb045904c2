package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// stringSliceValue implements flag.Value for a flag that can be repeated,
// accumulating one entry per occurrence. Go's standard flag package has no
// repeatable-string flag, so it needs a small custom Value.
type stringSliceValue struct {
	values *[]string
}

func (v *stringSliceValue) String() string {
	if v.values == nil {
		return ""
	}
	return strings.Join(*v.values, ",")
}

func (v *stringSliceValue) Set(s string) error {
	*v.values = append(*v.values, s)
	return nil
}

// newFlagSet creates a flag.FlagSet bound to cfg, using ContinueOnError so
// the caller controls error handling.
func newFlagSet(cfg *config) *flag.FlagSet {
	fs := flag.NewFlagSet("gasprofile", flag.ContinueOnError)
	fs.StringVar(&cfg.srcRoot, "src-root", cfg.srcRoot, "source root directory")
	fs.StringVar(&cfg.rpcEndpoint, "rpc-endpoint", cfg.rpcEndpoint, "chain JSON-RPC endpoint")
	fs.IntVar(&cfg.verbosity, "verbosity", cfg.verbosity, "log level 0-3 (0=errors only, 3=debug)")
	fs.Var(&stringSliceValue{values: &cfg.skip}, "skip", "source file substring to skip (repeatable)")
	return fs
}

// parseFlags parses CLI arguments into a config. Returns the config, whether
// the caller should exit immediately, and the exit code.
func parseFlags(args []string) (config, bool, int) {
	cfg := defaultConfig()
	fs := newFlagSet(&cfg)

	if err := fs.Parse(args); err != nil {
		return cfg, true, 2
	}

	rest := fs.Args()
	if len(rest) != 2 {
		fmt.Fprintf(os.Stderr, "usage: gasprofile [flags] <compiler-output.json> <tx-hash>\n")
		return cfg, true, 2
	}
	cfg.bundlePath = rest[0]
	cfg.txHash = rest[1]

	return cfg, false, 0
}
