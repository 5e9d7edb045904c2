// Command gasprofile profiles a single transaction on an EVM-compatible
// chain and attributes its gas consumption back to source lines of the
// contracts it touched.
//
// Usage:
//
//	gasprofile [flags] <compiler-output.json> <tx-hash>
//
// Flags:
//
//	--skip          Source file substring to skip (repeatable)
//	--src-root      Source root directory (default: current directory)
//	--rpc-endpoint  Chain JSON-RPC endpoint (default: http://127.0.0.1:8545)
//	--verbosity     Log level 0-3 (default: 2)
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gasprofile/gasprofile/attribution"
	"github.com/gasprofile/gasprofile/bundle"
	"github.com/gasprofile/gasprofile/chainrpc"
	"github.com/gasprofile/gasprofile/contracts"
	gaslog "github.com/gasprofile/gasprofile/log"
	"github.com/gasprofile/gasprofile/report"
	"github.com/gasprofile/gasprofile/sources"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// config holds the resolved CLI configuration.
type config struct {
	skip        []string
	srcRoot     string
	rpcEndpoint string
	verbosity   int
	bundlePath  string
	txHash      string
}

func defaultConfig() config {
	return config{
		srcRoot:     ".",
		rpcEndpoint: "http://127.0.0.1:8545",
		verbosity:   2,
	}
}

// run is the actual entry point, returning an exit code. It accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}

	logger := gaslog.New(gaslog.VerbosityToLogLevel(cfg.verbosity))

	b, err := bundle.Load(cfg.bundlePath)
	if err != nil {
		logger.Error("failed to load compiler bundle", "path", cfg.bundlePath, "err", err)
		return 1
	}

	ctx := context.Background()
	chain, err := chainrpc.Dial(ctx, cfg.rpcEndpoint)
	if err != nil {
		logger.Error("failed to dial chain RPC endpoint", "endpoint", cfg.rpcEndpoint, "err", err)
		return 1
	}
	defer chain.Close()

	srcReg := sources.NewRegistry(cfg.srcRoot, cfg.skip)
	registry := contracts.NewRegistry(chain, b, srcReg, logger)

	result, err := attribution.Profile(ctx, chain, registry, logger, cfg.txHash)
	if err != nil {
		if errors.Is(err, attribution.ErrEntryNotAContract) {
			fmt.Fprintln(os.Stdout, "transaction target is not a contract")
			return 0
		}
		logger.Error("profiling failed", "tx", cfg.txHash, "err", err)
		return 1
	}

	if err := report.Render(os.Stdout, result.Contracts); err != nil {
		logger.Error("failed to render report", "err", err)
		return 1
	}
	return 0
}
