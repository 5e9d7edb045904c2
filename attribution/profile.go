package attribution

import (
	"context"
	"fmt"

	"github.com/gasprofile/gasprofile/chainrpc"
	"github.com/gasprofile/gasprofile/contracts"
	"github.com/gasprofile/gasprofile/evmutil"
	gaslog "github.com/gasprofile/gasprofile/log"
)

// Result is the outcome of profiling one transaction: every contract
// touched, ready for report.Render.
type Result struct {
	Contracts []*contracts.Contract
}

// Profile resolves the transaction, fetches its receipt and trace, and
// replays the trace through an Engine, returning every contract the
// replay touched. It returns ErrEntryNotAContract cleanly (not fatally)
// when the entry address carries no code — there is nothing to profile.
func Profile(ctx context.Context, chain chainrpc.Client, registry *contracts.Registry, logger *gaslog.Logger, txHash string) (*Result, error) {
	tx, err := chain.GetTransaction(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("%w: get transaction: %v", ErrRPCFailure, err)
	}
	receipt, err := chain.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("%w: get receipt: %v", ErrRPCFailure, err)
	}

	entryAddr := tx.To
	entryIsConstruction := entryAddr == ""
	if entryIsConstruction {
		entryAddr = receipt.ContractAddress
	}

	entry, err := registry.GetOrCreate(ctx, evmutil.NormalizeAddress(entryAddr))
	if err != nil {
		return nil, fmt.Errorf("%w: resolve entry contract: %v", ErrRPCFailure, err)
	}
	if entry.CodeHex == "" {
		return nil, ErrEntryNotAContract
	}

	trace, err := chain.TraceTransaction(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("%w: trace transaction: %v", ErrRPCFailure, err)
	}

	engine := NewEngine(ctx, registry, logger)
	if err := engine.Run(trace.StructLogs, entry, entryIsConstruction); err != nil {
		return nil, err
	}

	return &Result{Contracts: registry.All()}, nil
}
