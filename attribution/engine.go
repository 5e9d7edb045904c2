// Package attribution implements the trace-replay attribution engine: a
// single sequential pass over a debug_traceTransaction structLog trace that
// maintains a virtual call stack and folds each step's gas cost into the
// source line that caused it, including gas spent in nested calls.
package attribution

import (
	"context"
	"fmt"

	"github.com/gasprofile/gasprofile/bytecode"
	"github.com/gasprofile/gasprofile/calltarget"
	"github.com/gasprofile/gasprofile/chainrpc"
	"github.com/gasprofile/gasprofile/contracts"
	"github.com/gasprofile/gasprofile/evmutil"
	gaslog "github.com/gasprofile/gasprofile/log"
	"github.com/gasprofile/gasprofile/srcmap"
)

// CallStackItem is one active frame of the virtual call stack the engine
// maintains while replaying a trace. Index 0 of the stack is always the
// entry frame.
type CallStackItem struct {
	Contract           *contracts.Contract
	IsConstructionCall bool

	// GasBefore is the gas remaining when this frame started.
	GasBefore uint64

	// HasOutgoingCall, GasBeforeOutgoingCall, OutgoingCallSource, and
	// OutgoingCallLine are set together, iff this frame is currently
	// waiting on a nested call to return.
	HasOutgoingCall       bool
	GasBeforeOutgoingCall uint64
	OutgoingCallSource    int
	OutgoingCallLine      int
}

// Engine replays one transaction's trace, accumulating per-line and
// per-contract gas totals into the Contract and Source objects it touches
// along the way.
type Engine struct {
	ctx      context.Context
	registry *contracts.Registry
	logger   *gaslog.Logger
	stack    []CallStackItem
}

// NewEngine creates an Engine bound to a single profiling run's contract
// registry.
func NewEngine(ctx context.Context, registry *contracts.Registry, logger *gaslog.Logger) *Engine {
	return &Engine{ctx: ctx, registry: registry, logger: logger}
}

// gasCost returns log.GasCost except when it is negative and the log's op
// is a RETURN/REVERT/STOP terminal instruction, a known trace-provider
// quirk: the final step's reported cost can go negative there, and in that
// case only it is clamped to zero. A negative cost on any other opcode
// surfaces as-is and propagates into totals.
func gasCost(log chainrpc.StructLog) int64 {
	if log.GasCost < 0 && (log.Op == "RETURN" || log.Op == "REVERT" || log.Op == "STOP") {
		return 0
	}
	return log.GasCost
}

// Run replays logs against entryContract, starting the entry frame as a
// construction call iff entryIsConstruction (the transaction had no `to`
// and the receipt's contractAddress names the deployed contract instead).
func (e *Engine) Run(logs []chainrpc.StructLog, entryContract *contracts.Contract, entryIsConstruction bool) error {
	if len(logs) == 0 {
		return nil
	}

	bottomDepth := logs[0].Depth
	e.stack = []CallStackItem{{
		Contract:           entryContract,
		IsConstructionCall: entryIsConstruction,
		GasBefore:          logs[0].Gas,
	}}

	for i, log := range logs {
		if err := e.unwindReturns(logs, i, bottomDepth); err != nil {
			return err
		}

		top := &e.stack[len(e.stack)-1]
		pcToIdx := top.Contract.PCToIdx
		srcMap := top.Contract.SourceMap
		if top.IsConstructionCall {
			pcToIdx = top.Contract.ConstructionPCToIdx
			srcMap = top.Contract.ConstructorSourceMap
		}

		sourceID, line, synthetic := e.resolvePosition(top.Contract, pcToIdx, srcMap, log.Pc)

		pushed, err := e.tryPushCall(logs, i, top, sourceID, line)
		if err != nil {
			return err
		}
		if pushed {
			continue
		}

		if synthetic {
			top.Contract.SynthGasCost += gasCost(log)
			continue
		}
		if src, ok := top.Contract.SourcesByID[sourceID]; ok {
			src.LineGas[line] += gasCost(log)
		}
	}

	entry := &e.stack[0]
	first, last := logs[0], logs[len(logs)-1]
	entry.Contract.TotalGasCost += int64(first.Gas) - int64(last.Gas) + gasCost(last)

	return nil
}

// unwindReturns pops every frame whose depth no longer matches the current
// step's depth, folding each popped frame's trailing cost into itself and
// its parent's outgoing-call line, before the current step is classified.
func (e *Engine) unwindReturns(logs []chainrpc.StructLog, i int, bottomDepth int) error {
	log := logs[i]
	for log.Depth-bottomDepth < len(e.stack)-1 {
		prev := e.stack[len(e.stack)-1]
		e.stack = e.stack[:len(e.stack)-1]

		prevLog := logs[i-1]
		prev.Contract.TotalGasCost += int64(prev.GasBefore) - int64(prevLog.Gas) + gasCost(prevLog)

		caller := &e.stack[len(e.stack)-1]
		if !caller.HasOutgoingCall {
			return fmt.Errorf("attribution: unwound a frame but its caller has no pending outgoing call")
		}
		reconciled := int64(caller.GasBeforeOutgoingCall) - int64(log.Gas)
		if caller.OutgoingCallSource < 0 {
			caller.Contract.SynthGasCost += reconciled
		} else if src, ok := caller.Contract.SourcesByID[caller.OutgoingCallSource]; ok {
			src.LineGas[caller.OutgoingCallLine] += reconciled
			src.LinesWithCalls[caller.OutgoingCallLine] = struct{}{}
		}
		caller.HasOutgoingCall = false
	}
	return nil
}

// resolvePosition maps the current PC to an instruction index and then to
// a source-map entry, returning its source id and line. synthetic is true
// when the instruction has no source (f == -1), when its PC or
// instruction index cannot be resolved at all (truncated-bytecode
// contract, or a PC the mapper never saw), or when its source is not
// registered on the contract or has no line table (skipped or unreadable
// file) — in every case the cost has nowhere attributable to go but the
// contract's synthetic bucket, so
// sourceID is always -1 when synthetic is true. -1 can never collide with
// a real compiler source id (those start at 0), unlike the zero value.
func (e *Engine) resolvePosition(c *contracts.Contract, pcToIdx bytecode.PCMap, srcMap []srcmap.Entry, pc uint64) (sourceID, line int, synthetic bool) {
	idx, ok := pcToIdx[pc]
	if !ok || idx >= len(srcMap) {
		return -1, 0, true
	}
	entry := srcMap[idx]
	if entry.F < 0 {
		return -1, 0, true
	}
	src, ok := c.SourcesByID[entry.F]
	if !ok || !src.HasLines() {
		return -1, 0, true
	}
	return entry.F, src.LineForOffset(entry.S), false
}

// tryPushCall classifies the current step as a CALL/CREATE family
// instruction that actually pushed a new frame. It returns false (with no
// error) for any other instruction, or for a CALL/CREATE whose nested
// frame never took effect (the next log stays at the same depth).
func (e *Engine) tryPushCall(logs []chainrpc.StructLog, i int, top *CallStackItem, sourceID, line int) (bool, error) {
	log := logs[i]
	kind, ok := calltarget.KindForOp(log.Op)
	if !ok {
		return false, nil
	}

	addr, hasAddr := e.resolveTargetAddress(logs, i, kind)
	if i == len(logs)-1 {
		if hasAddr {
			return false, ErrTraceTruncated
		}
		return false, nil
	}
	next := logs[i+1]
	if !hasAddr || next.Depth <= log.Depth {
		return false, nil
	}

	top.HasOutgoingCall = true
	top.GasBeforeOutgoingCall = log.Gas
	top.OutgoingCallSource = sourceID
	top.OutgoingCallLine = line

	target, err := e.registry.GetOrCreate(e.ctx, addr)
	if err != nil {
		return false, fmt.Errorf("attribution: resolve call target: %w", err)
	}

	e.stack = append(e.stack, CallStackItem{
		Contract:           target,
		IsConstructionCall: kind.IsCreate(),
		GasBefore:          next.Gas,
	})
	return true, nil
}

// resolveTargetAddress extracts the call target for a CALL-family
// instruction directly from its stack, or for a CREATE-family instruction
// by scanning forward for the first log back at the same depth and
// reading its stack top — the address CREATE/CREATE2 push on successful
// re-emergence. It returns ok=false if the address cannot be determined
// (malformed stack, or CREATE never re-emerges before the trace ends).
func (e *Engine) resolveTargetAddress(logs []chainrpc.StructLog, i int, kind calltarget.Kind) (string, bool) {
	log := logs[i]
	if !kind.IsCreate() {
		addr, err := calltarget.Target(kind, log.Stack)
		if err != nil {
			e.logger.Skip("could not extract call target from stack", "op", log.Op, "err", err)
			return "", false
		}
		return evmutil.FormatAddress(addr), true
	}

	for j := i + 1; j < len(logs); j++ {
		if logs[j].Depth == log.Depth {
			addr, err := calltarget.TopOfStackAddress(logs[j].Stack)
			if err != nil {
				e.logger.Skip("could not extract created address from stack", "err", err)
				return "", false
			}
			return evmutil.FormatAddress(addr), true
		}
	}
	return "", false
}
