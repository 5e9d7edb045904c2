// Package contracts resolves on-chain addresses to compiled contracts,
// matching deployed bytecode against a compiler-output bundle and caching
// the result for the lifetime of a single profiling run.
package contracts

import (
	"context"
	"fmt"

	"github.com/gasprofile/gasprofile/bundle"
	"github.com/gasprofile/gasprofile/bytecode"
	"github.com/gasprofile/gasprofile/chainrpc"
	"github.com/gasprofile/gasprofile/evmutil"
	gaslog "github.com/gasprofile/gasprofile/log"
	"github.com/gasprofile/gasprofile/sources"
	"github.com/gasprofile/gasprofile/srcmap"
)

// Contract is everything known about one on-chain address: its runtime and
// (if matched) constructor bytecode, the compiled source it came from, and
// the running gas totals attributed to it.
type Contract struct {
	AddressHex           string
	CodeHex              string
	ConstructionCodeHex  string
	Name                 string
	FileName             string
	Matched              bool
	SourceMap            []srcmap.Entry
	ConstructorSourceMap []srcmap.Entry
	PCToIdx              bytecode.PCMap
	ConstructionPCToIdx  bytecode.PCMap

	// SourcesByID holds every Source this contract's instructions map into,
	// keyed by the compiler's numeric source id. A contract's source map can
	// reference more than one file (inherited library code, imports), so
	// this is a set, not a single Source.
	SourcesByID map[int]*sources.Source

	// TotalGasCost and SynthGasCost are int64, not uint64: spec-mandated
	// negative gas costs on a non-terminal opcode must surface as-is, and
	// that can only happen in a signed accumulator.
	TotalGasCost int64
	SynthGasCost int64
}

// Registry resolves and caches Contract objects by address for one
// profiling run. It never persists across runs.
type Registry struct {
	byAddr  map[string]*Contract
	chain   chainrpc.Client
	bundle  *bundle.Output
	sources *sources.Registry
	logger  *gaslog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(chain chainrpc.Client, b *bundle.Output, srcReg *sources.Registry, logger *gaslog.Logger) *Registry {
	return &Registry{
		byAddr:  make(map[string]*Contract),
		chain:   chain,
		bundle:  b,
		sources: srcReg,
		logger:  logger,
	}
}

// GetOrCreate returns the cached Contract for addr, resolving it on first
// use. The skeletal Contract is cached before any I/O is attempted, so a
// self-call (a contract calling back into its own address, directly or
// through a chain of delegatecalls) resolves to the same in-progress
// Contract instead of recursing into GetOrCreate again.
func (r *Registry) GetOrCreate(ctx context.Context, addr string) (*Contract, error) {
	key := evmutil.NormalizeAddress(addr)
	if c, ok := r.byAddr[key]; ok {
		return c, nil
	}

	c := &Contract{AddressHex: key, SourcesByID: make(map[int]*sources.Source)}
	r.byAddr[key] = c

	code, err := r.chain.GetCode(ctx, "0x"+key)
	if err != nil {
		return nil, fmt.Errorf("contracts: fetch code for %s: %w", key, err)
	}
	if evmutil.NormalizeByteString(code) == "" {
		r.logger.Skip("no code at address", "address", key)
		return c, nil
	}
	c.CodeHex = code

	pcToIdx, err := bytecode.Build(code)
	if err != nil {
		r.logger.Corrupt("bytecode truncated, instructions will be unattributed", "address", key, "err", err)
		return c, nil
	}
	c.PCToIdx = pcToIdx

	match, ok := r.bundle.FindByDeployedBytecode(code)
	if !ok {
		r.logger.Skip("no bundle entry for deployed bytecode", "address", key)
		return c, nil
	}
	c.Matched = true
	c.Name = match.Name
	c.FileName = match.FileName
	c.ConstructionCodeHex = match.ConstructorCodeHex

	if entries, err := srcmap.Decode(match.DeployedSourceMap); err != nil {
		r.logger.Corrupt("malformed deployed source map", "address", key, "contract", c.Name, "err", err)
	} else {
		c.SourceMap = entries
		r.registerSources(c, entries)
	}

	if entries, err := srcmap.Decode(match.ConstructorSourceMap); err != nil {
		r.logger.Corrupt("malformed constructor source map", "address", key, "contract", c.Name, "err", err)
	} else {
		c.ConstructorSourceMap = entries
		r.registerSources(c, entries)
	}

	if match.ConstructorCodeHex != "" {
		if pcToIdx, err := bytecode.Build(match.ConstructorCodeHex); err != nil {
			r.logger.Corrupt("constructor bytecode truncated", "address", key, "contract", c.Name, "err", err)
		} else {
			c.ConstructionPCToIdx = pcToIdx
		}
	}

	return c, nil
}

// registerSources resolves every distinct source id referenced by entries
// (skipping -1, the compiler-generated marker) to its Source and records it
// on c.SourcesByID, so later line-gas attribution and reporting can reach
// the Source directly from the source-map entry's F field.
func (r *Registry) registerSources(c *Contract, entries []srcmap.Entry) {
	for _, e := range entries {
		if e.F < 0 {
			continue
		}
		if _, ok := c.SourcesByID[e.F]; ok {
			continue
		}
		fileName, ok := r.bundle.FileNameForID(e.F)
		if !ok {
			r.logger.Skip("source id has no file name in bundle", "id", e.F)
			continue
		}
		src := r.sources.GetByID(e.F, fileName)
		if !src.Skip && src.Text == nil {
			r.logger.Skip("source file unreadable, its lines will not be reported", "id", e.F, "file", fileName)
		}
		c.SourcesByID[e.F] = src
	}
}

// All returns every contract resolved so far, for report rendering.
func (r *Registry) All() []*Contract {
	out := make([]*Contract, 0, len(r.byAddr))
	for _, c := range r.byAddr {
		out = append(out, c)
	}
	return out
}
