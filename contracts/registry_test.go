package contracts

import (
	"context"
	"log/slog"
	"testing"

	"github.com/gasprofile/gasprofile/bundle"
	"github.com/gasprofile/gasprofile/chainrpc"
	gaslog "github.com/gasprofile/gasprofile/log"
	"github.com/gasprofile/gasprofile/sources"
)

type fakeChain struct {
	codes map[string]string
}

func (f *fakeChain) GetTransaction(ctx context.Context, txHash string) (*chainrpc.Transaction, error) {
	return nil, nil
}
func (f *fakeChain) GetTransactionReceipt(ctx context.Context, txHash string) (*chainrpc.Receipt, error) {
	return nil, nil
}
func (f *fakeChain) GetCode(ctx context.Context, address string) (string, error) {
	return f.codes[address], nil
}
func (f *fakeChain) TraceTransaction(ctx context.Context, txHash string) (*chainrpc.TraceResult, error) {
	return nil, nil
}

const matchedBundle = `{
  "sources": {"A.sol": {"id": 0}},
  "contracts": {
    "A.sol": {
      "Foo": {
        "evm": {
          "deployedBytecode": {"object": "6001", "sourceMap": "0:1:0:-"},
          "bytecode": {"object": "600160", "sourceMap": "0:1:0:-;0:1:0:-"}
        }
      }
    }
  }
}`

func newTestRegistry(t *testing.T, chain *fakeChain, bundleJSON string) *Registry {
	t.Helper()
	b, err := bundle.Parse([]byte(bundleJSON))
	if err != nil {
		t.Fatalf("bundle parse: %v", err)
	}
	srcReg := sources.NewRegistry(t.TempDir(), nil)
	logger := gaslog.New(slog.LevelError)
	return NewRegistry(chain, b, srcReg, logger)
}

func TestGetOrCreateCachesByAddress(t *testing.T) {
	chain := &fakeChain{codes: map[string]string{"0x" + addr1: "0x6001"}}
	r := newTestRegistry(t, chain, matchedBundle)

	c1, err := r.GetOrCreate(context.Background(), addr1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c2, err := r.GetOrCreate(context.Background(), addr1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c1 != c2 {
		t.Fatalf("expected the same cached *Contract pointer")
	}
}

func TestGetOrCreateMatchesBundle(t *testing.T) {
	chain := &fakeChain{codes: map[string]string{"0x" + addr1: "0x6001"}}
	r := newTestRegistry(t, chain, matchedBundle)

	c, err := r.GetOrCreate(context.Background(), addr1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Matched {
		t.Fatalf("expected a bundle match")
	}
	if c.Name != "Foo" || c.FileName != "A.sol" {
		t.Fatalf("unexpected match: %+v", c)
	}
	if len(c.SourceMap) != 1 {
		t.Fatalf("expected 1 decoded source map entry, got %d", len(c.SourceMap))
	}
}

func TestGetOrCreateEmptyCodeIsNotFatal(t *testing.T) {
	chain := &fakeChain{codes: map[string]string{}}
	r := newTestRegistry(t, chain, matchedBundle)

	c, err := r.GetOrCreate(context.Background(), addr2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.CodeHex != "" || c.Matched {
		t.Fatalf("expected an empty, unmatched skeletal contract, got %+v", c)
	}
}

func TestGetOrCreateBundleMissIsNotFatal(t *testing.T) {
	chain := &fakeChain{codes: map[string]string{"0x" + addr1: "0xdeadbeef"}}
	r := newTestRegistry(t, chain, matchedBundle)

	c, err := r.GetOrCreate(context.Background(), addr1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Matched {
		t.Fatalf("expected no bundle match for unrelated bytecode")
	}
	if c.PCToIdx == nil {
		t.Fatalf("expected PCToIdx to still be built for an unmatched contract")
	}
}

const (
	addr1 = "0000000000000000000000000000000000000001"
	addr2 = "0000000000000000000000000000000000000002"
)
