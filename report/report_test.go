package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gasprofile/gasprofile/contracts"
	"github.com/gasprofile/gasprofile/sources"
)

func TestRenderSortsContractsByAddress(t *testing.T) {
	c1 := &contracts.Contract{AddressHex: "b0000000000000000000000000000000000000"}
	c2 := &contracts.Contract{AddressHex: "a0000000000000000000000000000000000000"}

	var buf bytes.Buffer
	if err := Render(&buf, []*contracts.Contract{c1, c2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if strings.Index(out, "a00000") > strings.Index(out, "b00000") {
		t.Fatalf("expected address a... before b..., got:\n%s", out)
	}
}

func TestRenderUnmatchedContract(t *testing.T) {
	c := &contracts.Contract{AddressHex: "c0000000000000000000000000000000000000", TotalGasCost: 42}

	var buf bytes.Buffer
	if err := Render(&buf, []*contracts.Contract{c}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "total gas: 42") {
		t.Fatalf("expected total gas line, got:\n%s", out)
	}
	if !strings.Contains(out, "no matching source") {
		t.Fatalf("expected unmatched-source note, got:\n%s", out)
	}
}

func TestRenderMatchedContractWithLines(t *testing.T) {
	src := &sources.Source{
		FileName:       "A.sol",
		Text:           []byte("a\nb\nc\n"),
		LineOffsets:    []int{0, 2, 4},
		LineGas:        map[int]int64{0: 100, 1: 200},
		LinesWithCalls: map[int]struct{}{1: {}},
	}
	c := &contracts.Contract{
		AddressHex:   "d0000000000000000000000000000000000000",
		Matched:      true,
		Name:         "Foo",
		FileName:     "A.sol",
		TotalGasCost: 300,
		SourcesByID:  map[int]*sources.Source{0: src},
	}

	var buf bytes.Buffer
	if err := Render(&buf, []*contracts.Contract{c}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "-- A.sol --") {
		t.Fatalf("expected source file header, got:\n%s", out)
	}
	if !strings.Contains(out, "+      1: 200") {
		t.Fatalf("expected call marker on line 1, got:\n%s", out)
	}
	if !strings.Contains(out, "       0: 100") {
		t.Fatalf("expected plain line 0, got:\n%s", out)
	}
	if !strings.Contains(out, "marks a line") {
		t.Fatalf("expected legend line since a call marker was printed, got:\n%s", out)
	}
}

func TestRenderSkipsUnreportableSources(t *testing.T) {
	skipped := &sources.Source{FileName: "vendor/Lib.sol", Skip: true, LineGas: map[int]int64{0: 5}}
	noText := &sources.Source{FileName: "Unreadable.sol", LineGas: map[int]int64{0: 5}}
	c := &contracts.Contract{
		AddressHex:  "e0000000000000000000000000000000000000",
		Matched:     true,
		SourcesByID: map[int]*sources.Source{0: skipped, 1: noText},
	}

	var buf bytes.Buffer
	if err := Render(&buf, []*contracts.Contract{c}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "vendor/Lib.sol") || strings.Contains(out, "Unreadable.sol") {
		t.Fatalf("expected skipped/unreadable sources to be omitted, got:\n%s", out)
	}
}
