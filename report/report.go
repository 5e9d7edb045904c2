// Package report renders the accumulated per-line gas attribution for a
// profiling run to a plain-text report, one block per contract in
// deterministic address order.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/gasprofile/gasprofile/contracts"
	"github.com/gasprofile/gasprofile/sources"
)

// Render writes a deterministic report for the given contracts to w.
// Contracts are sorted by address so repeated runs over the same trace
// produce byte-identical output. A contract with no matched source is
// reported by its total gas cost (and its synthetic gas, when non-zero)
// only, with a note that no source was found.
func Render(w io.Writer, cs []*contracts.Contract) error {
	sorted := make([]*contracts.Contract, len(cs))
	copy(sorted, cs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AddressHex < sorted[j].AddressHex })

	for _, c := range sorted {
		if err := renderContract(w, c); err != nil {
			return fmt.Errorf("report: render %s: %w", c.AddressHex, err)
		}
	}
	return nil
}

func renderContract(w io.Writer, c *contracts.Contract) error {
	label := c.AddressHex
	if c.Matched {
		label = fmt.Sprintf("%s (%s at 0x%s)", c.Name, c.FileName, c.AddressHex)
	}
	if _, err := fmt.Fprintf(w, "== %s ==\n", label); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "total gas: %d\n", c.TotalGasCost); err != nil {
		return err
	}
	if c.SynthGasCost != 0 {
		if _, err := fmt.Fprintf(w, "unattributed (synthetic) gas: %d\n", c.SynthGasCost); err != nil {
			return err
		}
	}

	if !c.Matched {
		_, err := fmt.Fprintln(w, "(no matching source found in the compiler bundle)")
		return err
	}

	printedCallMarker := false
	for _, src := range reportableSources(c) {
		if _, err := fmt.Fprintf(w, "-- %s --\n", src.FileName); err != nil {
			return err
		}
		nums := make([]int, 0, len(src.LineGas))
		for n := range src.LineGas {
			nums = append(nums, n)
		}
		sort.Ints(nums)
		for _, n := range nums {
			marker := "  "
			if _, ok := src.LinesWithCalls[n]; ok {
				marker = "+ "
				printedCallMarker = true
			}
			if _, err := fmt.Fprintf(w, "%s%6d: %d\n", marker, n, src.LineGas[n]); err != nil {
				return err
			}
		}
	}

	if printedCallMarker {
		_, err := fmt.Fprintln(w, "(+ marks a line that also contains gas folded in from a nested call)")
		return err
	}
	return nil
}

// reportableSources returns c's sources, deduplicated by file name (a file
// can be reachable under more than one compiler source id when it is
// included by several contracts) and sorted by file name for deterministic
// output, skipping any source with no usable line table or marked skip.
func reportableSources(c *contracts.Contract) []*sources.Source {
	byFileName := make(map[string]*sources.Source, len(c.SourcesByID))
	for _, src := range c.SourcesByID {
		if !src.HasLines() || src.Skip {
			continue
		}
		byFileName[src.FileName] = src
	}

	names := make([]string, 0, len(byFileName))
	for name := range byFileName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*sources.Source, len(names))
	for i, name := range names {
		out[i] = byFileName[name]
	}
	return out
}
