// Package bytecode walks raw EVM bytecode to build a table from program
// counter to sequential instruction index, skipping PUSHn immediate bytes
// the way a real disassembler must.
package bytecode

import (
	"errors"

	"github.com/gasprofile/gasprofile/evmutil"
)

// ErrBytecodeTruncated is returned when a PUSH instruction's immediate
// bytes run past the end of the code.
var ErrBytecodeTruncated = errors.New("bytecode: truncated PUSH immediate")

const (
	push1  = 0x60
	push32 = 0x7f
)

// PCMap maps a program counter (byte offset of an opcode) to its 0-based
// instruction index. Lookups for offsets inside a PUSH's immediate bytes
// are not present in the map.
type PCMap map[uint64]int

// Build walks hex-encoded deployed or constructor bytecode and returns its
// PCMap. codeHex may carry an optional "0x" prefix.
func Build(codeHex string) (PCMap, error) {
	code, err := evmutil.DecodeBytecode(codeHex)
	if err != nil {
		return nil, err
	}
	return BuildFromBytes(code)
}

// BuildFromBytes is Build without the hex-decoding step, for callers that
// already hold raw bytecode.
func BuildFromBytes(code []byte) (PCMap, error) {
	m := make(PCMap, len(code))
	idx := 0
	pc := uint64(0)
	n := uint64(len(code))

	for pc < n {
		m[pc] = idx
		idx++

		op := code[pc]
		if op >= push1 && op <= push32 {
			width := uint64(op-push1) + 1
			if pc+1+width > n {
				return nil, ErrBytecodeTruncated
			}
			pc += 1 + width
			continue
		}
		pc++
	}

	return m, nil
}
