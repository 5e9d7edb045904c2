// Package calltarget extracts the target address of a CALL-family
// instruction from the EVM stack snapshot carried by a structLog entry.
package calltarget

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Kind identifies which CALL-family or CREATE-family opcode produced a
// CallStackItem.
type Kind int

const (
	Call Kind = iota
	StaticCall
	DelegateCall
	CallCode
	Create
	Create2
)

func (k Kind) String() string {
	switch k {
	case Call:
		return "CALL"
	case StaticCall:
		return "STATICCALL"
	case DelegateCall:
		return "DELEGATECALL"
	case CallCode:
		return "CALLCODE"
	case Create:
		return "CREATE"
	case Create2:
		return "CREATE2"
	default:
		return "UNKNOWN"
	}
}

// IsCreate reports whether this kind deploys a new contract, whose address
// is not on the stack and must instead be discovered by scanning forward
// for the first log back at the creating frame's depth and reading its
// stack top.
func (k Kind) IsCreate() bool {
	return k == Create || k == Create2
}

// KindForOp maps an opcode mnemonic to its Kind, and reports whether the
// opcode is a CALL-family or CREATE-family instruction at all.
func KindForOp(op string) (Kind, bool) {
	switch op {
	case "CALL":
		return Call, true
	case "STATICCALL":
		return StaticCall, true
	case "DELEGATECALL":
		return DelegateCall, true
	case "CALLCODE":
		return CallCode, true
	case "CREATE":
		return Create, true
	case "CREATE2":
		return Create2, true
	default:
		return 0, false
	}
}

// stackTargetDepth is the number of stack items below the top that hold
// the call target address, indexed from the top of the stack (0 = top).
// CALL/STATICCALL/DELEGATECALL/CALLCODE all carry the target as their
// second-from-top argument.
func stackTargetDepth(k Kind) (int, bool) {
	switch k {
	case Call, CallCode:
		return 1, true
	case DelegateCall, StaticCall:
		return 1, true
	default:
		return 0, false
	}
}

// Target extracts the called address from a CALL-family instruction's
// stack, given as the raw hex stack words from a structLog entry with the
// conventional bottom-to-top ordering. It returns an error for a CREATE
// family kind, whose target is never on the stack.
func Target(k Kind, stack []string) ([20]byte, error) {
	depth, ok := stackTargetDepth(k)
	if !ok {
		return [20]byte{}, fmt.Errorf("calltarget: %s has no stack-resident target", k)
	}
	idx := len(stack) - 1 - depth
	if idx < 0 {
		return [20]byte{}, fmt.Errorf("calltarget: %s: stack has %d items, need index %d", k, len(stack), idx)
	}
	word, err := uint256.FromHex(normalizeWord(stack[idx]))
	if err != nil {
		return [20]byte{}, fmt.Errorf("calltarget: %s: bad stack word %q: %w", k, stack[idx], err)
	}
	// An address is the low 20 bytes of its 32-byte stack word, the same
	// truncation the EVM itself performs when a CALL pushes an address.
	return word.Bytes20(), nil
}

// TopOfStackAddress extracts an address from the top of the stack, the
// shape a CREATE/CREATE2's re-emergence log carries its newly-deployed
// address in.
func TopOfStackAddress(stack []string) ([20]byte, error) {
	if len(stack) == 0 {
		return [20]byte{}, fmt.Errorf("calltarget: empty stack, no top to read")
	}
	word, err := uint256.FromHex(normalizeWord(stack[len(stack)-1]))
	if err != nil {
		return [20]byte{}, fmt.Errorf("calltarget: bad top-of-stack word %q: %w", stack[len(stack)-1], err)
	}
	return word.Bytes20(), nil
}

func normalizeWord(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s
	}
	if s == "" {
		return "0x0"
	}
	return "0x" + s
}
