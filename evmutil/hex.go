// Package evmutil provides small hex and address helpers shared by the gas
// profiler's components. It hand-rolls the same strip-prefix/left-pad logic
// the rest of the pack uses for fixed-width EVM values, rather than pulling
// in a dependency for a handful of lines.
package evmutil

import (
	"encoding/hex"
	"strings"
)

// AddressHexLength is the length, in hex characters, of a zero-padded
// lowercase EVM address (20 bytes).
const AddressHexLength = 40

// StripHexPrefix removes a leading "0x"/"0X" if present.
func StripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// NormalizeByteString lowercases a hex byte string and strips any "0x"
// prefix, leaving it ready for direct comparison or decoding.
func NormalizeByteString(s string) string {
	return strings.ToLower(StripHexPrefix(strings.TrimSpace(s)))
}

// DecodeBytecode decodes a hex bytecode string (with or without a "0x"
// prefix) into raw bytes.
func DecodeBytecode(s string) ([]byte, error) {
	return hex.DecodeString(NormalizeByteString(s))
}

// NormalizeAddress lowercases and zero-pads an address hex string to 40
// characters. It is idempotent: NormalizeAddress(NormalizeAddress(x)) ==
// NormalizeAddress(x).
func NormalizeAddress(s string) string {
	n := NormalizeByteString(s)
	if len(n) < AddressHexLength {
		n = strings.Repeat("0", AddressHexLength-len(n)) + n
	}
	if len(n) > AddressHexLength {
		n = n[len(n)-AddressHexLength:]
	}
	return n
}

// FormatAddress renders a 20-byte address as zero-padded 40-hex lowercase.
func FormatAddress(b [20]byte) string {
	return hex.EncodeToString(b[:])
}
