package bytecode

import "testing"

func TestBuildSkipsPushImmediates(t *testing.T) {
	// PUSH1 0x01, PUSH2 0x0203, STOP
	code := []byte{0x60, 0x01, 0x61, 0x02, 0x03, 0x00}
	m, err := BuildFromBytes(code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := PCMap{0: 0, 2: 1, 5: 2}
	if len(m) != len(want) {
		t.Fatalf("want %d entries, got %d (%v)", len(want), len(m), m)
	}
	for pc, idx := range want {
		got, ok := m[pc]
		if !ok {
			t.Fatalf("missing pc %d in map", pc)
		}
		if got != idx {
			t.Fatalf("pc %d: want idx %d, got %d", pc, idx, got)
		}
	}
	// A PC inside the PUSH2 immediate must not be present.
	if _, ok := m[3]; ok {
		t.Fatalf("pc 3 (immediate byte) should not be mapped")
	}
}

func TestBuildTruncatedPush(t *testing.T) {
	// PUSH32 with only one immediate byte present.
	code := []byte{0x7f, 0x01}
	if _, err := BuildFromBytes(code); err != ErrBytecodeTruncated {
		t.Fatalf("want ErrBytecodeTruncated, got %v", err)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	code := []byte{0x60, 0x01, 0x01, 0x00}
	m1, err := BuildFromBytes(code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m2, err := BuildFromBytes(code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m1) != len(m2) {
		t.Fatalf("non-deterministic map sizes")
	}
	for pc, idx := range m1 {
		if m2[pc] != idx {
			t.Fatalf("non-deterministic mapping at pc %d", pc)
		}
	}
}

func TestBuildContiguousIndices(t *testing.T) {
	code := []byte{0x01, 0x01, 0x01, 0x01}
	m, err := BuildFromBytes(code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make([]bool, len(m))
	for _, idx := range m {
		if idx < 0 || idx >= len(seen) {
			t.Fatalf("index %d out of range", idx)
		}
		seen[idx] = true
	}
	for i, ok := range seen {
		if !ok {
			t.Fatalf("instruction index %d missing — indices must be contiguous from 0", i)
		}
	}
}

func TestBuildWithHexPrefix(t *testing.T) {
	m, err := Build("0x600100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m[0]; !ok {
		t.Fatalf("expected pc 0 mapped")
	}
	if _, ok := m[2]; !ok {
		t.Fatalf("expected pc 2 mapped")
	}
}
