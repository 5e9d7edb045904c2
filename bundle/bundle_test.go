package bundle

import "testing"

const sampleJSON = `{
  "sources": {
    "A.sol": {"id": 0},
    "B.sol": {"id": 1}
  },
  "contracts": {
    "A.sol": {
      "Foo": {
        "evm": {
          "deployedBytecode": {"object": "6001600201", "sourceMap": "0:1:0:-"},
          "bytecode": {"object": "60016001600201", "sourceMap": "0:1:0:-;0:1:0:-"}
        }
      }
    }
  }
}`

func TestParseAndSourceID(t *testing.T) {
	out, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, ok := out.SourceID("B.sol")
	if !ok || id != 1 {
		t.Fatalf("want (1, true), got (%d, %v)", id, ok)
	}
	if _, ok := out.SourceID("missing.sol"); ok {
		t.Fatalf("expected miss for unknown file")
	}
}

func TestFileNameForID(t *testing.T) {
	out, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name, ok := out.FileNameForID(0)
	if !ok || name != "A.sol" {
		t.Fatalf("want (A.sol, true), got (%q, %v)", name, ok)
	}
	if _, ok := out.FileNameForID(99); ok {
		t.Fatalf("expected miss for unknown id")
	}
}

func TestFindByDeployedBytecodeExactMatch(t *testing.T) {
	out, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := out.FindByDeployedBytecode("0x6001600201")
	if !ok {
		t.Fatalf("expected a match")
	}
	if m.Name != "Foo" || m.FileName != "A.sol" {
		t.Fatalf("unexpected match: %+v", m)
	}
	if m.ConstructorCodeHex != "60016001600201" {
		t.Fatalf("unexpected constructor code: %q", m.ConstructorCodeHex)
	}
}

func TestFindByDeployedBytecodeMiss(t *testing.T) {
	out, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out.FindByDeployedBytecode("deadbeef"); ok {
		t.Fatalf("expected no match for unrelated bytecode")
	}
}
