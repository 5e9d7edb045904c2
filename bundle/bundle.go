// Package bundle decodes a Solidity/Hardhat "standard JSON output"-shaped
// compiler bundle: the deployed and constructor bytecode plus source maps
// for every contract, and the numeric source-id index for every file.
package bundle

import (
	"encoding/json"
	"os"

	"github.com/gasprofile/gasprofile/evmutil"
)

// SourceEntry is one file's entry in the compiler's source index.
type SourceEntry struct {
	ID int `json:"id"`
}

// BytecodeOutput is one half (deployed or constructor) of a contract's
// compiled EVM output.
type BytecodeOutput struct {
	Object    string `json:"object"`
	SourceMap string `json:"sourceMap"`
}

// EVMOutput is the "evm" key of one compiled contract.
type EVMOutput struct {
	DeployedBytecode BytecodeOutput `json:"deployedBytecode"`
	Bytecode         BytecodeOutput `json:"bytecode"`
}

// CompiledContract is one contract entry under contracts[fileName][name].
type CompiledContract struct {
	EVM EVMOutput `json:"evm"`
}

// Output is the full compiler-output bundle.
type Output struct {
	Sources   map[string]SourceEntry                 `json:"sources"`
	Contracts map[string]map[string]CompiledContract `json:"contracts"`

	idToFile map[int]string
}

// Load reads and decodes a compiler-output bundle from path.
func Load(path string) (*Output, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a compiler-output bundle from raw JSON bytes.
func Parse(data []byte) (*Output, error) {
	var out Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SourceID returns the numeric compiler id assigned to fileName.
func (o *Output) SourceID(fileName string) (int, bool) {
	e, ok := o.Sources[fileName]
	if !ok {
		return 0, false
	}
	return e.ID, true
}

// FileNameForID resolves a numeric source id back to its file name, the
// reverse direction of SourceID. The reverse index is built once, on
// first use.
func (o *Output) FileNameForID(id int) (string, bool) {
	if o.idToFile == nil {
		o.idToFile = make(map[int]string, len(o.Sources))
		for name, e := range o.Sources {
			o.idToFile[e.ID] = name
		}
	}
	name, ok := o.idToFile[id]
	return name, ok
}

// Match is a compiled contract located by exact deployed-bytecode match.
type Match struct {
	Name                 string
	FileName             string
	ConstructorCodeHex   string
	ConstructorSourceMap string
	DeployedSourceMap    string
}

// FindByDeployedBytecode scans every compiled contract in the bundle for
// one whose deployed bytecode is byte-for-byte identical (case-sensitive,
// after "0x"-stripping) to codeHex. Compiled bytecode is the only reliable
// identity available here: source-identical contracts can still differ in
// their linked library references, so no library lookup replaces this.
func (o *Output) FindByDeployedBytecode(codeHex string) (*Match, bool) {
	want := evmutil.StripHexPrefix(codeHex)
	for fileName, contracts := range o.Contracts {
		for name, c := range contracts {
			if evmutil.StripHexPrefix(c.EVM.DeployedBytecode.Object) == want {
				return &Match{
					Name:                 name,
					FileName:             fileName,
					ConstructorCodeHex:   c.EVM.Bytecode.Object,
					ConstructorSourceMap: c.EVM.Bytecode.SourceMap,
					DeployedSourceMap:    c.EVM.DeployedBytecode.SourceMap,
				}, true
			}
		}
	}
	return nil, false
}
