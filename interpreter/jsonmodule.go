package interpreter

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/ais-project/portalvm/object"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonInstr is the wire shape of one bytecode instruction (spec.md §6): a
// host supplies modules as JSON rather than Go literals when it isn't
// itself a Go bytecode producer.
type jsonInstr struct {
	Op    string `json:"op"`
	N     uint8  `json:"n,omitempty"`
	Delta int8   `json:"delta,omitempty"`
	Fn    string `json:"fn,omitempty"`
}

type jsonModule struct {
	Id      object.ModuleId `json:"id"`
	Symbols map[string]int  `json:"symbols"`
	Program []jsonInstr     `json:"program"`
}

// OperateRegistry resolves the "fn" name of a JSON "operate" instruction to
// the host operator it invokes. A host decoding JSON modules must build one
// naming every operator its programs reference.
type OperateRegistry map[string]OperateFunc

// DecodeModule parses a JSON-encoded module against registry (grounded on
// spec.md §6's bytecode-module representation), resolving every "operate"
// instruction's fn name eagerly so a typo surfaces at load time rather than
// mid-Step.
func DecodeModule(data []byte, registry OperateRegistry) (*Module, error) {
	var jm jsonModule
	if err := jsonAPI.Unmarshal(data, &jm); err != nil {
		return nil, fmt.Errorf("interpreter: decode module: %w", err)
	}
	prog := make([]ByteCode, len(jm.Program))
	for i, ji := range jm.Program {
		switch ji.Op {
		case "copy":
			prog[i] = Copy(ji.N)
		case "operate":
			f, ok := registry[ji.Fn]
			if !ok {
				return nil, fmt.Errorf("interpreter: decode module: unknown operate fn %q", ji.Fn)
			}
			prog[i] = OperateOp(ji.N, f)
		case "jump":
			prog[i] = Jump(ji.Delta)
		case "call":
			prog[i] = Call(ji.N)
		case "return":
			prog[i] = Return(ji.N)
		case "assert_floating":
			prog[i] = AssertFloating(ji.N)
		case "pack_floating":
			prog[i] = PackFloating(ji.N)
		case "unpack":
			prog[i] = Unpack()
		default:
			return nil, fmt.Errorf("interpreter: decode module: unknown op %q", ji.Op)
		}
	}
	return &Module{Id: jm.Id, SymbolTable: jm.Symbols, Program: prog}, nil
}
