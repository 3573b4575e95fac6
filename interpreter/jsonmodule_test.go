package interpreter_test

import (
	"strings"
	"testing"

	"github.com/ais-project/portalvm/interpreter"
)

func TestDecodeModuleBuildsProgram(t *testing.T) {
	var called bool
	registry := interpreter.OperateRegistry{
		"noop": func(interpreter.OperateContext) { called = true },
	}
	data := []byte(`{
		"id": "demo",
		"symbols": {"run": 0},
		"program": [
			{"op": "unpack"},
			{"op": "operate", "n": 1, "fn": "noop"},
			{"op": "copy", "n": 2},
			{"op": "jump", "delta": 3},
			{"op": "assert_floating", "n": 1},
			{"op": "pack_floating", "n": 1},
			{"op": "return", "n": 2}
		]
	}`)

	mod, err := interpreter.DecodeModule(data, registry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mod.Id != "demo" {
		t.Fatalf("expected module id %q, got %q", "demo", mod.Id)
	}
	if mod.SymbolTable["run"] != 0 {
		t.Fatalf("expected symbol run at offset 0, got %d", mod.SymbolTable["run"])
	}
	if len(mod.Program) != 7 {
		t.Fatalf("expected 7 instructions, got %d", len(mod.Program))
	}

	mod.Program[1].Operate(nil)
	if !called {
		t.Fatal("expected the resolved operate fn to be callable")
	}
}

func TestDecodeModuleUnknownFnErrors(t *testing.T) {
	data := []byte(`{"id":"demo","symbols":{},"program":[{"op":"operate","n":1,"fn":"missing"}]}`)
	_, err := interpreter.DecodeModule(data, interpreter.OperateRegistry{})
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected an unknown-fn error mentioning %q, got %v", "missing", err)
	}
}

func TestDecodeModuleUnknownOpErrors(t *testing.T) {
	data := []byte(`{"id":"demo","symbols":{},"program":[{"op":"nonsense"}]}`)
	_, err := interpreter.DecodeModule(data, interpreter.OperateRegistry{})
	if err == nil || !strings.Contains(err.Error(), "nonsense") {
		t.Fatalf("expected an unknown-op error mentioning %q, got %v", "nonsense", err)
	}
}
