package interpreter

import "github.com/ais-project/portalvm/object"

// Module is {module_id, symbol_table, program} (spec.md §6). Hosts load
// modules into an interpreter-local table keyed by module_id; reloading
// replaces prior entries.
type Module struct {
	Id          object.ModuleId
	Program     []ByteCode
	SymbolTable map[string]int
}
