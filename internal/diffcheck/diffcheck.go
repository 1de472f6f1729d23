// Package diffcheck cross-checks the module signature this core derives
// from a decoded wasm.Module against the signature two independent,
// full-featured runtimes derive from the equivalent binary.
//
// This core never decodes a WebAssembly binary itself (there is no
// decoder or Engine here, see internal/wasm.Engine), so it cannot
// compare decode results end to end. Instead it leans on wasmtime-go and
// wasmer-go purely as structural oracles: both embed the Wasm reference
// decoder and binding layer, so asking them to parse a binary and report
// its import/export signature is a cheap way to catch a hand-built
// wasm.Module fixture that has drifted from what the binary actually
// says, the same category of bug the teacher's internal/integration_test/vs
// package hunts for by running real binaries through multiple engines
// and diffing the observable behavior.
package diffcheck

import (
	"fmt"

	"github.com/wazerolite/wazerolite/api"
	"github.com/wazerolite/wazerolite/internal/wasm"
)

// ExternKind mirrors api.ExternType so callers don't need to import two
// different "kind of export" enumerations to use this package.
type ExternKind byte

const (
	ExternKindFunc ExternKind = iota
	ExternKindTable
	ExternKindMemory
	ExternKindGlobal
)

func (k ExternKind) String() string {
	switch k {
	case ExternKindFunc:
		return "func"
	case ExternKindTable:
		return "table"
	case ExternKindMemory:
		return "memory"
	case ExternKindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// ExternSig is one import or export entry as reported by a third-party
// decoder. Params/Results are only populated when the oracle exposes
// them cheaply (wasmtime-go does for functions); a nil slice means "not
// compared", not "empty".
type ExternSig struct {
	Module  string // empty for exports
	Name    string
	Kind    ExternKind
	Params  []api.ValueType
	Results []api.ValueType
}

// ModuleSignature is the portion of a module's shape this package knows
// how to extract from a third-party decoder and compare against
// internal/wasm.Module.
type ModuleSignature struct {
	Imports []ExternSig
	Exports []ExternSig
}

// CompareWithModule checks that every export wasm.Module declares is
// present, in order, with a matching kind in sig. It does not require
// sig to be exhaustive in the other direction: an oracle that surfaces
// additional synthetic exports (wasmtime and wasmer both do this for
// some memory/table internals) is not a mismatch.
func CompareWithModule(sig *ModuleSignature, mod *wasm.Module) error {
	want := mod.ExportSection
	if len(sig.Exports) < len(want) {
		return fmt.Errorf("diffcheck: oracle reported %d exports, module declares %d", len(sig.Exports), len(want))
	}
	for i, exp := range want {
		got := sig.Exports[i]
		if got.Name != exp.Name {
			return fmt.Errorf("diffcheck: export[%d] name mismatch: module=%q oracle=%q", i, exp.Name, got.Name)
		}
		wantKind, err := externKindOf(exp.Type)
		if err != nil {
			return err
		}
		if got.Kind != wantKind {
			return fmt.Errorf("diffcheck: export %q kind mismatch: module=%s oracle=%s", exp.Name, wantKind, got.Kind)
		}
		if got.Kind == ExternKindFunc && got.Params != nil {
			ft := mod.TypeSection[mod.FunctionSection[funcSectionIndex(mod, exp.Index)]]
			if err := compareSignature(exp.Name, ft, got); err != nil {
				return err
			}
		}
	}
	return nil
}

func externKindOf(t api.ExternType) (ExternKind, error) {
	switch t {
	case api.ExternTypeFunc:
		return ExternKindFunc, nil
	case api.ExternTypeTable:
		return ExternKindTable, nil
	case api.ExternTypeMemory:
		return ExternKindMemory, nil
	case api.ExternTypeGlobal:
		return ExternKindGlobal, nil
	default:
		return 0, fmt.Errorf("diffcheck: unknown extern type %v", t)
	}
}

// funcSectionIndex maps an export's module-wide function index back into
// FunctionSection, accounting for imported functions occupying the low
// indices (see internal/wasm.Module.funcDesc for the same arithmetic).
func funcSectionIndex(mod *wasm.Module, funcIdx wasm.Index) wasm.Index {
	var importedFuncs wasm.Index
	for _, imp := range mod.ImportSection {
		if imp.Type == api.ExternTypeFunc {
			importedFuncs++
		}
	}
	return funcIdx - importedFuncs
}

func compareSignature(name string, ft *wasm.FuncType, got ExternSig) error {
	if len(ft.Params) != len(got.Params) {
		return fmt.Errorf("diffcheck: export %q param count mismatch: module=%d oracle=%d", name, len(ft.Params), len(got.Params))
	}
	for i, p := range ft.Params {
		if p != got.Params[i] {
			return fmt.Errorf("diffcheck: export %q param[%d] mismatch: module=%s oracle=%s", name, i, api.ValueTypeName(p), api.ValueTypeName(got.Params[i]))
		}
	}
	if len(ft.Results) != len(got.Results) {
		return fmt.Errorf("diffcheck: export %q result count mismatch: module=%d oracle=%d", name, len(ft.Results), len(got.Results))
	}
	for i, r := range ft.Results {
		if r != got.Results[i] {
			return fmt.Errorf("diffcheck: export %q result[%d] mismatch: module=%s oracle=%s", name, i, api.ValueTypeName(r), api.ValueTypeName(got.Results[i]))
		}
	}
	return nil
}
