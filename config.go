package wazero

import (
	"github.com/wazerolite/wazerolite/internal/wasm"
)

// RuntimeConfig controls Runtime behavior, following the teacher's
// NewRuntimeConfig/WithXxx fluent-builder pattern (config.go). Unlike the
// teacher, there is no JIT/interpreter choice here: this core never
// executes Wasm code (spec.md Non-goal), so the only engine knob is
// whether one is supplied at all via WithEngine.
type RuntimeConfig struct {
	enabledFeatures wasm.Features
	engine          wasm.Engine
}

// NewRuntimeConfig returns the default configuration: WebAssembly Core 1.0
// (20191205) feature set, no execution engine.
func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		enabledFeatures: wasm.Features20191205,
	}
}

func (c *RuntimeConfig) clone() *RuntimeConfig {
	cp := *c
	return &cp
}

// WithFeatureBulkMemoryOperations toggles the bulk-memory-operations
// proposal.
func (c *RuntimeConfig) WithFeatureBulkMemoryOperations(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.enabledFeatures = ret.enabledFeatures.Set(wasm.FeatureBulkMemoryOperations, enabled)
	return ret
}

// WithFeatureMultiValue toggles the multi-value proposal. Note that
// multi-value *block types* remain unsupported regardless (spec.md
// Non-goal). The flag is recorded on the Store's EnabledFeatures; no code
// in this core consults it.
func (c *RuntimeConfig) WithFeatureMultiValue(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.enabledFeatures = ret.enabledFeatures.Set(wasm.FeatureMultiValue, enabled)
	return ret
}

// WithFeatureReferenceTypes toggles the reference-types proposal
// (externref, multiple tables).
func (c *RuntimeConfig) WithFeatureReferenceTypes(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.enabledFeatures = ret.enabledFeatures.Set(wasm.FeatureReferenceTypes, enabled)
	return ret
}

// WithFeatureSignExtensionOps toggles the sign-extension-ops proposal.
func (c *RuntimeConfig) WithFeatureSignExtensionOps(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.enabledFeatures = ret.enabledFeatures.Set(wasm.FeatureSignExtensionOps, enabled)
	return ret
}

// WithWasmCore2 enables every feature that had reached Phase 4 by the
// WebAssembly Core 2.0 working draft (2022-04-19).
func (c *RuntimeConfig) WithWasmCore2() *RuntimeConfig {
	ret := c.clone()
	ret.enabledFeatures = wasm.Features20220419
	return ret
}

// WithEngine supplies the Engine used to run compiled function bodies
// (including a module's start function). Leaving this nil is valid:
// CompileModule, InstantiateModule, and every lookup/linking operation
// still work, but Start (and any Call) returns wasm.ErrNoEngine. This
// seam exists because execution is explicitly out of scope for this core
// (spec.md §1) and is the one piece of the teacher's Runtime a caller
// must bring themselves.
func (c *RuntimeConfig) WithEngine(engine wasm.Engine) *RuntimeConfig {
	ret := c.clone()
	ret.engine = engine
	return ret
}

// ModuleConfig customizes a single InstantiateModuleWithConfig call: the
// registered module name and the imports it links against. Mirrors the
// teacher's ModuleConfig, trimmed to what §4.4's instantiation protocol
// needs (the teacher's filesystem/stdio/environ knobs are out of scope:
// there is no WASI layer here).
type ModuleConfig struct {
	name    string
	imports *wasm.Imports
}

// NewModuleConfig returns an empty ModuleConfig: no name override, no
// imports.
func NewModuleConfig() *ModuleConfig {
	return &ModuleConfig{imports: wasm.NewImports()}
}

func (c *ModuleConfig) clone() *ModuleConfig {
	cp := *c
	return &cp
}

// WithName overrides the module's registered name (the name other modules
// import it under, and exported-function lookups are scoped by).
func (c *ModuleConfig) WithName(name string) *ModuleConfig {
	ret := c.clone()
	ret.name = name
	return ret
}

// WithImports replaces the import set this instantiation links against.
func (c *ModuleConfig) WithImports(imports *wasm.Imports) *ModuleConfig {
	ret := c.clone()
	ret.imports = imports
	return ret
}
