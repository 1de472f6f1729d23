package wazero

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/wazerolite/wazerolite/internal/wasm"
)

// Runtime is the embedder's entry point: one Store plus the configuration
// it was created with. Unlike the teacher's Runtime (which also owns a
// binary decoder and a JIT/interpreter engine), decoding a Wasm binary into
// a *wasm.Module is out of scope for this core (spec.md §1) — callers
// already hold a decoded CompiledModule by the time they reach here.
type Runtime struct {
	store *wasm.Store
	log   *logrus.Entry
}

// NewRuntime returns a Runtime with the default RuntimeConfig.
func NewRuntime() *Runtime {
	return NewRuntimeWithConfig(NewRuntimeConfig())
}

// NewRuntimeWithConfig returns a Runtime configured per config.
func NewRuntimeWithConfig(config *RuntimeConfig) *Runtime {
	if config == nil {
		config = NewRuntimeConfig()
	}
	return &Runtime{
		store: wasm.NewStore(config.enabledFeatures, config.engine),
		log:   logrus.WithField("component", "wazero.Runtime"),
	}
}

// CompiledModule is a decoded module ready for instantiation. Compilation
// here is a thin wrapper, not the teacher's validate-and-lower step: the
// binary decoder that would produce a *wasm.Module is itself out of scope,
// so CompileModule's job is only to associate a display name with the
// already-decoded structure.
type CompiledModule struct {
	name   string
	module *wasm.Module
}

// CompileModule wraps an already-decoded module, per spec.md's framing
// that modules "arrive as already-decoded in-memory structures."
func (r *Runtime) CompileModule(module *wasm.Module) (*CompiledModule, error) {
	if module == nil {
		return nil, fmt.Errorf("wazero: nil module")
	}
	return &CompiledModule{name: module.NameSection, module: module}, nil
}

// InstantiateModule instantiates compiled with its declared name and no
// imports, equivalent to InstantiateModuleWithConfig(compiled,
// NewModuleConfig().WithName(name)) where name is compiled's NameSection.
func (r *Runtime) InstantiateModule(compiled *CompiledModule) (*Module, error) {
	return r.InstantiateModuleWithConfig(compiled, NewModuleConfig().WithName(compiled.name))
}

// InstantiateModuleWithConfig runs the full instantiation protocol
// (spec.md §4.4) against r's Store, linking config's imports and
// registering the result under config's name.
//
// The returned error, when non-nil, may still come bundled with a non-nil
// *Module: per spec.md's "register even on trap" rule, a module whose
// element or data segments trapped is registered and its exports remain
// resolvable, even though the returned error reports the trap.
func (r *Runtime) InstantiateModuleWithConfig(compiled *CompiledModule, config *ModuleConfig) (*Module, error) {
	if config == nil {
		config = NewModuleConfig()
	}
	mi, err := wasm.Instantiate(r.store, config.name, compiled.module, config.imports)
	if mi == nil {
		return nil, err
	}
	m := &Module{store: r.store, mi: mi}
	if err != nil {
		r.log.WithError(err).Debug("instantiation reported a trap")
		return m, err
	}
	return m, nil
}

// Store exposes the underlying wasm.Store, for callers that need to build
// a wasm.Imports set referencing another Runtime's store-registered
// objects directly (host modules, multi-module linking).
func (r *Runtime) Store() *wasm.Store { return r.store }
