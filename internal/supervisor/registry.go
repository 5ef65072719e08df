// Package supervisor owns pipeline composition, startup, and orderly
// teardown: it selects exactly one PipelineSpec for the chosen
// subcommand, builds the fixed set of workers that subcommand calls
// for, starts them, waits for every non-Monitor worker to return, and
// destroys the Engine Gateway last (invariant I5).
package supervisor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/senzing-garage/redoer/internal/config"
)

// Variant names the shape of a pipeline topology, independent of which
// bus (if any) it talks to.
type Variant string

const (
	VariantRedo             Variant = "redo"
	VariantRedoWithInfo     Variant = "redo-withinfo"
	VariantReadFrom         Variant = "read-from"
	VariantReadFromWithInfo Variant = "read-from-withinfo"
	VariantWriteTo          Variant = "write-to"
)

// PipelineSpec is the static, immutable description a subcommand
// resolves to: which topology shape, and for bus-backed topologies,
// which bus.
type PipelineSpec struct {
	Name    string
	Variant Variant
	Bus     config.Bus // zero value for the bus-less `redo` variant
}

// Registry is a name -> PipelineSpec table, validated at registration
// time, with register/get/supports/list operations.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]PipelineSpec
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]PipelineSpec)}
}

// Register adds spec under name, rejecting duplicates and specs whose
// Variant requires a Bus but doesn't have one.
func (r *Registry) Register(name string, spec PipelineSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[name]; exists {
		return fmt.Errorf("supervisor: subcommand %q already registered", name)
	}
	if spec.Variant != VariantRedo && spec.Bus == "" {
		return fmt.Errorf("supervisor: subcommand %q variant %q requires a bus", name, spec.Variant)
	}
	r.specs[name] = spec
	return nil
}

// Unregister removes name, if present.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.specs, name)
}

// Get returns the PipelineSpec registered under name.
func (r *Registry) Get(name string) (PipelineSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[name]
	return spec, ok
}

// Supports reports whether name is registered.
func (r *Registry) Supports(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns every registered subcommand name, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buses enumerates the bus tokens used in subcommand names.
var buses = []config.Bus{config.BusRabbitMQ, config.BusKafka, config.BusSQS, config.BusAzureQueue}

// busToken is the `<bus>` substring a subcommand name uses; it is the
// identity mapping of the Bus constant today but kept as a named
// function so a future naming divergence has one place to change.
func busToken(b config.Bus) string {
	return string(b)
}

// DefaultRegistry builds the full composition table: `redo`, the four
// `redo-withinfo-<bus>` commands, and per bus `read-from-<bus>`,
// `read-from-<bus>-withinfo`, `write-to-<bus>`.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	must := func(name string, spec PipelineSpec) {
		if err := r.Register(name, spec); err != nil {
			panic(err)
		}
	}

	must("redo", PipelineSpec{Name: "redo", Variant: VariantRedo})

	for _, bus := range buses {
		tok := busToken(bus)
		must(fmt.Sprintf("redo-withinfo-%s", tok), PipelineSpec{Name: fmt.Sprintf("redo-withinfo-%s", tok), Variant: VariantRedoWithInfo, Bus: bus})
		must(fmt.Sprintf("read-from-%s", tok), PipelineSpec{Name: fmt.Sprintf("read-from-%s", tok), Variant: VariantReadFrom, Bus: bus})
		must(fmt.Sprintf("read-from-%s-withinfo", tok), PipelineSpec{Name: fmt.Sprintf("read-from-%s-withinfo", tok), Variant: VariantReadFromWithInfo, Bus: bus})
		must(fmt.Sprintf("write-to-%s", tok), PipelineSpec{Name: fmt.Sprintf("write-to-%s", tok), Variant: VariantWriteTo, Bus: bus})
	}

	return r
}
