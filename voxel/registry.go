package voxel

import (
	"fmt"
	"log/slog"
	"sync"
)

// Properties describes the static, render/collision-relevant attributes of
// one block id. The core only ever consults Solid, Translucent and Opaque;
// Hardness and Name are carried for external collaborators (tooling,
// logging) and are otherwise opaque to the core.
type Properties struct {
	Name        string
	Solid       bool
	Translucent bool
	Opaque      bool
	Hardness    float64
}

// Registry assigns sequential 12-bit ids to registered block types and
// answers property lookups used by collision and rendering-adjacency
// decisions. A Registry is safe for concurrent use; registration is
// expected to happen once at startup before any world begins ticking.
type Registry struct {
	mu    sync.RWMutex
	props []Properties
}

// NewRegistry returns a Registry with id 0 pre-bound to air.
func NewRegistry() *Registry {
	r := &Registry{props: make([]Properties, 0, 16)}
	r.props = append(r.props, Properties{Name: "air"})
	return r
}

// errRegistryFull is the value Register panics with once 4096 ids (the
// full 12-bit space) have been assigned.
var errRegistryFull = fmt.Errorf("voxel: block registry exhausted 12-bit id space")

// Register assigns the next sequential id to props and returns it. Register
// panics if called after the id space (4096 ids) has been exhausted, since
// that indicates a build-time registration bug rather than a runtime
// condition a caller can recover from.
func (r *Registry) Register(props Properties) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.props) >= 1<<idBits {
		panic(errRegistryFull)
	}
	id := uint16(len(r.props))
	r.props = append(r.props, props)
	return id
}

// Lookup returns the properties registered for id. The bool is false for an
// id that was never registered, in which case the zero Properties
// (non-solid, non-opaque, air-like defaults) are returned.
func (r *Registry) Lookup(id uint16) (Properties, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.props) {
		return Properties{}, false
	}
	return r.props[id], true
}

// Opaque reports whether id is registered and opaque. An unregistered id is
// treated as non-opaque so that unexpected ids never incorrectly block
// light or rendering.
func (r *Registry) Opaque(id uint16) bool {
	p, ok := r.Lookup(id)
	return ok && p.Opaque
}

// Translucent reports whether id is registered and translucent.
func (r *Registry) Translucent(id uint16) bool {
	p, ok := r.Lookup(id)
	return ok && p.Translucent
}

// Solid reports whether id is registered and solid. Air and unregistered
// ids are never solid.
func (r *Registry) Solid(id uint16) bool {
	if id == Air {
		return false
	}
	p, ok := r.Lookup(id)
	return ok && p.Solid
}

// LogRegistration emits one debug line giving the number of ids currently
// registered.
// Intended to be called once at startup after all plug-ins have had a
// chance to register their block types, mirroring the teacher's
// finaliseBlockRegistry step.
func (r *Registry) LogRegistration(log *slog.Logger) {
	if log == nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	log.Debug("block registry finalised", "count", len(r.props))
}
