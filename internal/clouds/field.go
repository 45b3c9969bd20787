package clouds

import (
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"snowcity/internal/scenery"
)

// Field owns one cloud instance buffer. Update rebuilds the whole buffer
// when the set or seed changes; storage is allocated once at MaxInstances
// and reused on every rebuild.
//
// Every rebuild draws from a fresh stream for its seed, so the buffer is a
// function of (set, seed) alone and never of earlier updates.
type Field struct {
	mu        sync.RWMutex
	set       Set
	seed      uint64
	valid     bool
	instances []Transform
	matrices  []mgl32.Mat4
	version   uint64
}

// NewField returns an empty field.
func NewField() *Field {
	return &Field{
		instances: make([]Transform, 0, MaxInstances),
		matrices:  make([]mgl32.Mat4, 0, MaxInstances),
	}
}

// Update recomputes the buffer if s or seed differs from the last rebuild.
// It reports whether a rebuild happened.
func (f *Field) Update(s Set, seed uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.valid && f.set == s && f.seed == seed {
		return false
	}
	f.instances = Populate(s, scenery.Seeded(seed), f.instances[:0])
	f.matrices = f.matrices[:len(f.instances)]
	for i, t := range f.instances {
		f.matrices[i] = t.Matrix()
	}
	f.set = s
	f.seed = seed
	f.valid = true
	f.version++

	if s.Count != len(f.instances) {
		slog.Debug("cloud count clamped", "requested", s.Count, "count", len(f.instances))
	}
	return true
}

// Instances returns a copy of the current transforms, safe to keep
// across later updates.
func (f *Field) Instances() []Transform {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Transform(nil), f.instances...)
}

// Flat returns a copy of the matrices as one float32 slice, 16 floats per instance,
// column-major: the layout an instanced draw call uploads.
func (f *Field) Flat() []float32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]float32, 0, len(f.matrices)*16)
	for _, m := range f.matrices {
		out = append(out, m[:]...)
	}
	return out
}

// Version increments on every rebuild.
func (f *Field) Version() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

// Capacity returns the allocated instance slots.
func (f *Field) Capacity() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return cap(f.instances)
}
