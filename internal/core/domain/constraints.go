package domain

import (
	"fmt"
	"math"
	"sync"
)

// Constraint is a geometric restriction applied to atoms during relaxation.
// Each variant serializes to a tagged document via Doc and is rebuilt by
// the factory registered for its kind.
type Constraint interface {
	// Kind returns the tag identifying the constraint variant.
	Kind() string

	// Doc returns the serialized tagged form of the constraint.
	Doc() ConstraintDoc

	// AdjustForces applies the constraint to a force set in place.
	AdjustForces(positions [][3]float64, forces [][3]float64)
}

// ConstraintDoc is the serialized form of a constraint: a kind tag plus the
// variant's keyword parameters.
type ConstraintDoc struct {
	Name   string         `json:"name"`
	Kwargs map[string]any `json:"kwargs"`
}

// ConstraintFactory rebuilds a constraint variant from its parameters.
type ConstraintFactory func(kwargs map[string]any) (Constraint, error)

var (
	constraintMu        sync.RWMutex
	constraintFactories = make(map[string]ConstraintFactory)
)

// RegisterConstraint registers a factory for a constraint kind. Later
// registrations replace earlier ones.
func RegisterConstraint(kind string, factory ConstraintFactory) {
	constraintMu.Lock()
	defer constraintMu.Unlock()
	constraintFactories[kind] = factory
}

// ConstraintFromDoc rebuilds a constraint from its serialized form.
// An unregistered kind fails with ErrUnsupportedConstraintKind so that a
// forward-incompatible document is never silently misinterpreted.
func ConstraintFromDoc(doc ConstraintDoc) (Constraint, error) {
	constraintMu.RLock()
	factory, ok := constraintFactories[doc.Name]
	constraintMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedConstraintKind, doc.Name)
	}
	return factory(doc.Kwargs)
}

func init() {
	RegisterConstraint("FixAtoms", func(kwargs map[string]any) (Constraint, error) {
		indices, err := intSliceParam(kwargs, "indices")
		if err != nil {
			return nil, err
		}
		return &FixAtoms{Indices: indices}, nil
	})
	RegisterConstraint("Hookean", func(kwargs map[string]any) (Constraint, error) {
		a1, err := intParam(kwargs, "a1")
		if err != nil {
			return nil, err
		}
		a2, err := intParam(kwargs, "a2")
		if err != nil {
			return nil, err
		}
		rt, err := floatParam(kwargs, "rt")
		if err != nil {
			return nil, err
		}
		k, err := floatParam(kwargs, "k")
		if err != nil {
			return nil, err
		}
		return &Hookean{A1: a1, A2: a2, Rt: rt, K: k}, nil
	})
}

// FixAtoms pins the listed atoms: their forces are projected to zero so the
// relaxation never moves them.
type FixAtoms struct {
	Indices []int
}

func (f *FixAtoms) Kind() string { return "FixAtoms" }

func (f *FixAtoms) Doc() ConstraintDoc {
	indices := make([]int, len(f.Indices))
	copy(indices, f.Indices)
	return ConstraintDoc{
		Name:   "FixAtoms",
		Kwargs: map[string]any{"indices": indices},
	}
}

func (f *FixAtoms) AdjustForces(_ [][3]float64, forces [][3]float64) {
	for _, i := range f.Indices {
		if i >= 0 && i < len(forces) {
			forces[i] = [3]float64{}
		}
	}
}

// Hookean tethers two atoms with a one-sided spring: once their distance
// exceeds the threshold Rt, a restoring force of stiffness K pulls them
// back. Used to keep small adsorbates from dissociating during relaxation.
type Hookean struct {
	A1 int
	A2 int
	Rt float64
	K  float64
}

func (h *Hookean) Kind() string { return "Hookean" }

func (h *Hookean) Doc() ConstraintDoc {
	return ConstraintDoc{
		Name:   "Hookean",
		Kwargs: map[string]any{"a1": h.A1, "a2": h.A2, "rt": h.Rt, "k": h.K},
	}
}

func (h *Hookean) AdjustForces(positions [][3]float64, forces [][3]float64) {
	if h.A1 < 0 || h.A2 < 0 || h.A1 >= len(positions) || h.A2 >= len(positions) {
		return
	}
	var displace [3]float64
	var sq float64
	for j := 0; j < 3; j++ {
		displace[j] = positions[h.A2][j] - positions[h.A1][j]
		sq += displace[j] * displace[j]
	}
	bondLength := math.Sqrt(sq)
	if bondLength <= h.Rt || bondLength == 0 {
		return
	}
	magnitude := h.K * (bondLength - h.Rt)
	for j := 0; j < 3; j++ {
		component := displace[j] / bondLength * magnitude
		forces[h.A1][j] += component
		forces[h.A2][j] -= component
	}
}

func intParam(kwargs map[string]any, key string) (int, error) {
	v, ok := kwargs[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidInput, key)
	}
	return asInt(v, key)
}

func floatParam(kwargs map[string]any, key string) (float64, error) {
	v, ok := kwargs[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidInput, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, key)
	}
}

func intSliceParam(kwargs map[string]any, key string) ([]int, error) {
	v, ok := kwargs[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrInvalidInput, key)
	}
	switch vs := v.(type) {
	case []int:
		out := make([]int, len(vs))
		copy(out, vs)
		return out, nil
	case []any:
		out := make([]int, len(vs))
		for i, item := range vs {
			n, err := asInt(item, key)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q is not an index list", ErrInvalidInput, key)
	}
}

// asInt accepts the numeric types a JSON round trip or direct construction
// can produce. Fractional values are rejected rather than truncated.
func asInt(v any, key string) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %q has fractional value %v", ErrInvalidInput, key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidInput, key)
	}
}
