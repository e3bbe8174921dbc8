package domain

import (
	"errors"
	"math"
	"testing"
)

func TestFixAtoms_RoundTrip(t *testing.T) {
	c := &FixAtoms{Indices: []int{0, 2}}

	doc := c.Doc()
	if doc.Name != "FixAtoms" {
		t.Errorf("expected kind FixAtoms, got %s", doc.Name)
	}

	rebuilt, err := ConstraintFromDoc(doc)
	if err != nil {
		t.Fatalf("ConstraintFromDoc failed: %v", err)
	}

	fixed, ok := rebuilt.(*FixAtoms)
	if !ok {
		t.Fatalf("expected *FixAtoms, got %T", rebuilt)
	}
	if len(fixed.Indices) != 2 || fixed.Indices[0] != 0 || fixed.Indices[1] != 2 {
		t.Errorf("expected indices [0 2], got %v", fixed.Indices)
	}
}

func TestFixAtoms_FromJSONNumbers(t *testing.T) {
	// A JSON round trip turns index lists into []any of float64
	doc := ConstraintDoc{
		Name:   "FixAtoms",
		Kwargs: map[string]any{"indices": []any{float64(1), float64(3)}},
	}

	rebuilt, err := ConstraintFromDoc(doc)
	if err != nil {
		t.Fatalf("ConstraintFromDoc failed: %v", err)
	}
	fixed := rebuilt.(*FixAtoms)
	if fixed.Indices[0] != 1 || fixed.Indices[1] != 3 {
		t.Errorf("expected indices [1 3], got %v", fixed.Indices)
	}
}

func TestFixAtoms_RejectsFractionalIndex(t *testing.T) {
	doc := ConstraintDoc{
		Name:   "FixAtoms",
		Kwargs: map[string]any{"indices": []any{1.5}},
	}
	if _, err := ConstraintFromDoc(doc); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFixAtoms_AdjustForces(t *testing.T) {
	c := &FixAtoms{Indices: []int{1, 99}} // out-of-range index is ignored
	forces := [][3]float64{{1, 1, 1}, {2, 2, 2}}

	c.AdjustForces(nil, forces)

	if forces[0] != [3]float64{1, 1, 1} {
		t.Errorf("expected free atom untouched, got %v", forces[0])
	}
	if forces[1] != [3]float64{} {
		t.Errorf("expected fixed atom zeroed, got %v", forces[1])
	}
}

func TestHookean_RoundTrip(t *testing.T) {
	c := &Hookean{A1: 0, A2: 1, Rt: 1.4, K: 5}

	rebuilt, err := ConstraintFromDoc(c.Doc())
	if err != nil {
		t.Fatalf("ConstraintFromDoc failed: %v", err)
	}

	spring, ok := rebuilt.(*Hookean)
	if !ok {
		t.Fatalf("expected *Hookean, got %T", rebuilt)
	}
	if spring.A1 != 0 || spring.A2 != 1 || spring.Rt != 1.4 || spring.K != 5 {
		t.Errorf("unexpected parameters: %+v", spring)
	}
}

func TestHookean_AdjustForces(t *testing.T) {
	c := &Hookean{A1: 0, A2: 1, Rt: 1.0, K: 2.0}
	positions := [][3]float64{{0, 0, 0}, {1.5, 0, 0}} // stretched 0.5 past threshold
	forces := [][3]float64{{0, 0, 0}, {0, 0, 0}}

	c.AdjustForces(positions, forces)

	// Restoring magnitude K*(d-Rt) = 1.0, pulling the atoms together
	if math.Abs(forces[0][0]-1.0) > 1e-12 {
		t.Errorf("expected +1.0 on first atom, got %v", forces[0][0])
	}
	if math.Abs(forces[1][0]+1.0) > 1e-12 {
		t.Errorf("expected -1.0 on second atom, got %v", forces[1][0])
	}
}

func TestHookean_InactiveBelowThreshold(t *testing.T) {
	c := &Hookean{A1: 0, A2: 1, Rt: 2.0, K: 2.0}
	positions := [][3]float64{{0, 0, 0}, {1.5, 0, 0}}
	forces := [][3]float64{{0, 0, 0}, {0, 0, 0}}

	c.AdjustForces(positions, forces)

	if forces[0] != [3]float64{} || forces[1] != [3]float64{} {
		t.Errorf("expected no force below threshold, got %v", forces)
	}
}

func TestConstraintFromDoc_UnknownKind(t *testing.T) {
	_, err := ConstraintFromDoc(ConstraintDoc{Name: "FixBondLengths"})
	if !errors.Is(err, ErrUnsupportedConstraintKind) {
		t.Errorf("expected ErrUnsupportedConstraintKind, got %v", err)
	}
}

func TestConstraintFromDoc_MissingParams(t *testing.T) {
	cases := []ConstraintDoc{
		{Name: "FixAtoms", Kwargs: map[string]any{}},
		{Name: "Hookean", Kwargs: map[string]any{"a1": 0, "a2": 1}},
	}
	for _, doc := range cases {
		if _, err := ConstraintFromDoc(doc); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", doc.Name, err)
		}
	}
}

func TestRegisterConstraint_CustomKind(t *testing.T) {
	RegisterConstraint("test-noop", func(kwargs map[string]any) (Constraint, error) {
		return &FixAtoms{}, nil
	})

	if _, err := ConstraintFromDoc(ConstraintDoc{Name: "test-noop"}); err != nil {
		t.Errorf("expected registered kind to build: %v", err)
	}
}
