package codec

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
)

func TestPayloadRoundTrip(t *testing.T) {
	s := &domain.Structure{
		Atoms: []domain.Atom{
			{Symbol: "C", Position: [3]float64{0, 0, 0}, Magmom: 0.5},
			{Symbol: "O", Position: [3]float64{0, 0, 1.16}, Tag: 2},
		},
		Cell: domain.Cell{{10, 0, 0}, {0, 10, 0}, {0, 0, 10}},
		PBC:  [3]bool{true, true, false},
		Info: map[string]any{"adsorbate": "CO"},
		Constraints: []domain.Constraint{
			&domain.Hookean{A1: 0, A2: 1, Rt: 1.4, K: 5},
		},
	}

	payload, err := MarshalPayload(s)
	if err != nil {
		t.Fatalf("MarshalPayload() error = %v", err)
	}

	got, err := UnmarshalPayload(payload)
	if err != nil {
		t.Fatalf("UnmarshalPayload() error = %v", err)
	}

	if got.NumAtoms() != 2 {
		t.Fatalf("NumAtoms = %d, want 2", got.NumAtoms())
	}
	if got.Atoms[0].Symbol != "C" || got.Atoms[1].Symbol != "O" {
		t.Errorf("symbols = %v, want [C O]", got.Symbols())
	}
	if got.Atoms[0].Magmom != 0.5 {
		t.Errorf("Magmom = %v, want 0.5", got.Atoms[0].Magmom)
	}
	if got.Atoms[1].Tag != 2 {
		t.Errorf("Tag = %d, want 2", got.Atoms[1].Tag)
	}
	if got.Cell != s.Cell {
		t.Errorf("Cell = %v, want %v", got.Cell, s.Cell)
	}
	if got.PBC != s.PBC {
		t.Errorf("PBC = %v, want %v", got.PBC, s.PBC)
	}
	if got.Info["adsorbate"] != "CO" {
		t.Errorf("Info = %v, want adsorbate preserved", got.Info)
	}

	if len(got.Constraints) != 1 {
		t.Fatalf("len(Constraints) = %d, want 1", len(got.Constraints))
	}
	spring, ok := got.Constraints[0].(*domain.Hookean)
	if !ok {
		t.Fatalf("constraint type = %T, want *Hookean", got.Constraints[0])
	}
	if spring.A1 != 0 || spring.A2 != 1 || spring.Rt != 1.4 || spring.K != 5 {
		t.Errorf("Hookean = %+v, want a1=0 a2=1 rt=1.4 k=5", spring)
	}
}

func TestMarshalPayload_DropsCalculator(t *testing.T) {
	s := &domain.Structure{
		Atoms: []domain.Atom{{Symbol: "H"}},
	}
	energy := -1.0
	s.Calc = domain.NewSinglePoint(s, domain.SinglePointResults{Energy: &energy})

	payload, err := MarshalPayload(s)
	if err != nil {
		t.Fatalf("MarshalPayload() error = %v", err)
	}
	got, err := UnmarshalPayload(payload)
	if err != nil {
		t.Fatalf("UnmarshalPayload() error = %v", err)
	}
	if got.Calc != nil {
		t.Error("payload form carried a calculator, want bare geometry")
	}
}

func TestUnmarshalPayload_NotHex(t *testing.T) {
	_, err := UnmarshalPayload("zzzz is not hex")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("UnmarshalPayload() error = %v, want ErrInvalidInput", err)
	}
}

func TestUnmarshalPayload_BadJSON(t *testing.T) {
	payload := hex.EncodeToString([]byte("{not json"))
	_, err := UnmarshalPayload(payload)
	if err == nil {
		t.Fatal("UnmarshalPayload() expected error for malformed JSON")
	}
}

func TestUnmarshalPayload_UnknownConstraint(t *testing.T) {
	payload := hex.EncodeToString([]byte(
		`{"atoms":[],"cell":[[0,0,0],[0,0,0],[0,0,0]],"pbc":[false,false,false],` +
			`"constraints":[{"name":"FixedPlane","kwargs":{}}]}`))
	_, err := UnmarshalPayload(payload)
	if !errors.Is(err, domain.ErrUnsupportedConstraintKind) {
		t.Errorf("UnmarshalPayload() error = %v, want ErrUnsupportedConstraintKind", err)
	}
}
