package codec

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
)

// payloadDoc is the bare-geometry form used for embedded structure
// templates: no calculator, no results, no derived metadata.
type payloadDoc struct {
	Atoms       []domain.AtomEntry     `json:"atoms"`
	Cell        [3][3]float64          `json:"cell"`
	PBC         [3]bool                `json:"pbc"`
	Info        map[string]any         `json:"info,omitempty"`
	Constraints []domain.ConstraintDoc `json:"constraints,omitempty"`
}

// MarshalPayload serializes a structure into the opaque hex payload used to
// embed templates (adsorbates, submitted geometries) inside parameter maps
// and tracker rows. Only geometry, constraints, and info are carried; atom
// magnetic moments come from the static labels.
func MarshalPayload(s *domain.Structure) (string, error) {
	moments := make([]float64, len(s.Atoms))
	for i, a := range s.Atoms {
		moments[i] = a.Magmom
	}

	p := payloadDoc{
		Atoms: atomEntries(s, moments),
		Cell:  [3][3]float64(s.Cell),
		PBC:   s.PBC,
		Info:  s.Info,
	}
	for _, con := range s.Constraints {
		p.Constraints = append(p.Constraints, con.Doc())
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// UnmarshalPayload rebuilds a structure from an opaque hex payload.
func UnmarshalPayload(payload string) (*domain.Structure, error) {
	raw, err := hex.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not hex", domain.ErrInvalidInput)
	}

	var p payloadDoc
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	s := &domain.Structure{
		Cell: domain.Cell(p.Cell),
		PBC:  p.PBC,
		Info: p.Info,
	}
	s.Atoms = make([]domain.Atom, len(p.Atoms))
	for i, entry := range p.Atoms {
		s.Atoms[i] = domain.Atom{
			Symbol:   entry.Symbol,
			Position: entry.Position,
			Tag:      entry.Tag,
			Charge:   entry.Charge,
			Momentum: entry.Momentum,
			Magmom:   entry.Magmom,
		}
	}
	for _, cd := range p.Constraints {
		constraint, err := domain.ConstraintFromDoc(cd)
		if err != nil {
			return nil, fmt.Errorf("constraint: %w", err)
		}
		s.Constraints = append(s.Constraints, constraint)
	}
	return s, nil
}
