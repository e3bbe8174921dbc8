package codec

import (
	"fmt"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
)

// Decode rebuilds a structure from its document form.
//
// Atom order in the document defines the indices. Derived metadata fields
// are write-only search data and are ignored here. When the results
// sub-document carries any computed quantity, a read-only single-point
// calculator is attached; a structure decoded from an empty results
// sub-document has no calculator at all.
func (c *Codec) Decode(doc *domain.Document) (*domain.Structure, error) {
	s := &domain.Structure{
		Cell: domain.Cell(doc.Atoms.Cell),
		PBC:  doc.Atoms.PBC,
	}

	s.Atoms = make([]domain.Atom, len(doc.Atoms.Atoms))
	for i, entry := range doc.Atoms.Atoms {
		s.Atoms[i] = domain.Atom{
			Symbol:   entry.Symbol,
			Position: entry.Position,
			Tag:      entry.Tag,
			Charge:   entry.Charge,
			Momentum: entry.Momentum,
			Magmom:   entry.Magmom,
		}
	}

	if doc.Atoms.Info != nil {
		s.Info = make(map[string]any, len(doc.Atoms.Info))
		for k, v := range doc.Atoms.Info {
			s.Info[k] = v
		}
	}

	for _, cd := range doc.Atoms.Constraints {
		constraint, err := domain.ConstraintFromDoc(cd)
		if err != nil {
			return nil, fmt.Errorf("constraint: %w", err)
		}
		s.Constraints = append(s.Constraints, constraint)
	}

	if results := doc.Results; results.Energy != nil || results.Forces != nil || results.Stress != nil {
		frozen := domain.SinglePointResults{
			Energy: results.Energy,
			Stress: results.Stress,
		}
		if results.Forces != nil {
			frozen.Forces = make([][3]float64, len(results.Forces))
			copy(frozen.Forces, results.Forces)
		}
		s.Calc = domain.NewSinglePoint(s, frozen)
	}

	return s, nil
}
