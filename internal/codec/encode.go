package codec

import (
	"fmt"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
)

// Encode serializes a structure into its normalized document form.
//
// The user is stamped into the document's provenance as given; resolving it
// (process user, service account) is the caller's concern. Extras are merged
// last and may override any default field. Encoding is read-only: calculator
// quantities are looked up only when the calculator reports them cached, so
// no computation is ever triggered here.
func (c *Codec) Encode(s *domain.Structure, user string, extras map[string]any) (*domain.Document, error) {
	atoms, err := c.encodeAtoms(s)
	if err != nil {
		return nil, err
	}

	calc, err := encodeCalc(s.Calc)
	if err != nil {
		return nil, err
	}

	results, err := encodeResults(s.Calc)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	doc := &domain.Document{
		Atoms:   atoms,
		Calc:    calc,
		Results: results,
		User:    user,
		Ctime:   now,
		Mtime:   now,
	}
	if len(extras) > 0 {
		doc.Extra = make(map[string]any, len(extras))
		for k, v := range extras {
			doc.Extra[k] = v
		}
	}
	return doc, nil
}

// encodeAtoms builds the atoms sub-document: the faithful per-atom records
// plus the derived metadata recomputed from scratch.
func (c *Codec) encodeAtoms(s *domain.Structure) (domain.AtomsDoc, error) {
	moments, err := s.MagneticMoments()
	if err != nil {
		return domain.AtomsDoc{}, fmt.Errorf("magnetic moments: %w", err)
	}

	entries := atomEntries(s, moments)

	constraints := make([]domain.ConstraintDoc, len(s.Constraints))
	for i, con := range s.Constraints {
		constraints[i] = con.Doc()
	}

	info := make(map[string]any, len(s.Info))
	for k, v := range s.Info {
		info[k] = v
	}

	meta, err := c.deriveMetadata(s)
	if err != nil {
		return domain.AtomsDoc{}, err
	}

	return domain.AtomsDoc{
		Atoms:       entries,
		Cell:        [3][3]float64(s.Cell),
		PBC:         s.PBC,
		Info:        info,
		Constraints: constraints,
		DocMetadata: meta,
	}, nil
}

// deriveMetadata computes the denormalized search fields.
func (c *Codec) deriveMetadata(s *domain.Structure) (domain.DocMetadata, error) {
	mass, err := s.TotalMass()
	if err != nil {
		return domain.DocMetadata{}, fmt.Errorf("mass: %w", err)
	}

	scaled, err := s.ScaledPositions()
	if err != nil {
		return domain.DocMetadata{}, fmt.Errorf("scaled positions: %w", err)
	}
	numbers, err := s.AtomicNumbers()
	if err != nil {
		return domain.DocMetadata{}, fmt.Errorf("atomic numbers: %w", err)
	}
	label, err := c.spacegroups.Detect(s.Cell.Transposed(), scaled, numbers)
	if err != nil {
		return domain.DocMetadata{}, fmt.Errorf("spacegroup: %w", err)
	}

	symbols := s.DistinctSymbols()
	if symbols == nil {
		symbols = []string{}
	}

	meta := domain.DocMetadata{
		NAtoms:          s.NumAtoms(),
		Mass:            mass,
		Spacegroup:      label,
		ChemicalSymbols: symbols,
		SymbolCounts:    s.SymbolCounts(),
	}
	if volume, ok := s.Cell.Volume(); ok {
		meta.Volume = &volume
	}
	return meta, nil
}

// atomEntries builds the per-atom records with the supplied magnetic
// moments, preserving input order; the stored index is the slice position.
func atomEntries(s *domain.Structure, moments []float64) []domain.AtomEntry {
	entries := make([]domain.AtomEntry, len(s.Atoms))
	for i, a := range s.Atoms {
		entries[i] = domain.AtomEntry{
			Symbol:   a.Symbol,
			Position: a.Position,
			Tag:      a.Tag,
			Index:    i,
			Charge:   a.Charge,
			Momentum: a.Momentum,
			Magmom:   moments[i],
		}
	}
	return entries
}

// encodeCalc builds the calculator sub-document. Settings failures degrade
// to an empty settings map; identity keys are set last so they win on
// collision with settings keys.
func encodeCalc(calc domain.Calculator) (domain.CalcDoc, error) {
	if calc == nil {
		return domain.CalcDoc{}, nil
	}

	settings, err := calc.Settings()
	if err != nil || settings == nil {
		settings = map[string]any{}
	}

	out := make(map[string]any, len(settings)+2)
	for k, v := range settings {
		out[k] = v
	}

	kpts, present, err := coerceKpts(settings)
	if err != nil {
		return domain.CalcDoc{}, err
	}
	if present {
		out["kpts"] = kpts
	}

	out["module"] = calc.Module()
	out["class"] = calc.Class()
	return domain.CalcDoc{Calculator: out}, nil
}

// coerceKpts sanitizes the k-point mesh to a plain int list. Absent k-points
// are fine; a malformed entry is a document-corruption error.
func coerceKpts(settings map[string]any) ([]int, bool, error) {
	raw, ok := settings["kpts"]
	if !ok || raw == nil {
		return nil, false, nil
	}

	switch v := raw.(type) {
	case []int:
		out := make([]int, len(v))
		copy(out, v)
		return out, true, nil
	case [3]int:
		return []int{v[0], v[1], v[2]}, true, nil
	case []float64:
		out := make([]int, len(v))
		for i, f := range v {
			out[i] = int(f)
		}
		return out, true, nil
	case []any:
		out := make([]int, len(v))
		for i, item := range v {
			switch n := item.(type) {
			case int:
				out[i] = n
			case int64:
				out[i] = int(n)
			case float64:
				out[i] = int(n)
			default:
				return nil, false, fmt.Errorf("%w: k-point %v is not numeric", domain.ErrInvalidInput, item)
			}
		}
		return out, true, nil
	default:
		return nil, false, fmt.Errorf("%w: k-points have unexpected type %T", domain.ErrInvalidInput, raw)
	}
}

// encodeResults builds the results sub-document from cached calculator
// quantities only. Energy and raw forces are recorded without constraint
// projection; fmax is the maximum absolute component of the constrained
// forces. The asymmetry is deliberate and load-bearing for consumers.
func encodeResults(calc domain.Calculator) (domain.ResultsDoc, error) {
	var res domain.ResultsDoc
	if calc == nil {
		return res, nil
	}

	if calc.Cached(domain.QuantityEnergy) {
		energy, err := calc.Energy(false)
		if err != nil {
			return domain.ResultsDoc{}, fmt.Errorf("energy: %w", err)
		}
		res.Energy = &energy
	}

	if calc.Cached(domain.QuantityForces) {
		raw, err := calc.Forces(false)
		if err != nil {
			return domain.ResultsDoc{}, fmt.Errorf("forces: %w", err)
		}
		res.Forces = raw

		constrained, err := calc.Forces(true)
		if err != nil {
			return domain.ResultsDoc{}, fmt.Errorf("constrained forces: %w", err)
		}
		fmax := domain.Fmax(constrained)
		res.Fmax = &fmax
	}

	return res, nil
}
