package domain

import (
	"fmt"
	"math"
	"sort"
)

// Atom is one site in a structure. Its index is implicit: the position of
// the atom in the owning structure's ordered slice.
type Atom struct {
	Symbol   string
	Position [3]float64
	Tag      int
	Charge   float64
	Momentum [3]float64

	// Magmom is the static per-atom magnetic moment label, used when no
	// computed per-atom moments are attached.
	Magmom float64
}

// Structure is an ordered collection of atoms with a periodic cell,
// boundary flags, auxiliary info, and geometric constraints. A calculator
// may be attached after an external computation.
type Structure struct {
	Atoms       []Atom
	Cell        Cell
	PBC         [3]bool
	Info        map[string]any
	Constraints []Constraint
	Calc        Calculator
}

// NumAtoms returns the number of atoms.
func (s *Structure) NumAtoms() int {
	return len(s.Atoms)
}

// Positions returns the cartesian positions in atom order.
func (s *Structure) Positions() [][3]float64 {
	pos := make([][3]float64, len(s.Atoms))
	for i, a := range s.Atoms {
		pos[i] = a.Position
	}
	return pos
}

// Symbols returns the per-atom element symbols in atom order.
func (s *Structure) Symbols() []string {
	syms := make([]string, len(s.Atoms))
	for i, a := range s.Atoms {
		syms[i] = a.Symbol
	}
	return syms
}

// DistinctSymbols returns the sorted set of element symbols present.
func (s *Structure) DistinctSymbols() []string {
	seen := make(map[string]struct{}, len(s.Atoms))
	var out []string
	for _, a := range s.Atoms {
		if _, ok := seen[a.Symbol]; ok {
			continue
		}
		seen[a.Symbol] = struct{}{}
		out = append(out, a.Symbol)
	}
	sort.Strings(out)
	return out
}

// SymbolCounts returns element symbol -> number of atoms.
func (s *Structure) SymbolCounts() map[string]int {
	counts := make(map[string]int, len(s.Atoms))
	for _, a := range s.Atoms {
		counts[a.Symbol]++
	}
	return counts
}

// TotalMass returns the sum of standard atomic weights over all atoms.
func (s *Structure) TotalMass() (float64, error) {
	var total float64
	for i, a := range s.Atoms {
		m, err := AtomicMass(a.Symbol)
		if err != nil {
			return 0, fmt.Errorf("atom %d: %w", i, err)
		}
		total += m
	}
	return total, nil
}

// AtomicNumbers returns the per-atom atomic numbers in atom order.
func (s *Structure) AtomicNumbers() ([]int, error) {
	nums := make([]int, len(s.Atoms))
	for i, a := range s.Atoms {
		z, err := AtomicNumber(a.Symbol)
		if err != nil {
			return nil, fmt.Errorf("atom %d: %w", i, err)
		}
		nums[i] = z
	}
	return nums, nil
}

// ScaledPositions returns the fractional coordinates of all atoms.
func (s *Structure) ScaledPositions() ([][3]float64, error) {
	return s.Cell.ScaledPositions(s.Positions())
}

// ConstrainedForces returns a copy of forces with every constraint applied:
// fixed atoms zeroed, spring corrections added.
func (s *Structure) ConstrainedForces(forces [][3]float64) [][3]float64 {
	adjusted := make([][3]float64, len(forces))
	copy(adjusted, forces)
	positions := s.Positions()
	for _, c := range s.Constraints {
		c.AdjustForces(positions, adjusted)
	}
	return adjusted
}

// MagneticMoments returns per-atom magnetic moments. When a calculator with
// cached computed moments is attached those are trusted; otherwise the
// static per-atom labels are returned. The branch is an explicit capability
// check, never an error fallback.
func (s *Structure) MagneticMoments() ([]float64, error) {
	if s.Calc != nil && s.Calc.Cached(QuantityMagmoms) {
		return s.Calc.Magmoms()
	}
	moments := make([]float64, len(s.Atoms))
	for i, a := range s.Atoms {
		moments[i] = a.Magmom
	}
	return moments, nil
}

// MaxMovement returns the largest per-atom displacement between this
// structure and another with identical atom count and ordering.
func (s *Structure) MaxMovement(other *Structure) (float64, error) {
	if len(s.Atoms) != len(other.Atoms) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrAtomCountMismatch, len(s.Atoms), len(other.Atoms))
	}
	var max float64
	for i := range s.Atoms {
		var sq float64
		for j := 0; j < 3; j++ {
			d := s.Atoms[i].Position[j] - other.Atoms[i].Position[j]
			sq += d * d
		}
		if dist := math.Sqrt(sq); dist > max {
			max = dist
		}
	}
	return max, nil
}

// Copy returns a deep copy of the structure. The attached calculator, if
// any, is shared, matching its read-only result semantics.
func (s *Structure) Copy() *Structure {
	out := &Structure{
		Atoms: make([]Atom, len(s.Atoms)),
		Cell:  s.Cell,
		PBC:   s.PBC,
		Calc:  s.Calc,
	}
	copy(out.Atoms, s.Atoms)
	if s.Info != nil {
		out.Info = make(map[string]any, len(s.Info))
		for k, v := range s.Info {
			out.Info[k] = v
		}
	}
	if s.Constraints != nil {
		out.Constraints = make([]Constraint, len(s.Constraints))
		copy(out.Constraints, s.Constraints)
	}
	return out
}

// Fmax returns the maximum absolute force component in a force set.
func Fmax(forces [][3]float64) float64 {
	var max float64
	for _, f := range forces {
		for _, c := range f {
			if abs := math.Abs(c); abs > max {
				max = abs
			}
		}
	}
	return max
}
