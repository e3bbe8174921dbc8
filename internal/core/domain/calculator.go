package domain

// Quantity names a computable property a calculator may hold results for.
type Quantity string

const (
	QuantityEnergy  Quantity = "energy"
	QuantityForces  Quantity = "forces"
	QuantityStress  Quantity = "stress"
	QuantityMagmoms Quantity = "magmoms"
)

// Calculator is the read-only face of a computation engine attached to a
// structure. Encoding consults Cached before every lookup so that document
// assembly never triggers a computation as a side effect.
type Calculator interface {
	// Module returns the originating module identity of the calculator.
	Module() string

	// Class returns the calculator type name within its module.
	Class() string

	// Settings returns the calculator's declared settings map.
	Settings() (map[string]any, error)

	// Cached reports whether a valid computed value exists for the quantity.
	Cached(q Quantity) bool

	// Energy returns the computed potential energy. With applyConstraints
	// set, constraint energy corrections are included.
	Energy(applyConstraints bool) (float64, error)

	// Forces returns the computed per-atom forces. With applyConstraints
	// set, constraint force projections are applied.
	Forces(applyConstraints bool) ([][3]float64, error)

	// Stress returns the computed stress in 6-component Voigt form.
	Stress() ([6]float64, error)

	// Magmoms returns computed per-atom magnetic moments.
	Magmoms() ([]float64, error)
}

// Verify interface compliance
var _ Calculator = (*SinglePoint)(nil)

// SinglePointResults carries the frozen quantities attached to a decoded or
// completed structure. Nil fields mean the quantity was never computed,
// which is different from a zero value.
type SinglePointResults struct {
	Energy  *float64
	Forces  [][3]float64
	Stress  *[6]float64
	Magmoms []float64
}

// SinglePoint is a calculator holding immutable results of one completed
// computation. It never computes anything; unknown quantities return
// ErrResultUnavailable.
type SinglePoint struct {
	structure *Structure
	results   SinglePointResults
}

// NewSinglePoint attaches frozen results to a structure and returns the
// calculator. The structure reference is needed to apply constraints on
// force lookups.
func NewSinglePoint(s *Structure, results SinglePointResults) *SinglePoint {
	if results.Forces != nil {
		forces := make([][3]float64, len(results.Forces))
		copy(forces, results.Forces)
		results.Forces = forces
	}
	if results.Magmoms != nil {
		moments := make([]float64, len(results.Magmoms))
		copy(moments, results.Magmoms)
		results.Magmoms = moments
	}
	return &SinglePoint{structure: s, results: results}
}

func (c *SinglePoint) Module() string { return "atomstore.calculators" }
func (c *SinglePoint) Class() string  { return "SinglePoint" }

// Settings returns an empty map: a single-point record carries results, not
// the settings of the engine that produced them.
func (c *SinglePoint) Settings() (map[string]any, error) {
	return map[string]any{}, nil
}

func (c *SinglePoint) Cached(q Quantity) bool {
	switch q {
	case QuantityEnergy:
		return c.results.Energy != nil
	case QuantityForces:
		return c.results.Forces != nil
	case QuantityStress:
		return c.results.Stress != nil
	case QuantityMagmoms:
		return c.results.Magmoms != nil
	default:
		return false
	}
}

func (c *SinglePoint) Energy(applyConstraints bool) (float64, error) {
	if c.results.Energy == nil {
		return 0, ErrResultUnavailable
	}
	// Stored energies are raw engine output; constraint energy corrections
	// would have been folded in by the engine before freezing.
	_ = applyConstraints
	return *c.results.Energy, nil
}

func (c *SinglePoint) Forces(applyConstraints bool) ([][3]float64, error) {
	if c.results.Forces == nil {
		return nil, ErrResultUnavailable
	}
	forces := make([][3]float64, len(c.results.Forces))
	copy(forces, c.results.Forces)
	if applyConstraints && c.structure != nil {
		forces = c.structure.ConstrainedForces(forces)
	}
	return forces, nil
}

func (c *SinglePoint) Stress() ([6]float64, error) {
	if c.results.Stress == nil {
		return [6]float64{}, ErrResultUnavailable
	}
	return *c.results.Stress, nil
}

func (c *SinglePoint) Magmoms() ([]float64, error) {
	if c.results.Magmoms == nil {
		return nil, ErrResultUnavailable
	}
	moments := make([]float64, len(c.results.Magmoms))
	copy(moments, c.results.Magmoms)
	return moments, nil
}
