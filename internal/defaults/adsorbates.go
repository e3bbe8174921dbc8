package defaults

import (
	"fmt"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
)

// Adsorbates returns the fixed template catalog keyed by formula. Templates
// point upwards in z. Each call builds a fresh copy so callers can mutate
// their structure freely.
func Adsorbates() map[string]*domain.Structure {
	adsorbates := make(map[string]*domain.Structure)

	// The blank entry relaxes empty adslab systems, which adsorption-energy
	// calculations need as a reference.
	adsorbates[""] = &domain.Structure{}

	// Monatomics. Uranium is the placeholder species marking will-be
	// adsorption sites in the site database. Hydrogen starts half an
	// angstrom below the origin to help it adsorb onto the surface.
	adsorbates["U"] = &domain.Structure{Atoms: []domain.Atom{{Symbol: "U"}}}
	adsorbates["H"] = &domain.Structure{Atoms: []domain.Atom{
		{Symbol: "H", Position: [3]float64{0, 0, -0.5}},
	}}
	adsorbates["O"] = &domain.Structure{Atoms: []domain.Atom{{Symbol: "O"}}}
	adsorbates["C"] = &domain.Structure{Atoms: []domain.Atom{{Symbol: "C"}}}

	// Diatomics: first atom at the origin, second directly above it at the
	// relaxed gas-phase separation.
	adsorbates["CO"] = &domain.Structure{Atoms: []domain.Atom{
		{Symbol: "C", Position: [3]float64{0, 0, 0}},
		{Symbol: "O", Position: [3]float64{0, 0, 1.2}},
	}}
	adsorbates["OH"] = &domain.Structure{Atoms: []domain.Atom{
		{Symbol: "O", Position: [3]float64{0, 0, 0}},
		{Symbol: "H", Position: [3]float64{0, 0, 0.96}},
	}}

	// OOH tends to shed its hydrogen during relaxation, so both bonds get
	// one-sided springs to hold the adsorbate together.
	adsorbates["OOH"] = &domain.Structure{
		Atoms: []domain.Atom{
			{Symbol: "O", Position: [3]float64{0, 0, 0}},
			{Symbol: "O", Position: [3]float64{0, 0, 1.55}},
			{Symbol: "H", Position: [3]float64{0, 0.94, 1.80}},
		},
		Constraints: []domain.Constraint{
			&domain.Hookean{A1: 0, A2: 1, Rt: 1.95, K: 10},
			&domain.Hookean{A1: 1, A2: 2, Rt: 1.37, K: 5},
		},
	}

	return adsorbates
}

// Adsorbate resolves one catalog template by formula.
func Adsorbate(formula string) (*domain.Structure, error) {
	template, ok := Adsorbates()[formula]
	if !ok {
		return nil, fmt.Errorf("%w: no adsorbate template %q", domain.ErrNotFound, formula)
	}
	return template, nil
}
