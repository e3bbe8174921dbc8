package defaults

import (
	"errors"
	"testing"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
)

func TestAdsorbates_CatalogContents(t *testing.T) {
	catalog := Adsorbates()

	for _, formula := range []string{"", "U", "H", "O", "C", "CO", "OH", "OOH"} {
		if _, ok := catalog[formula]; !ok {
			t.Errorf("catalog missing %q", formula)
		}
	}

	if blank := catalog[""]; blank.NumAtoms() != 0 {
		t.Errorf("blank adsorbate has %d atoms, want 0", blank.NumAtoms())
	}
}

func TestAdsorbates_HydrogenStartsBelowOrigin(t *testing.T) {
	h, err := Adsorbate("H")
	if err != nil {
		t.Fatalf("Adsorbate() error = %v", err)
	}
	if got := h.Atoms[0].Position[2]; got != -0.5 {
		t.Errorf("H z = %v, want -0.5", got)
	}
}

func TestAdsorbates_DiatomicsPointUp(t *testing.T) {
	for _, tc := range []struct {
		formula    string
		separation float64
	}{
		{"CO", 1.2},
		{"OH", 0.96},
	} {
		s, err := Adsorbate(tc.formula)
		if err != nil {
			t.Fatalf("Adsorbate(%q) error = %v", tc.formula, err)
		}
		if s.NumAtoms() != 2 {
			t.Fatalf("%s has %d atoms, want 2", tc.formula, s.NumAtoms())
		}
		if got := s.Atoms[1].Position[2]; got != tc.separation {
			t.Errorf("%s bond length = %v, want %v", tc.formula, got, tc.separation)
		}
	}
}

func TestAdsorbates_OOHCarriesSprings(t *testing.T) {
	ooh, err := Adsorbate("OOH")
	if err != nil {
		t.Fatalf("Adsorbate() error = %v", err)
	}
	if len(ooh.Constraints) != 2 {
		t.Fatalf("OOH has %d constraints, want 2", len(ooh.Constraints))
	}
	for i, c := range ooh.Constraints {
		if _, ok := c.(*domain.Hookean); !ok {
			t.Errorf("constraint %d type = %T, want *Hookean", i, c)
		}
	}
}

func TestAdsorbates_FreshCopies(t *testing.T) {
	first, err := Adsorbate("CO")
	if err != nil {
		t.Fatalf("Adsorbate() error = %v", err)
	}
	first.Atoms[0].Position = [3]float64{9, 9, 9}

	second, err := Adsorbate("CO")
	if err != nil {
		t.Fatalf("Adsorbate() error = %v", err)
	}
	if second.Atoms[0].Position != ([3]float64{}) {
		t.Errorf("catalog template mutated across calls: %v", second.Atoms[0].Position)
	}
}

func TestAdsorbate_Unknown(t *testing.T) {
	_, err := Adsorbate("NH3")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Adsorbate() error = %v, want ErrNotFound", err)
	}
}
