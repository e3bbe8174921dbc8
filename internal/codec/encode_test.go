package codec

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven/mocks"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestCodec() (*Codec, *mocks.MockSpacegroupDetector) {
	detector := mocks.NewMockSpacegroupDetector()
	c := New(Config{
		Spacegroups: detector,
		Now:         func() time.Time { return fixedNow },
	})
	return c, detector
}

// cuSlab is a two-atom copper fragment in a 5 Angstrom cubic cell.
func cuSlab() *domain.Structure {
	return &domain.Structure{
		Atoms: []domain.Atom{
			{Symbol: "Cu", Position: [3]float64{0, 0, 0}, Magmom: 0.1},
			{Symbol: "Cu", Position: [3]float64{1.8, 1.8, 0}, Tag: 1},
		},
		Cell: domain.Cell{{5, 0, 0}, {0, 5, 0}, {0, 0, 5}},
		PBC:  [3]bool{true, true, true},
		Info: map[string]any{"miller": "111"},
	}
}

// stubCalc is a scriptable calculator for exercising encode paths the
// frozen single-point calculator cannot reach.
type stubCalc struct {
	settings    map[string]any
	settingsErr error
	cached      map[domain.Quantity]bool
	energyCalls int
}

func (c *stubCalc) Module() string                   { return "stub.module" }
func (c *stubCalc) Class() string                    { return "Stub" }
func (c *stubCalc) Settings() (map[string]any, error) { return c.settings, c.settingsErr }
func (c *stubCalc) Cached(q domain.Quantity) bool    { return c.cached[q] }

func (c *stubCalc) Energy(bool) (float64, error) {
	c.energyCalls++
	return -1.0, nil
}
func (c *stubCalc) Forces(bool) ([][3]float64, error) { return nil, domain.ErrResultUnavailable }
func (c *stubCalc) Stress() ([6]float64, error)       { return [6]float64{}, domain.ErrResultUnavailable }
func (c *stubCalc) Magmoms() ([]float64, error)       { return nil, domain.ErrResultUnavailable }

func TestEncode_DerivedMetadata(t *testing.T) {
	c, detector := newTestCodec()
	detector.Label = "Fm-3m (225)"

	doc, err := c.Encode(cuSlab(), "tester", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if doc.Atoms.NAtoms != 2 {
		t.Errorf("NAtoms = %d, want 2", doc.Atoms.NAtoms)
	}
	if want := 2 * 63.546; math.Abs(doc.Atoms.Mass-want) > 1e-9 {
		t.Errorf("Mass = %v, want %v", doc.Atoms.Mass, want)
	}
	if doc.Atoms.Spacegroup != "Fm-3m (225)" {
		t.Errorf("Spacegroup = %q, want %q", doc.Atoms.Spacegroup, "Fm-3m (225)")
	}
	if len(doc.Atoms.ChemicalSymbols) != 1 || doc.Atoms.ChemicalSymbols[0] != "Cu" {
		t.Errorf("ChemicalSymbols = %v, want [Cu]", doc.Atoms.ChemicalSymbols)
	}
	if doc.Atoms.SymbolCounts["Cu"] != 2 {
		t.Errorf("SymbolCounts = %v, want Cu:2", doc.Atoms.SymbolCounts)
	}
	if doc.Atoms.Volume == nil || math.Abs(*doc.Atoms.Volume-125) > 1e-9 {
		t.Errorf("Volume = %v, want 125", doc.Atoms.Volume)
	}
	if detector.Calls() != 1 {
		t.Errorf("detector calls = %d, want 1", detector.Calls())
	}
}

func TestEncode_AtomEntriesPreserveOrder(t *testing.T) {
	c, _ := newTestCodec()

	doc, err := c.Encode(cuSlab(), "tester", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if len(doc.Atoms.Atoms) != 2 {
		t.Fatalf("len(Atoms) = %d, want 2", len(doc.Atoms.Atoms))
	}
	for i, entry := range doc.Atoms.Atoms {
		if entry.Index != i {
			t.Errorf("entry %d Index = %d", i, entry.Index)
		}
	}
	if doc.Atoms.Atoms[0].Magmom != 0.1 {
		t.Errorf("entry 0 Magmom = %v, want 0.1", doc.Atoms.Atoms[0].Magmom)
	}
	if doc.Atoms.Atoms[1].Tag != 1 {
		t.Errorf("entry 1 Tag = %d, want 1", doc.Atoms.Atoms[1].Tag)
	}
}

func TestEncode_EmptyStructure(t *testing.T) {
	c, _ := newTestCodec()
	s := &domain.Structure{}

	doc, err := c.Encode(s, "tester", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if doc.Atoms.NAtoms != 0 {
		t.Errorf("NAtoms = %d, want 0", doc.Atoms.NAtoms)
	}
	if doc.Atoms.ChemicalSymbols == nil {
		t.Error("ChemicalSymbols should be an empty slice, not nil")
	}
	if doc.Atoms.Volume != nil {
		t.Errorf("Volume = %v, want nil for a zero cell", *doc.Atoms.Volume)
	}
	if !doc.Calc.Empty() {
		t.Error("Calc should be empty without a calculator")
	}
	if !doc.Results.Empty() {
		t.Error("Results should be empty without a calculator")
	}
}

func TestEncode_BareHydrogen(t *testing.T) {
	c, _ := newTestCodec()
	s := &domain.Structure{
		Atoms: []domain.Atom{
			{Symbol: "H", Position: [3]float64{0, 0, -0.5}},
		},
	}

	doc, err := c.Encode(s, "tester", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if doc.Atoms.NAtoms != 1 {
		t.Errorf("NAtoms = %d, want 1", doc.Atoms.NAtoms)
	}
	if len(doc.Atoms.ChemicalSymbols) != 1 || doc.Atoms.ChemicalSymbols[0] != "H" {
		t.Errorf("ChemicalSymbols = %v, want [H]", doc.Atoms.ChemicalSymbols)
	}
	if doc.Atoms.Atoms[0].Position != ([3]float64{0, 0, -0.5}) {
		t.Errorf("Position = %v, want (0, 0, -0.5)", doc.Atoms.Atoms[0].Position)
	}
	if !doc.Calc.Empty() || !doc.Results.Empty() {
		t.Errorf("Calc/Results not empty: %+v / %+v", doc.Calc, doc.Results)
	}
}

func TestEncode_VolumeOmittedForLeftHandedCell(t *testing.T) {
	c, _ := newTestCodec()
	s := cuSlab()
	// Swapping two lattice vectors flips handedness.
	s.Cell = domain.Cell{{0, 5, 0}, {5, 0, 0}, {0, 0, 5}}

	doc, err := c.Encode(s, "tester", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if doc.Atoms.Volume != nil {
		t.Errorf("Volume = %v, want nil for a left-handed cell", *doc.Atoms.Volume)
	}
}

func TestEncode_Provenance(t *testing.T) {
	c, _ := newTestCodec()

	doc, err := c.Encode(cuSlab(), "catalog-bot", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if doc.User != "catalog-bot" {
		t.Errorf("User = %q, want %q", doc.User, "catalog-bot")
	}
	if !doc.Ctime.Equal(fixedNow) || !doc.Mtime.Equal(fixedNow) {
		t.Errorf("timestamps = %v / %v, want %v", doc.Ctime, doc.Mtime, fixedNow)
	}
	if doc.Ctime.Location() != time.UTC {
		t.Errorf("Ctime location = %v, want UTC", doc.Ctime.Location())
	}
}

func TestEncode_ExtrasCopied(t *testing.T) {
	c, _ := newTestCodec()
	extras := map[string]any{"job_id": int64(42)}

	doc, err := c.Encode(cuSlab(), "tester", extras)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	extras["job_id"] = int64(99)
	if doc.Extra["job_id"] != int64(42) {
		t.Errorf("Extra[job_id] = %v, want 42 (input map mutation leaked)", doc.Extra["job_id"])
	}
}

func TestEncode_ResultsEnergyAndFmax(t *testing.T) {
	c, _ := newTestCodec()
	s := cuSlab()
	// Pin atom 0 so its force is projected out of fmax but not the
	// stored raw forces.
	s.Constraints = []domain.Constraint{&domain.FixAtoms{Indices: []int{0}}}
	energy := -3.71
	raw := [][3]float64{{0.9, 0, 0}, {0, -0.2, 0.1}}
	s.Calc = domain.NewSinglePoint(s, domain.SinglePointResults{
		Energy: &energy,
		Forces: raw,
	})

	doc, err := c.Encode(s, "tester", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if doc.Results.Energy == nil || *doc.Results.Energy != energy {
		t.Errorf("Results.Energy = %v, want %v", doc.Results.Energy, energy)
	}
	if len(doc.Results.Forces) != 2 || doc.Results.Forces[0] != raw[0] {
		t.Errorf("Results.Forces = %v, want raw forces %v", doc.Results.Forces, raw)
	}
	// The fixed atom's 0.9 component is zeroed before taking the max.
	if doc.Results.Fmax == nil || math.Abs(*doc.Results.Fmax-0.2) > 1e-12 {
		t.Errorf("Results.Fmax = %v, want 0.2", doc.Results.Fmax)
	}
}

func TestEncode_PartialResults(t *testing.T) {
	c, _ := newTestCodec()
	s := cuSlab()
	energy := -1.5
	s.Calc = domain.NewSinglePoint(s, domain.SinglePointResults{Energy: &energy})

	doc, err := c.Encode(s, "tester", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if doc.Results.Energy == nil {
		t.Error("Results.Energy missing")
	}
	if doc.Results.Forces != nil || doc.Results.Fmax != nil {
		t.Errorf("Forces/Fmax = %v/%v, want absent", doc.Results.Forces, doc.Results.Fmax)
	}
}

func TestEncode_NeverComputes(t *testing.T) {
	c, _ := newTestCodec()
	s := cuSlab()
	calc := &stubCalc{cached: map[domain.Quantity]bool{}}
	s.Calc = calc

	doc, err := c.Encode(s, "tester", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if calc.energyCalls != 0 {
		t.Errorf("Energy called %d times despite nothing cached", calc.energyCalls)
	}
	if !doc.Results.Empty() {
		t.Error("Results should be empty when nothing is cached")
	}
}

func TestEncode_CalcIdentityWinsOverSettings(t *testing.T) {
	c, _ := newTestCodec()
	s := cuSlab()
	s.Calc = &stubCalc{
		settings: map[string]any{
			"module": "spoofed",
			"encut":  350.0,
		},
		cached: map[domain.Quantity]bool{},
	}

	doc, err := c.Encode(s, "tester", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if got := doc.Calc.Calculator["module"]; got != "stub.module" {
		t.Errorf("module = %v, want stub.module", got)
	}
	if got := doc.Calc.Calculator["class"]; got != "Stub" {
		t.Errorf("class = %v, want Stub", got)
	}
	if got := doc.Calc.Calculator["encut"]; got != 350.0 {
		t.Errorf("encut = %v, want 350", got)
	}
}

func TestEncode_SettingsFailureDegrades(t *testing.T) {
	c, _ := newTestCodec()
	s := cuSlab()
	s.Calc = &stubCalc{
		settingsErr: errors.New("engine gone"),
		cached:      map[domain.Quantity]bool{},
	}

	doc, err := c.Encode(s, "tester", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if doc.Calc.Calculator["module"] != "stub.module" {
		t.Errorf("identity missing after settings failure: %v", doc.Calc.Calculator)
	}
}

func TestEncode_KptsCoerced(t *testing.T) {
	cases := []struct {
		name string
		kpts any
		want []int
	}{
		{"int slice", []int{4, 4, 1}, []int{4, 4, 1}},
		{"int array", [3]int{2, 2, 2}, []int{2, 2, 2}},
		{"float slice", []float64{4, 4, 1}, []int{4, 4, 1}},
		{"any slice", []any{float64(6), int64(6), 1}, []int{6, 6, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestCodec()
			s := cuSlab()
			s.Calc = &stubCalc{
				settings: map[string]any{"kpts": tc.kpts},
				cached:   map[domain.Quantity]bool{},
			}

			doc, err := c.Encode(s, "tester", nil)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, ok := doc.Calc.Calculator["kpts"].([]int)
			if !ok {
				t.Fatalf("kpts = %T, want []int", doc.Calc.Calculator["kpts"])
			}
			if len(got) != len(tc.want) {
				t.Fatalf("kpts = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("kpts = %v, want %v", got, tc.want)
					break
				}
			}
		})
	}
}

func TestEncode_KptsMalformed(t *testing.T) {
	c, _ := newTestCodec()
	s := cuSlab()
	s.Calc = &stubCalc{
		settings: map[string]any{"kpts": "gamma"},
		cached:   map[domain.Quantity]bool{},
	}

	_, err := c.Encode(s, "tester", nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Encode() error = %v, want ErrInvalidInput", err)
	}
}

func TestEncode_UnknownElement(t *testing.T) {
	c, _ := newTestCodec()
	s := &domain.Structure{
		Atoms: []domain.Atom{{Symbol: "Xx"}},
	}

	_, err := c.Encode(s, "tester", nil)
	if !errors.Is(err, domain.ErrUnknownElement) {
		t.Errorf("Encode() error = %v, want ErrUnknownElement", err)
	}
}

func TestEncode_SpacegroupFailure(t *testing.T) {
	c, detector := newTestCodec()
	detector.DetectFn = func([3][3]float64, [][3]float64, []int) (string, error) {
		return "", errors.New("symmetry backend down")
	}

	_, err := c.Encode(cuSlab(), "tester", nil)
	if err == nil {
		t.Fatal("Encode() expected error from spacegroup detection")
	}
}
