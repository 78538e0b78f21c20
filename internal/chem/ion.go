package chem

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Ionization relates the neutral mass of a molecule to the m/z measured for
// its ion. Atoms are added to (or, for negative counts, removed from) the
// molecule; Charge is the number of elementary charges and is never zero.
type Ionization struct {
	Name   string
	Charge int
	Atoms  MolecularFormula
}

var (
	// ErrUnknownIon is returned for ion names that cannot be resolved
	ErrUnknownIon = errors.New("chem: unknown ion")
	// ErrZeroCharge is returned when an ionization without charge is requested
	ErrZeroCharge = errors.New("chem: ionization needs a nonzero charge")
)

// NewIonization creates an ionization; atoms may be empty
func NewIonization(name string, charge int, atoms MolecularFormula) (Ionization, error) {
	if charge == 0 {
		return Ionization{}, ErrZeroCharge
	}
	return Ionization{Name: name, Charge: charge, Atoms: atoms}, nil
}

// ToMeasured converts a neutral mass to the m/z of its ion
func (ion Ionization) ToMeasured(neutral float64) float64 {
	z := float64(ion.Charge)
	return (neutral + ion.Atoms.Mass() - z*ElectronMass) / math.Abs(z)
}

// ToNeutral converts the m/z of an ion to the neutral mass
func (ion Ionization) ToNeutral(mz float64) float64 {
	z := float64(ion.Charge)
	return mz*math.Abs(z) - ion.Atoms.Mass() + z*ElectronMass
}

// AbsCharge is the absolute charge
func (ion Ionization) AbsCharge() int {
	if ion.Charge < 0 {
		return -ion.Charge
	}
	return ion.Charge
}

func (ion Ionization) String() string {
	if ion.Name != "" {
		return ion.Name
	}
	return formatIonName(ion.Charge, ion.Atoms, MolecularFormula{}, MolecularFormula{})
}

var ionCatalogue = []Ionization{
	{"[M+H]+", 1, MustFormula("H")},
	{"[M+Na]+", 1, MustFormula("Na")},
	{"[M+K]+", 1, MustFormula("K")},
	{"[M]+", 1, MolecularFormula{}},
	{"[M-H]-", -1, MustFormula("H").negate()},
	{"[M+Cl]-", -1, MustFormula("Cl")},
	{"[M]-", -1, MolecularFormula{}},
}

func (f MolecularFormula) negate() MolecularFormula {
	return MolecularFormula{}.Subtract(f)
}

// IonByName looks up an ionization in the catalogue. Whitespace is ignored.
func IonByName(name string) (Ionization, error) {
	n := strings.Join(strings.Fields(name), "")
	for _, ion := range ionCatalogue {
		if ion.Name == n {
			return ion, nil
		}
	}
	return Ionization{}, fmt.Errorf("%w: %q", ErrUnknownIon, name)
}

// KnownIonModes returns the common adduct ionizations with the sign of
// charge. Intrinsically charged ions ([M]+, [M]-) are not included.
func KnownIonModes(charge int) []Ionization {
	var modes []Ionization
	for _, ion := range ionCatalogue {
		if ion.Atoms.IsEmpty() {
			continue
		}
		if (charge > 0 && ion.Charge > 0) || (charge < 0 && ion.Charge < 0) {
			modes = append(modes, ion)
		}
	}
	return modes
}

// PrecursorIonType describes how a measured precursor relates to the
// neutral molecule: an ionization plus an optional adduct and an optional
// in-source loss. An unknown ion type only carries the charge sign.
type PrecursorIonType struct {
	ionization Ionization
	adduct     MolecularFormula
	loss       MolecularFormula
	unknown    bool
}

// NewPrecursorIonType creates a precursor ion type from its parts
func NewPrecursorIonType(ion Ionization, adduct, loss MolecularFormula) PrecursorIonType {
	return PrecursorIonType{ionization: ion, adduct: adduct, loss: loss}
}

// UnknownIonType returns an ion type where only the charge is known
func UnknownIonType(charge int) PrecursorIonType {
	name := "[M+?]+"
	if charge < 0 {
		charge = -1
		name = "[M+?]-"
	} else {
		charge = 1
	}
	return PrecursorIonType{
		ionization: Ionization{Name: name, Charge: charge},
		unknown:    true,
	}
}

// IonTypeFor returns the precursor ion type for a plain ionization
func IonTypeFor(ion Ionization) PrecursorIonType {
	return PrecursorIonType{ionization: ion}
}

// IsUnknown reports whether the ionization is not known
func (p PrecursorIonType) IsUnknown() bool { return p.unknown }

// Ionization returns the ionization part
func (p PrecursorIonType) Ionization() Ionization { return p.ionization }

// Charge returns the signed charge
func (p PrecursorIonType) Charge() int { return p.ionization.Charge }

// Adduct returns the adduct attached to the molecule
func (p PrecursorIonType) Adduct() MolecularFormula { return p.adduct }

// InSourceLoss returns the fragment lost in the source
func (p PrecursorIonType) InSourceLoss() MolecularFormula { return p.loss }

// Modification is adduct minus in-source loss
func (p PrecursorIonType) Modification() MolecularFormula {
	return p.adduct.Subtract(p.loss)
}

// NeutralToPrecursor computes the precursor m/z of a neutral molecule
func (p PrecursorIonType) NeutralToPrecursor(neutral float64) float64 {
	return p.ionization.ToMeasured(neutral + p.Modification().Mass())
}

// PrecursorToNeutral computes the neutral molecule mass from a precursor m/z
func (p PrecursorIonType) PrecursorToNeutral(mz float64) float64 {
	return p.ionization.ToNeutral(mz) - p.Modification().Mass()
}

// MeasuredFormula is the formula of the measured ion without charge carrier
func (p PrecursorIonType) MeasuredFormula(neutral MolecularFormula) MolecularFormula {
	return neutral.Add(p.Modification())
}

// Equal reports whether both ion types describe the same ion
func (p PrecursorIonType) Equal(q PrecursorIonType) bool {
	return p.unknown == q.unknown &&
		p.ionization.Charge == q.ionization.Charge &&
		p.ionization.Atoms.Equal(q.ionization.Atoms) &&
		p.adduct.Equal(q.adduct) && p.loss.Equal(q.loss)
}

func (p PrecursorIonType) String() string {
	if p.unknown {
		return p.ionization.Name
	}
	if p.adduct.IsEmpty() && p.loss.IsEmpty() {
		return p.ionization.String()
	}
	return formatIonName(p.ionization.Charge, p.ionization.Atoms, p.adduct, p.loss)
}

// MarshalText implements encoding.TextMarshaler
func (p PrecursorIonType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *PrecursorIonType) UnmarshalText(b []byte) error {
	q, err := PrecursorIonTypeByName(string(b))
	if err != nil {
		return err
	}
	*p = q
	return nil
}

func formatIonName(charge int, ionAtoms, adduct, loss MolecularFormula) string {
	var b strings.Builder
	b.WriteString("[M")
	if !adduct.IsEmpty() {
		b.WriteString("+" + adduct.String())
	}
	if !loss.IsEmpty() {
		b.WriteString("-" + loss.String())
	}
	for _, sym := range ionAtoms.Symbols() {
		n := ionAtoms.Count(sym)
		if n > 0 {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
			n = -n
		}
		if n != 1 {
			b.WriteString(strconv.Itoa(n))
		}
		b.WriteString(sym)
	}
	b.WriteByte(']')
	z := charge
	sign := "+"
	if z < 0 {
		sign = "-"
		z = -z
	}
	if z != 1 {
		b.WriteString(strconv.Itoa(z))
	}
	b.WriteString(sign)
	return b.String()
}

// PrecursorIonTypeByName parses names like "[M+H]+", "[M+Na]+",
// "[M+H-H2O]+", "[M+NH4]+" or "[M+?]-". Terms that match a catalogue
// ionization of the same charge become the ionization; remaining positive
// terms form the adduct and negative terms the in-source loss.
func PrecursorIonTypeByName(name string) (PrecursorIonType, error) {
	n := strings.Join(strings.Fields(name), "")
	switch n {
	case "[M+?]+", "[M?]+":
		return UnknownIonType(1), nil
	case "[M+?]-", "[M?]-":
		return UnknownIonType(-1), nil
	}
	if ion, err := IonByName(n); err == nil {
		return IonTypeFor(ion), nil
	}
	if !strings.HasPrefix(n, "[M") {
		return PrecursorIonType{}, fmt.Errorf("%w: %q", ErrUnknownIon, name)
	}
	end := strings.LastIndexByte(n, ']')
	if end < 0 {
		return PrecursorIonType{}, fmt.Errorf("%w: %q", ErrUnknownIon, name)
	}
	charge, err := parseCharge(n[end+1:])
	if err != nil {
		return PrecursorIonType{}, fmt.Errorf("%w: %q: %v", ErrUnknownIon, name, err)
	}
	terms, err := parseIonTerms(n[2:end])
	if err != nil {
		return PrecursorIonType{}, fmt.Errorf("%w: %q: %v", ErrUnknownIon, name, err)
	}

	var ionization *Ionization
	adduct := MolecularFormula{}
	loss := MolecularFormula{}
	for _, t := range terms {
		if ionization == nil && charge*charge == 1 {
			for _, ion := range ionCatalogue {
				if ion.Charge == charge && !ion.Atoms.IsEmpty() && ion.Atoms.Equal(t) {
					ion := ion
					ionization = &ion
					break
				}
			}
			if ionization != nil {
				continue
			}
		}
		if t.IsNonNegative() {
			adduct = adduct.Add(t)
		} else {
			loss = loss.Subtract(t)
		}
	}
	if ionization == nil {
		if charge*charge == 1 {
			// intrinsically charged, e.g. [M-H2O]+
			ion := Ionization{Name: "[M]+", Charge: 1}
			if charge < 0 {
				ion = Ionization{Name: "[M]-", Charge: -1}
			}
			ionization = &ion
		} else {
			// multiply charged: all atoms are the charge carrier
			ion := Ionization{Charge: charge, Atoms: adduct.Subtract(loss)}
			return IonTypeFor(ion), nil
		}
	}
	return NewPrecursorIonType(*ionization, adduct, loss), nil
}

func parseCharge(s string) (int, error) {
	if s == "" {
		return 0, errors.New("missing charge")
	}
	sign := 1
	switch s[len(s)-1] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("invalid charge %q", s)
	}
	z := 1
	if len(s) > 1 {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil || n == 0 {
			return 0, fmt.Errorf("invalid charge %q", s)
		}
		z = n
	}
	return sign * z, nil
}

// parseIonTerms splits "+H-H2O+2Na" into signed formulas
func parseIonTerms(s string) ([]MolecularFormula, error) {
	var terms []MolecularFormula
	for len(s) > 0 {
		sign := 1
		switch s[0] {
		case '+':
		case '-':
			sign = -1
		default:
			return nil, fmt.Errorf("expected '+' or '-' at %q", s)
		}
		s = s[1:]
		i := 0
		for i < len(s) && s[i] != '+' && s[i] != '-' {
			i++
		}
		term := s[:i]
		s = s[i:]
		mult := 1
		j := 0
		for j < len(term) && term[j] >= '0' && term[j] <= '9' {
			j++
		}
		if j > 0 {
			mult, _ = strconv.Atoi(term[:j])
			term = term[j:]
		}
		f, err := ParseFormula(term)
		if err != nil {
			return nil, err
		}
		if f.IsEmpty() {
			return nil, errors.New("empty term")
		}
		base := f
		for k := 1; k < mult; k++ {
			f = f.Add(base)
		}
		if sign < 0 {
			f = f.negate()
		}
		terms = append(terms, f)
	}
	return terms, nil
}

// IonElements returns the symbols of all elements used by catalogue ions
func IonElements() []string {
	seen := map[string]bool{}
	var syms []string
	for _, ion := range ionCatalogue {
		for _, sym := range ion.Atoms.Symbols() {
			if !seen[sym] {
				seen[sym] = true
				syms = append(syms, sym)
			}
		}
	}
	return syms
}
