// Package experiment describes a measured compound: the precursor ion with
// its ionization and the spectra recorded for it.
package experiment

import (
	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
)

// Experiment groups the spectra of one precursor
type Experiment struct {
	Name string
	// Source is the file the experiment was read from
	Source string
	// IonMass is the precursor m/z
	IonMass float64
	IonType chem.PrecursorIonType
	// MS1 holds the spectra that contain the isotope pattern of the precursor
	MS1 []ms.Spectrum
	MS2 []ms.Spectrum
	// RetentionTime in seconds, 0 if unknown
	RetentionTime float64
}

// Charge returns the signed precursor charge
func (e *Experiment) Charge() int {
	return e.IonType.Charge()
}

// NeutralMass returns the neutral mass of the precursor. For an unknown
// ionization the returned mass assumes an intrinsically charged ion.
func (e *Experiment) NeutralMass() float64 {
	return e.IonType.PrecursorToNeutral(e.IonMass)
}

// HasMS1 reports whether the experiment carries at least one non-empty MS1 spectrum
func (e *Experiment) HasMS1() bool {
	for _, s := range e.MS1 {
		if len(s) > 0 {
			return true
		}
	}
	return false
}
