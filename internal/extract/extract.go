// Package extract finds isotope pattern candidates in a measured spectrum.
package extract

import (
	"math"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
	"github.com/524D/mzisotope/internal/profile"
)

// Forward and backward isotope peaks are searched up to this distance in Dalton
const maxIsotopeSteps = 10

// Targeted extraction searches this many isotope peaks after the target
const maxTargetedSteps = 5

// A scan step ends once a peak lies this far beyond the expected mass
const stepOvershoot = 0.3

// Minimal intensity of a peak left of the seed, relative to the seed
const minBackwardRatio = 0.33

// PatternExtractor finds isotope patterns in a spectrum. Every returned
// spectrum is mass ordered and holds one candidate pattern.
type PatternExtractor interface {
	Extract(p profile.MeasurementProfile, s ms.Spectrum) []ms.Spectrum
	ExtractAt(p profile.MeasurementProfile, s ms.Spectrum, targetMz float64, allowAdducts bool) []ms.Spectrum
}

// ExtractAll groups all peaks of a spectrum into isotope patterns
type ExtractAll struct {
	Table *chem.Table
}

// NewExtractAll returns an extractor on the default isotope table
func NewExtractAll() *ExtractAll {
	return &ExtractAll{Table: chem.DefaultTable()}
}

func (x *ExtractAll) table() *chem.Table {
	if x.Table == nil {
		return chem.DefaultTable()
	}
	return x.Table
}

// IsotopeDeviation is the window in which isotope peaks are expected at
// integer distances from the monoisotopic peak. It is twice as wide in ppm
// as the allowed deviation and its absolute part covers three times the
// allowed absolute deviation plus the largest isotope mass defect of the
// profile alphabet.
func (x *ExtractAll) IsotopeDeviation(p profile.MeasurementProfile) ms.Deviation {
	allowed := p.Allowed()
	delta := x.table().LargestIsotopeDefect(p.Alphabet())
	return ms.Deviation{
		Ppm:      2 * allowed.Ppm,
		Absolute: 3*allowed.Absolute + delta,
	}
}

// Extract scans the peaks by descending intensity. Every peak that is not
// yet claimed seeds a new pattern: peaks at +1..+10 Dalton are added and
// claimed, peaks at -1..-10 Dalton are added if they have at least a third
// of the seed's intensity. The seed and the backward peaks are not claimed,
// so they can seed or join later patterns.
// Patterns are returned in the order of their seeds.
func (x *ExtractAll) Extract(p profile.MeasurementProfile, s ms.Spectrum) []ms.Spectrum {
	byInt := ms.IntensityOrdered(s)
	byMz := ms.MassOrdered(s)
	window := x.IsotopeDeviation(p)
	used := make([]bool, len(byMz))

	var candidates []ms.Spectrum
	var buffer ms.Spectrum
	for k := range byInt {
		seed := ms.MostIntensePeakWithin(byMz, byInt[k].Mz, window)
		if seed < 0 || used[seed] {
			continue
		}
		mono := byMz[seed].Mz
		buffer = append(buffer[:0], byMz[seed])

		j := seed + 1
	forward:
		for f := 1; f <= maxIsotopeSteps; f++ {
			found := false
			expected := mono + float64(f)
			for ; j < len(byMz); j++ {
				if window.InErrorWindow(expected, byMz[j].Mz) && !used[j] {
					buffer = append(buffer, byMz[j])
					used[j] = true
					found = true
				} else if byMz[j].Mz > expected+stepOvershoot {
					if found {
						continue forward
					}
					break forward
				}
			}
		}

		j = seed - 1
	backward:
		for f := 1; f <= maxIsotopeSteps; f++ {
			found := false
			expected := mono - float64(f)
			for ; j >= 0; j-- {
				if window.InErrorWindow(expected, byMz[j].Mz) && !used[j] &&
					byMz[j].Intens/byMz[seed].Intens > minBackwardRatio {
					buffer = append(buffer, byMz[j])
					found = true
				} else if byMz[j].Mz < expected-stepOvershoot {
					if found {
						continue backward
					}
					break backward
				}
			}
		}

		if len(buffer) >= 2 {
			candidates = append(candidates, ms.MassOrdered(buffer))
		}
	}
	return candidates
}

// ExtractAt extends the most intense peak near targetMz by up to five
// isotope peaks, using the isotope mass windows of an extended alphabet.
// A peak that is more intense than its predecessor may start an overlapping
// pattern, so the pattern found up to that point is kept as an additional
// candidate. The complete pattern is returned first.
//
// allowAdducts is accepted for interface compatibility; adducts are not
// searched.
func (x *ExtractAll) ExtractAt(p profile.MeasurementProfile, s ms.Spectrum, targetMz float64, allowAdducts bool) []ms.Spectrum {
	byMz := ms.MassOrdered(s)
	index := ms.MostIntensePeakWithin(byMz, targetMz, p.Allowed())
	if index < 0 {
		return nil
	}
	alphabet := chem.ExtendedAlphabet()
	table := x.table()

	var snapshots []ms.Spectrum
	pattern := ms.Spectrum{byMz[index]}
	for k := 1; k <= maxTargetedSteps; k++ {
		a, b := table.IsotopicMassWindow(alphabet, p.Allowed(), pattern[0].Mz, k)
		m := a + (b-a)/2
		next := ms.MostIntensePeakWithin(byMz, m, ms.DeviationFromMeasurement(m, a))
		if next < 0 {
			break
		}
		if byMz[next].Intens > pattern[len(pattern)-1].Intens {
			snapshots = append(snapshots, pattern.Copy())
		}
		pattern = append(pattern, byMz[next])
	}
	return append([]ms.Spectrum{pattern}, snapshots...)
}

// MonoisotopicMass returns the m/z of the first peak, or NaN for an empty pattern
func MonoisotopicMass(pattern ms.Spectrum) float64 {
	if len(pattern) == 0 {
		return math.NaN()
	}
	return pattern[0].Mz
}
