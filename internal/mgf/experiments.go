package mgf

import (
	"fmt"
	"io"
	"math"

	"github.com/524D/mzisotope/internal/experiment"
)

// PrecursorTolerance is the largest precursor m/z difference between
// consecutive spectra of the same experiment
const PrecursorTolerance = 0.002

// ReadExperiments reads all spectra from r and groups consecutive spectra
// with the same precursor into experiments. Spectra of MS level 1 go to
// the MS1 list of their experiment, all others to MS2. The ion type and
// retention time of an experiment are those of its first spectrum.
func ReadExperiments(r io.Reader, source string) ([]*experiment.Experiment, error) {
	rd := NewReader(r)
	var exps []*experiment.Experiment
	var cur *experiment.Experiment
	for rd.Next() {
		spec := rd.Spectrum()
		if cur == nil || math.Abs(spec.PrecursorMz-cur.IonMass) >= PrecursorTolerance {
			name := spec.Title
			if name == "" {
				name = fmt.Sprintf("%s:%d", source, len(exps)+1)
			}
			cur = &experiment.Experiment{
				Name:          name,
				Source:        source,
				IonMass:       spec.PrecursorMz,
				IonType:       spec.IonType,
				RetentionTime: spec.RetentionTime,
			}
			exps = append(exps, cur)
		}
		if spec.MSLevel == 1 {
			cur.MS1 = append(cur.MS1, spec.Peaks)
		} else {
			cur.MS2 = append(cur.MS2, spec.Peaks)
		}
	}
	if err := rd.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return exps, nil
}
