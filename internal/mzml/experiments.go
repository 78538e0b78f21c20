package mzml

import (
	"fmt"
	"sort"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/experiment"
	"github.com/524D/mzisotope/internal/ms"
)

type rtSpec struct {
	rt   float64
	spec int
}

// ms1Index holds the MS1 scans ordered by retention time
type ms1Index []rtSpec

// initRtMs1 collects the retention times of all MS1 scans
func (f *MzML) initRtMs1() (ms1Index, error) {
	idx := make(ms1Index, 0, f.NumSpecs())
	for i := 0; i < f.NumSpecs(); i++ {
		level, err := f.MSLevel(i)
		if err != nil {
			return nil, err
		}
		if level != 1 {
			continue
		}
		rt, err := f.RetentionTime(i)
		if err != nil {
			return nil, err
		}
		idx = append(idx, rtSpec{rt: rt, spec: i})
	}
	sort.SliceStable(idx, func(i, j int) bool { return idx[i].rt < idx[j].rt })
	return idx, nil
}

// find returns the MS1 scan with a retention time just below rt, or -1
// if there are no MS1 scans
func (idx ms1Index) find(rt float64) int {
	if len(idx) == 0 {
		return -1
	}
	j := sort.Search(len(idx), func(i int) bool { return idx[i].rt >= rt })
	if j > 0 {
		j--
	}
	return idx[j].spec
}

// Experiments converts the scans of the file into experiments. Every
// precursor of an MSn scan becomes one experiment, with the MS1 scan it was
// selected from (by spectrumRef, or else the last MS1 scan before it) as
// isotope source. Files without MSn scans yield one experiment per MS1 scan.
// The ion type is unknown with the polarity of the MSn scan.
func (f *MzML) Experiments(source string) ([]*experiment.Experiment, error) {
	ms1, err := f.initRtMs1()
	if err != nil {
		return nil, err
	}
	var exps []*experiment.Experiment
	for i := 0; i < f.NumSpecs(); i++ {
		level, err := f.MSLevel(i)
		if err != nil {
			return nil, err
		}
		if level < 2 {
			continue
		}
		precursors, err := f.Precursors(i)
		if err != nil {
			return nil, err
		}
		if len(precursors) == 0 {
			continue
		}
		rt, err := f.RetentionTime(i)
		if err != nil {
			return nil, err
		}
		polarity, err := f.Polarity(i)
		if err != nil {
			return nil, err
		}
		peaks, err := f.ReadScan(i)
		if err != nil {
			return nil, err
		}
		for _, p := range precursors {
			ms1Scan, err := f.precursorScan(p, rt, ms1)
			if err != nil {
				return nil, err
			}
			charge := polarity
			if p.Charge != 0 {
				charge = polarity * abs(p.Charge)
			}
			exps = append(exps, &experiment.Experiment{
				Name:          fmt.Sprintf("%s:%s", source, f.index2id[i]),
				Source:        source,
				IonMass:       p.Mz,
				IonType:       chem.UnknownIonType(charge),
				MS1:           ms1Scan,
				MS2:           []ms.Spectrum{ms.MassOrdered(peaks)},
				RetentionTime: rt,
			})
		}
	}
	if len(exps) > 0 {
		return exps, nil
	}

	// MS1-only file
	for _, r := range ms1 {
		peaks, err := f.ReadScan(r.spec)
		if err != nil {
			return nil, err
		}
		polarity, err := f.Polarity(r.spec)
		if err != nil {
			return nil, err
		}
		exps = append(exps, &experiment.Experiment{
			Name:          fmt.Sprintf("%s:%s", source, f.index2id[r.spec]),
			Source:        source,
			IonType:       chem.UnknownIonType(polarity),
			MS1:           []ms.Spectrum{ms.MassOrdered(peaks)},
			RetentionTime: r.rt,
		})
	}
	return exps, nil
}

func (f *MzML) precursorScan(p Precursor, rt float64, ms1 ms1Index) ([]ms.Spectrum, error) {
	scanIndex := -1
	if p.SpectrumRef != "" {
		if i, err := f.ScanIndex(p.SpectrumRef); err == nil {
			scanIndex = i
		}
	}
	if scanIndex < 0 {
		scanIndex = ms1.find(rt)
	}
	if scanIndex < 0 {
		return nil, nil
	}
	peaks, err := f.ReadScan(scanIndex)
	if err != nil {
		return nil, err
	}
	return []ms.Spectrum{ms.MassOrdered(peaks)}, nil
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
