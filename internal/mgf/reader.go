// Package mgf reads Mascot Generic Format peak lists
package mgf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
)

// ErrInvalidPeak means a peak line does not hold an m/z and an intensity
var ErrInvalidPeak = errors.New("mgf: invalid peak line")

// Spectrum is one BEGIN IONS ... END IONS block
type Spectrum struct {
	Title       string
	PrecursorMz float64
	IonType     chem.PrecursorIonType
	MSLevel     int
	// RetentionTime in seconds, 0 if not given
	RetentionTime float64
	Peaks         ms.Spectrum
}

// Reader provides streaming access to MGF files. Keywords outside an ion
// block set defaults for all following blocks.
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	prototype   Spectrum
	currentSpec *Spectrum
	err         error
}

// NewReader creates a new MGF reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner:   bufio.NewScanner(r),
		prototype: Spectrum{MSLevel: 2, IonType: chem.UnknownIonType(1)},
	}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentSpec = spec
	return true
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) readSpectrum() (*Spectrum, error) {
	var spec *Spectrum
	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case spec == nil && strings.HasPrefix(line, "BEGIN IONS"):
			s := r.prototype
			s.Peaks = nil
			spec = &s
		case spec != nil && strings.HasPrefix(line, "END IONS"):
			spec.Peaks = ms.MassOrdered(spec.Peaks)
			return spec, nil
		case spec != nil && line[0] >= '0' && line[0] <= '9':
			p, err := parsePeak(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			spec.Peaks = append(spec.Peaks, p)
		default:
			target := spec
			if target == nil {
				target = &r.prototype
			}
			if i := strings.IndexByte(line, '='); i >= 0 {
				if err := handleKeyword(target, line[:i], line[i+1:]); err != nil {
					return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
				}
			}
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func parsePeak(line string) (ms.Peak, error) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return ms.Peak{}, fmt.Errorf("%w: %q", ErrInvalidPeak, line)
	}
	mz, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return ms.Peak{}, fmt.Errorf("%w: %q", ErrInvalidPeak, line)
	}
	intens, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return ms.Peak{}, fmt.Errorf("%w: %q", ErrInvalidPeak, line)
	}
	return ms.Peak{Mz: mz, Intens: intens}, nil
}

var chargePattern = regexp.MustCompile(`(\d+)([+-])?`)

func handleKeyword(spec *Spectrum, keyword, value string) error {
	keyword = strings.ToUpper(strings.TrimSpace(keyword))
	value = strings.TrimSpace(value)
	switch {
	case keyword == "TITLE":
		spec.Title = value
	case keyword == "PEPMASS":
		// PEPMASS may be followed by the precursor intensity
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return fmt.Errorf("empty PEPMASS")
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("invalid PEPMASS %q: %w", value, err)
		}
		spec.PrecursorMz = mz
	case keyword == "CHARGE":
		m := chargePattern.FindStringSubmatch(value)
		if m == nil {
			return fmt.Errorf("invalid CHARGE %q", value)
		}
		charge, err := strconv.Atoi(m[1])
		if err != nil {
			return fmt.Errorf("invalid CHARGE %q: %w", value, err)
		}
		if m[2] == "-" {
			charge = -charge
		}
		if charge == 0 {
			charge = 1
		}
		// A known ionization of the same polarity is kept
		if spec.IonType.Charge()*charge <= 0 {
			spec.IonType = chem.UnknownIonType(charge)
		}
	case keyword == "RTINSECONDS":
		rt, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid RTINSECONDS %q: %w", value, err)
		}
		spec.RetentionTime = rt
	case keyword == "IONMODE":
		charge := 1
		if strings.HasPrefix(strings.ToLower(value), "neg") {
			charge = -1
		}
		if spec.IonType.Charge()*charge <= 0 {
			spec.IonType = chem.UnknownIonType(charge)
		}
	case strings.HasPrefix(keyword, "ION"):
		ionType, err := chem.PrecursorIonTypeByName(value)
		if err != nil {
			return err
		}
		spec.IonType = ionType
	case strings.Contains(keyword, "LEVEL"):
		level, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", keyword, value, err)
		}
		spec.MSLevel = level
	}
	return nil
}
