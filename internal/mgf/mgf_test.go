package mgf

import (
	"strings"
	"testing"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMGF = `ION=[M+Na]+

BEGIN IONS
PEPMASS=301.1 1000
CHARGE=1+
MSLEVEL=1
301.1 100
302.1 20
END IONS

BEGIN IONS
PEPMASS=301.1005
150.0 5
100.0 10
END IONS

BEGIN IONS
TITLE=third
PEPMASS=400.2
CHARGE=1-
RTINSECONDS=12.5
200.1	7
END IONS
`

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader(testMGF))

	require.True(t, r.Next())
	s := r.Spectrum()
	assert.Equal(t, 301.1, s.PrecursorMz)
	assert.Equal(t, 1, s.MSLevel)
	assert.Equal(t, "[M+Na]+", s.IonType.String())
	assert.Equal(t, ms.Spectrum{{Mz: 301.1, Intens: 100}, {Mz: 302.1, Intens: 20}}, s.Peaks)

	require.True(t, r.Next())
	s = r.Spectrum()
	assert.Equal(t, 2, s.MSLevel, "MS level falls back to 2")
	assert.Equal(t, ms.Spectrum{{Mz: 100, Intens: 10}, {Mz: 150, Intens: 5}}, s.Peaks)

	require.True(t, r.Next())
	s = r.Spectrum()
	assert.Equal(t, "third", s.Title)
	assert.True(t, s.IonType.IsUnknown())
	assert.Equal(t, -1, s.IonType.Charge())
	assert.Equal(t, 12.5, s.RetentionTime)

	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
}

func TestReadExperiments(t *testing.T) {
	exps, err := ReadExperiments(strings.NewReader(testMGF), "test.mgf")
	require.NoError(t, err)
	require.Len(t, exps, 2)

	na, err := chem.IonByName("[M+Na]+")
	require.NoError(t, err)

	e := exps[0]
	assert.Equal(t, "test.mgf:1", e.Name)
	assert.Equal(t, "test.mgf", e.Source)
	assert.Equal(t, 301.1, e.IonMass)
	assert.True(t, e.IonType.Equal(chem.IonTypeFor(na)))
	assert.Len(t, e.MS1, 1)
	assert.Len(t, e.MS2, 1)

	e = exps[1]
	assert.Equal(t, "third", e.Name)
	assert.Equal(t, -1, e.Charge())
	assert.Empty(t, e.MS1)
	assert.Len(t, e.MS2, 1)
}

func TestReadExperimentsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"bad peak", "BEGIN IONS\nPEPMASS=100\n100.5\nEND IONS\n", ErrInvalidPeak},
		{"unknown ion", "BEGIN IONS\nION=[M+Xx]+\nEND IONS\n", chem.ErrUnknownIon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadExperiments(strings.NewReader(tt.input), "bad.mgf")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIonMode(t *testing.T) {
	input := "IONMODE=Negative\nBEGIN IONS\nPEPMASS=250\n250 1\nEND IONS\n"
	exps, err := ReadExperiments(strings.NewReader(input), "neg.mgf")
	require.NoError(t, err)
	require.Len(t, exps, 1)
	assert.Equal(t, -1, exps[0].Charge())
	assert.True(t, exps[0].IonType.IsUnknown())
}

func TestEmpty(t *testing.T) {
	exps, err := ReadExperiments(strings.NewReader("# comment only\n"), "empty.mgf")
	require.NoError(t, err)
	assert.Empty(t, exps)
}
