package chem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIonizationRoundTrip(t *testing.T) {
	for _, ion := range ionCatalogue {
		for _, m := range []float64{18.01, 180.0634, 1234.5678} {
			got := ion.ToNeutral(ion.ToMeasured(m))
			assert.InDelta(t, m, got, 1e-9, ion.Name)
		}
	}
}

func TestProtonation(t *testing.T) {
	ion, err := IonByName("[M + H]+")
	require.NoError(t, err)
	assert.InDelta(t, 100+ProtonMass, ion.ToMeasured(100), 1e-7)
	dep, err := IonByName("[M-H]-")
	require.NoError(t, err)
	assert.InDelta(t, 100-ProtonMass, dep.ToMeasured(100), 1e-7)

	_, err = IonByName("[M+Xx]+")
	assert.True(t, errors.Is(err, ErrUnknownIon))
}

func TestKnownIonModes(t *testing.T) {
	pos := KnownIonModes(1)
	require.Len(t, pos, 3)
	for _, ion := range pos {
		assert.Equal(t, 1, ion.Charge)
	}
	neg := KnownIonModes(-2)
	require.Len(t, neg, 2)
	for _, ion := range neg {
		assert.Equal(t, -1, ion.Charge)
	}
}

func TestPrecursorIonTypeByName(t *testing.T) {
	p, err := PrecursorIonTypeByName("[M+H-H2O]+")
	require.NoError(t, err)
	assert.False(t, p.IsUnknown())
	assert.Equal(t, "[M+H]+", p.Ionization().Name)
	assert.Equal(t, "H2O", p.InSourceLoss().String())
	water := MustFormula("H2O").Mass()
	assert.InDelta(t, 200+ProtonMass-water, p.NeutralToPrecursor(200), 1e-7)
	assert.InDelta(t, 200, p.PrecursorToNeutral(p.NeutralToPrecursor(200)), 1e-9)

	u, err := PrecursorIonTypeByName("[M+?]-")
	require.NoError(t, err)
	assert.True(t, u.IsUnknown())
	assert.Equal(t, -1, u.Charge())

	na, err := PrecursorIonTypeByName("[M+NH4]+")
	require.NoError(t, err)
	assert.Equal(t, "H4N", na.Adduct().String())
	assert.Equal(t, 1, na.Charge())

	dbl, err := PrecursorIonTypeByName("[M+2H]2+")
	require.NoError(t, err)
	assert.Equal(t, 2, dbl.Charge())
	assert.InDelta(t, (200+2*ProtonMass)/2, dbl.NeutralToPrecursor(200), 1e-7)

	for _, bad := range []string{"M+H", "[M+H]", "[M+Qq]+", "[M+H]x"} {
		_, err := PrecursorIonTypeByName(bad)
		assert.True(t, errors.Is(err, ErrUnknownIon), bad)
	}
}

func TestPrecursorIonTypeText(t *testing.T) {
	var p PrecursorIonType
	require.NoError(t, p.UnmarshalText([]byte("[M+Na]+")))
	b, err := p.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "[M+Na]+", string(b))
	assert.True(t, p.Equal(IonTypeFor(ionCatalogue[1])))
}
