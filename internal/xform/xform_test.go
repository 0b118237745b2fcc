package xform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joeblew999/tile3d/internal/xform"
)

func TestIdentityLeavesPositionsUnchanged(t *testing.T) {
	pos := []float32{1, 2, 3, 4, 5, 6}
	want := append([]float32{}, pos...)
	xform.ApplyPositions(pos, xform.DefaultConfig())
	assert.Equal(t, want, pos)
}

func TestApplyPositionsScalesAndSwaps(t *testing.T) {
	pos := []float32{1, 2, 3}
	xform.ApplyPositions(pos, xform.Config{Scale: 2, SwapYZ: true})
	assert.Equal(t, float32(2), pos[0])
	assert.Equal(t, float32(6), pos[1]) // swapped: scaled Z becomes Y
	assert.Equal(t, float32(4), pos[2])
}

func TestApplyPositionsTranslates(t *testing.T) {
	pos := []float32{0, 0, 0}
	xform.ApplyPositions(pos, xform.Config{Scale: 1, Translate: [3]float64{10, 20, 30}})
	assert.Equal(t, float32(10), pos[0])
	assert.Equal(t, float32(20), pos[1])
	assert.Equal(t, float32(30), pos[2])
}

func TestENUToECEFTranslationAtEquatorPrimeMeridian(t *testing.T) {
	m := xform.ENUToECEF(0, 0, 0)
	// At lat=0, lon=0, height=0 the ECEF origin should sit on the
	// equator/prime-meridian point, i.e. (a, 0, 0) for semi-major axis a.
	assert.InDelta(t, 6378137.0, m[12], 1.0)
	assert.InDelta(t, 0, m[13], 1.0)
	assert.InDelta(t, 0, m[14], 1.0)
}
