package atlas_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/tile3d/internal/atlas"
	"github.com/joeblew999/tile3d/internal/mesh"
)

func uvQuad(u0, v0, u1, v1 float64) *mesh.Builder {
	b := mesh.NewBuilder()
	v := []uint32{
		b.AddVertex(mesh.Vertex{Position: [3]float64{0, 0, 0}, UV: [2]float64{u0, v0}, HasUV: true}),
		b.AddVertex(mesh.Vertex{Position: [3]float64{1, 0, 0}, UV: [2]float64{u1, v0}, HasUV: true}),
		b.AddVertex(mesh.Vertex{Position: [3]float64{1, 1, 0}, UV: [2]float64{u1, v1}, HasUV: true}),
		b.AddVertex(mesh.Vertex{Position: [3]float64{0, 1, 0}, UV: [2]float64{u0, v1}, HasUV: true}),
	}
	b.AddTriangle(v[0], v[1], v[2])
	b.AddTriangle(v[0], v[2], v[3])
	return b
}

func twoDisjointIslands() *mesh.IndexedMesh {
	// island A: a quad with UVs in [0,0.2]; island B: a quad sharing no 3D
	// geometry, UVs in [0.5,0.7]. Writing both quads' buffers out by hand
	// and concatenating them keeps indices simple.
	posA := []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}
	posB := []float32{5, 0, 0, 6, 0, 0, 6, 1, 0, 5, 1, 0}
	uvA := []float32{0, 0, 0.2, 0, 0.2, 0.2, 0, 0.2}
	uvB := []float32{0.5, 0.5, 0.7, 0.5, 0.7, 0.7, 0.5, 0.7}

	m := &mesh.IndexedMesh{
		Positions: append(append([]float32{}, posA...), posB...),
		UVs:       append(append([]float32{}, uvA...), uvB...),
		Indices:   []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7},
		Material:  -1,
	}
	return m
}

func TestDetectIslandsSeparatesDisjointGeometry(t *testing.T) {
	m := twoDisjointIslands()
	islands := atlas.DetectIslands(m)
	require.Len(t, islands, 2)
	for _, isl := range islands {
		assert.Len(t, isl.Triangles, 2)
	}
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRepackNoUVsIsNoOp(t *testing.T) {
	b := mesh.NewBuilder()
	v0 := b.AddVertex(mesh.Vertex{Position: [3]float64{0, 0, 0}})
	v1 := b.AddVertex(mesh.Vertex{Position: [3]float64{1, 0, 0}})
	v2 := b.AddVertex(mesh.Vertex{Position: [3]float64{0, 1, 0}})
	b.AddTriangle(v0, v1, v2)
	m := b.Build(-1)

	src := solidImage(4, 4, color.RGBA{255, 0, 0, 255})
	out, img, err := atlas.Repack(m, src, 2048)
	require.NoError(t, err)
	assert.Same(t, m, out)
	assert.Nil(t, img)
}

func TestRepackProducesPowerOfTwoAtlasWithinMax(t *testing.T) {
	m := uvQuad(0, 0, 1, 1).Build(-1)
	src := solidImage(64, 64, color.RGBA{0, 255, 0, 255})

	out, img, err := atlas.Repack(m, src, 2048)
	require.NoError(t, err)
	require.NotNil(t, img)
	require.NoError(t, out.Validate())

	b := img.Bounds()
	assert.True(t, isPowerOfTwo(b.Dx()))
	assert.True(t, isPowerOfTwo(b.Dy()))
	assert.LessOrEqual(t, b.Dx(), 2048)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func TestRepackGivesEachIslandItsOwnVertices(t *testing.T) {
	m := twoDisjointIslands()
	src := solidImage(16, 16, color.RGBA{10, 20, 30, 255})

	out, _, err := atlas.Repack(m, src, 2048)
	require.NoError(t, err)
	require.NoError(t, out.Validate())
	// Each island contributes its own 4 remapped vertices; the islands
	// share no vertex, so the output keeps exactly the original 8.
	assert.Equal(t, 8, out.VertexCount())
}
