package atlas

import (
	"image"
	"image/draw"

	"github.com/joeblew999/tile3d/internal/mesh"
)

// Repack replaces m's shared-atlas UVs with a compact per-tile atlas built
// from src. If m has no UVs this is a no-op (the input mesh and
// nil image are returned unchanged). maxAtlasSize clamps the atlas's
// longest side in pixels.
func Repack(m *mesh.IndexedMesh, src image.Image, maxAtlasSize int) (*mesh.IndexedMesh, image.Image, error) {
	if !m.HasUVs() {
		return m, nil, nil
	}
	islands := DetectIslands(m)
	if len(islands) == 0 {
		return m, nil, nil
	}

	srcW, srcH := src.Bounds().Dx(), src.Bounds().Dy()
	sizes := make([][2]int, len(islands))
	pads := make([]int, len(islands))
	for i, isl := range islands {
		w := pixelSpan(isl.UMax-isl.UMin, srcW)
		h := pixelSpan(isl.VMax-isl.VMin, srcH)
		pad := bleedPad(maxInt(w, h))
		pads[i] = pad
		sizes[i] = [2]int{w + 2*pad, h + 2*pad}
	}

	canvasW, canvasH, rects := guillotine(sizes)
	atlasImg := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	placements := make([]Placement, len(islands))
	for i, r := range rects {
		placements[i] = Placement{Island: i, Rect: r, Pad: pads[i]}
		compositeIsland(atlasImg, src, islands[i], r, pads[i], srcW, srcH)
	}

	out := remapMesh(m, islands, placements, canvasW, canvasH)

	if maxAtlasSize > 0 && (canvasW > maxAtlasSize || canvasH > maxAtlasSize) {
		return out, downsample(atlasImg, maxAtlasSize), nil
	}
	return out, atlasImg, nil
}

// downsample nearest-neighbor-resamples img so its longest side fits max.
// UVs already sample in [0,1] of the atlas, so they stay valid after resize.
func downsample(img *image.RGBA, max int) *image.RGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	scale := float64(max) / float64(maxInt(w, h))
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		sy := int(float64(y) / scale)
		for x := 0; x < nw; x++ {
			sx := int(float64(x) / scale)
			out.Set(x, y, img.At(sx, sy))
		}
	}
	return out
}

func pixelSpan(uvSpan float64, dim int) int {
	px := int(uvSpan*float64(dim) + 0.5)
	if px < 1 {
		px = 1
	}
	return px
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// compositeIsland copies island's source sub-rectangle into atlasImg at
// rect (content region, pad already included in rect's size), then
// replicates edge pixels outward into the pad border and corners.
func compositeIsland(atlasImg draw.Image, src image.Image, isl Island, rect image.Rectangle, pad, srcW, srcH int) {
	content := image.Rect(rect.Min.X+pad, rect.Min.Y+pad, rect.Max.X-pad, rect.Max.Y-pad)
	srcMinX := int(isl.UMin*float64(srcW) + 0.5)
	srcMinY := int(isl.VMin*float64(srcH) + 0.5)
	srcRect := image.Rect(srcMinX, srcMinY, srcMinX+content.Dx(), srcMinY+content.Dy())

	draw.Draw(atlasImg, content, src, srcRect.Min, draw.Src)

	// Edges: replicate the nearest content row/column outward.
	for y := content.Min.Y; y < content.Max.Y; y++ {
		left := atlasImg.At(content.Min.X, y)
		right := atlasImg.At(content.Max.X-1, y)
		for x := rect.Min.X; x < content.Min.X; x++ {
			atlasImg.Set(x, y, left)
		}
		for x := content.Max.X; x < rect.Max.X; x++ {
			atlasImg.Set(x, y, right)
		}
	}
	for x := rect.Min.X; x < rect.Max.X; x++ {
		top := atlasImg.At(x, content.Min.Y)
		bottom := atlasImg.At(x, content.Max.Y-1)
		for y := rect.Min.Y; y < content.Min.Y; y++ {
			atlasImg.Set(x, y, top)
		}
		for y := content.Max.Y; y < rect.Max.Y; y++ {
			atlasImg.Set(x, y, bottom)
		}
	}
}

// remapMesh rebuilds m with one vertex per (original vertex, island) pair
// that appears in that island's triangles, UV-remapped into the packed
// atlas half-texel inset formula.
func remapMesh(m *mesh.IndexedMesh, islands []Island, placements []Placement, atlasW, atlasH int) *mesh.IndexedMesh {
	b := mesh.NewBuilder()
	for i, isl := range islands {
		p := placements[i]
		localRemap := make(map[uint32]uint32, len(isl.Triangles)*3)
		for _, t := range isl.Triangles {
			var idx [3]uint32
			for k, vi := range [3]uint32{m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]} {
				if ni, ok := localRemap[vi]; ok {
					idx[k] = ni
					continue
				}
				v := m.VertexAt(vi)
				v.UV = remapUV(v.UV, isl, p, atlasW, atlasH)
				ni := b.AddVertex(v)
				localRemap[vi] = ni
				idx[k] = ni
			}
			b.AddTriangle(idx[0], idx[1], idx[2])
		}
	}
	return b.Build(m.Material)
}

// remapUV applies the half-texel inset formula: u' = (R.x + pad + 0.5 + (u-Imin)*(R.w-2*pad-1)) / W,
// and analogously for v' using the island's height rather than its width.
func remapUV(uv [2]float64, isl Island, p Placement, atlasW, atlasH int) [2]float64 {
	contentW := p.Rect.Dx() - 2*p.Pad
	contentH := p.Rect.Dy() - 2*p.Pad
	u := (uv[0] - isl.OffsetU) - isl.UMin
	v := (uv[1] - isl.OffsetV) - isl.VMin
	up := (float64(p.Rect.Min.X+p.Pad) + 0.5 + u*float64(contentW-1)) / float64(atlasW)
	vp := (float64(p.Rect.Min.Y+p.Pad) + 0.5 + v*float64(contentH-1)) / float64(atlasH)
	return [2]float64{up, vp}
}
