package atlas

import "image"

// Placement is where one island's padded rectangle landed in the atlas.
type Placement struct {
	Island int
	Rect   image.Rectangle // includes bleed padding
	Pad    int
}

// bleedPad returns the adaptive bleed width for an island whose largest
// pixel dimension is dim: smaller islands get thinner bleed.
func bleedPad(dim int) int {
	switch {
	case dim <= 100:
		return 2
	case dim <= 200:
		return 4
	default:
		return 5
	}
}

type freeRect struct {
	x, y, w, h int
}

// guillotine packs contentSizes (width,height pairs, content-only, pad not
// yet added) into a power-of-two canvas that grows until everything fits,
// using best-fit-by-shorter-side placement and a guillotine split of the
// chosen free rectangle along its longer residual axis.
func guillotine(sizes [][2]int) (canvasW, canvasH int, rects []image.Rectangle) {
	if len(sizes) == 0 {
		return 0, 0, nil
	}
	canvasW, canvasH = 256, 256
	for {
		if placed, ok := tryPack(sizes, canvasW, canvasH); ok {
			return canvasW, canvasH, placed
		}
		if canvasW <= canvasH {
			canvasW *= 2
		} else {
			canvasH *= 2
		}
	}
}

func tryPack(sizes [][2]int, canvasW, canvasH int) ([]image.Rectangle, bool) {
	free := []freeRect{{0, 0, canvasW, canvasH}}
	out := make([]image.Rectangle, len(sizes))

	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	sortBySizeDesc(order, sizes)

	for _, i := range order {
		w, h := sizes[i][0], sizes[i][1]
		bestIdx := -1
		bestSlack := -1
		for fi, f := range free {
			if f.w < w || f.h < h {
				continue
			}
			slack := shorterSide(f.w-w, f.h-h)
			if bestIdx == -1 || slack < bestSlack {
				bestIdx, bestSlack = fi, slack
			}
		}
		if bestIdx == -1 {
			return nil, false
		}
		f := free[bestIdx]
		out[i] = image.Rect(f.x, f.y, f.x+w, f.y+h)
		free = append(free[:bestIdx], free[bestIdx+1:]...)
		free = append(free, splitFreeRect(f, w, h)...)
	}
	return out, true
}

func shorterSide(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// splitFreeRect guillotine-splits f after placing a w x h rectangle at its
// origin, cutting along f's longer residual axis so the remaining free
// space stays in as few, as large pieces as possible.
func splitFreeRect(f freeRect, w, h int) []freeRect {
	rightW, rightH := f.w-w, f.h
	bottomW, bottomH := f.w, f.h-h
	var out []freeRect
	if rightW <= 0 && bottomH <= 0 {
		return nil
	}
	if f.w-w > f.h-h {
		// split vertically first: right strip spans full height, bottom
		// strip is only as wide as the placed rectangle.
		if rightW > 0 {
			out = append(out, freeRect{f.x + w, f.y, rightW, rightH})
		}
		if bottomH > 0 {
			out = append(out, freeRect{f.x, f.y + h, w, bottomH})
		}
		return out
	}
	if bottomH > 0 {
		out = append(out, freeRect{f.x, f.y + h, bottomW, bottomH})
	}
	if rightW > 0 {
		out = append(out, freeRect{f.x + w, f.y, rightW, h})
	}
	return out
}

func sortBySizeDesc(order []int, sizes [][2]int) {
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && area(sizes[order[j-1]]) < area(sizes[order[j]]) {
			order[j-1], order[j] = order[j], order[j-1]
			j--
		}
	}
}

func area(s [2]int) int { return s[0] * s[1] }
