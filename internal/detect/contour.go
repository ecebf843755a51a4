package detect

import "github.com/planlens/roomscan/internal/core/domain"

// Neighbor ring in clockwise order starting west, for screen coordinates
// with y growing downward.
var mooreRing = [8][2]int{
	{-1, 0},  // W
	{-1, -1}, // NW
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
}

// findRoomContours returns the closed wall-side boundary of every background
// region fully enclosed by foreground ink, in row-major discovery order.
// Nested regions (a closet inside a bedroom) trace as separate contours; no
// containment hierarchy is kept. Background connected to the image border is
// open space outside the building envelope and is never a room.
func findRoomContours(mask *BinaryMask) [][]domain.Point {
	w, h := mask.Width, mask.Height
	if w == 0 || h == 0 {
		return nil
	}

	regionOf := make([]int32, w*h)
	for i := range regionOf {
		regionOf[i] = -1
	}

	stack := make([]int, 0, w+h)
	var fillRegion int32
	push := func(x, y int) {
		if x < 0 || y < 0 || x >= w || y >= h {
			return
		}
		idx := y*w + x
		if regionOf[idx] != -1 || mask.pix[idx] != 0 {
			return
		}
		regionOf[idx] = fillRegion
		stack = append(stack, idx)
	}
	flood := func() {
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%w, idx/w
			push(x-1, y)
			push(x+1, y)
			push(x, y-1)
			push(x, y+1)
		}
	}

	// Region 0 is the outside: everything reachable from the border.
	fillRegion = 0
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}
	flood()

	var contours [][]domain.Point
	next := int32(1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if regionOf[idx] != -1 || mask.pix[idx] != 0 {
				continue
			}
			fillRegion = next
			push(x, y)
			flood()

			// The traced boundary is the ring of pixels one step out from
			// the region, which for a walled room is the inner edge of the
			// wall ink. Its topmost-leftmost member sits diagonally up-left
			// of the region's first scan hit.
			contour := traceBoundary(domain.Point{X: x - 1, Y: y - 1}, func(px, py int) bool {
				return touchesRegion(regionOf, w, h, px, py, next)
			})
			contours = append(contours, contour)
			next++
		}
	}
	return contours
}

// touchesRegion reports membership in the dilated region: the pixel itself or
// any of its eight neighbors belongs to region id.
func touchesRegion(regionOf []int32, w, h int, x, y int, id int32) bool {
	if x >= 0 && y >= 0 && x < w && y < h && regionOf[y*w+x] == id {
		return true
	}
	for _, d := range mooreRing {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || ny < 0 || nx >= w || ny >= h {
			continue
		}
		if regionOf[ny*w+nx] == id {
			return true
		}
	}
	return false
}

// traceBoundary walks the outer boundary of the shape described by inside
// using Moore-neighbor tracing. start must be the topmost-leftmost member
// pixel. Termination follows Jacob's criterion: the walk stops when it
// re-enters the start pixel with the same backtrack configuration it began
// with, so one-pixel-wide spurs are traversed on both sides instead of
// cutting the contour short.
func traceBoundary(start domain.Point, inside func(x, y int) bool) []domain.Point {
	contour := []domain.Point{start}

	// start is topmost-leftmost, so its west neighbor is always outside.
	b0 := domain.Point{X: start.X - 1, Y: start.Y}
	b, c := b0, start

	// A closed boundary visits each pixel at most twice (once per side).
	const hardCap = 1 << 22
	for step := 0; step < hardCap; step++ {
		i := ringIndex(b.X-c.X, b.Y-c.Y)
		found := false
		var n, nb domain.Point
		for k := 1; k <= 8; k++ {
			j := (i + k) % 8
			cand := domain.Point{X: c.X + mooreRing[j][0], Y: c.Y + mooreRing[j][1]}
			if inside(cand.X, cand.Y) {
				pj := (i + k - 1 + 8) % 8
				n = cand
				nb = domain.Point{X: c.X + mooreRing[pj][0], Y: c.Y + mooreRing[pj][1]}
				found = true
				break
			}
		}
		if !found {
			// Isolated single pixel.
			return contour
		}
		b, c = nb, n
		if c == start && b == b0 {
			return contour
		}
		contour = append(contour, c)
	}
	return contour
}

func ringIndex(dx, dy int) int {
	for i, d := range mooreRing {
		if d[0] == dx && d[1] == dy {
			return i
		}
	}
	return 0
}
