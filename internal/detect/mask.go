package detect

// BinaryMask is a single-channel binary raster. Foreground (1) marks wall
// ink; background (0) is open floor space. Coordinates are (x, y) with the
// origin at the top-left corner.
type BinaryMask struct {
	Width  int
	Height int
	pix    []uint8
}

func NewBinaryMask(width, height int) *BinaryMask {
	return &BinaryMask{
		Width:  width,
		Height: height,
		pix:    make([]uint8, width*height),
	}
}

// At reports whether (x, y) is foreground. Out-of-bounds coordinates are
// background, which keeps boundary tracing free of explicit bounds checks.
func (m *BinaryMask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.pix[y*m.Width+x] != 0
}

func (m *BinaryMask) Set(x, y int, foreground bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	if foreground {
		m.pix[y*m.Width+x] = 1
	} else {
		m.pix[y*m.Width+x] = 0
	}
}
