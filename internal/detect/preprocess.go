package detect

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// PreprocessOptions tune the mask-building pipeline. Zero values fall back
// to defaults that match typical scanned blueprints.
type PreprocessOptions struct {
	// BlurSigma is the Gaussian smoothing strength applied before
	// thresholding to suppress scan noise.
	BlurSigma float64

	// ThresholdWindow is the side of the square neighborhood used by the
	// adaptive threshold. Must be odd.
	ThresholdWindow int

	// ThresholdBias is subtracted from the local mean: a pixel becomes
	// foreground when it is darker than mean - bias.
	ThresholdBias int

	// ClosingIterations is how many dilate/erode rounds bridge small gaps
	// in wall lines caused by scan artifacts.
	ClosingIterations int
}

func (o PreprocessOptions) withDefaults() PreprocessOptions {
	out := o
	if out.BlurSigma <= 0 {
		out.BlurSigma = 1.0
	}
	if out.ThresholdWindow <= 0 {
		out.ThresholdWindow = 11
	}
	if out.ThresholdWindow%2 == 0 {
		out.ThresholdWindow++
	}
	if out.ThresholdBias <= 0 {
		out.ThresholdBias = 2
	}
	if out.ClosingIterations <= 0 {
		out.ClosingIterations = 2
	}
	return out
}

// Preprocess converts a decoded floor plan into a binary mask with wall ink
// as foreground. The pipeline is fixed: grayscale, Gaussian blur, adaptive
// threshold, morphological closing. It keeps no state between calls and is
// safe to run concurrently on independent images.
func Preprocess(img image.Image, opts PreprocessOptions) *BinaryMask {
	opts = opts.withDefaults()

	gray := imaging.Grayscale(img)
	blurred := imaging.Blur(gray, opts.BlurSigma)

	bounds := blurred.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	intensity := make([]int, width*height)
	for y := 0; y < height; y++ {
		row := blurred.Pix[y*blurred.Stride:]
		for x := 0; x < width; x++ {
			// Grayscale NRGBA: R, G and B carry the same value.
			intensity[y*width+x] = int(row[x*4])
		}
	}

	binary := adaptiveThreshold(intensity, width, height, opts.ThresholdWindow, opts.ThresholdBias)
	closed := closeGaps(binary, opts.ClosingIterations)

	mask := NewBinaryMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := closed.At(x, y).RGBA()
			mask.Set(x, y, r>>8 > 127)
		}
	}
	return mask
}

// adaptiveThreshold binarizes against a locally computed mean so uneven
// lighting across a scan does not split walls. Foreground is ink: darker
// than the local mean by more than the bias. Uses a summed-area table for
// O(1) window means.
func adaptiveThreshold(intensity []int, width, height, window, bias int) *image.Gray {
	integral := make([]int64, (width+1)*(height+1))
	stride := width + 1
	for y := 0; y < height; y++ {
		var rowSum int64
		for x := 0; x < width; x++ {
			rowSum += int64(intensity[y*width+x])
			integral[(y+1)*stride+(x+1)] = integral[y*stride+(x+1)] + rowSum
		}
	}

	half := window / 2
	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		y0 := max(0, y-half)
		y1 := min(height-1, y+half)
		for x := 0; x < width; x++ {
			x0 := max(0, x-half)
			x1 := min(width-1, x+half)

			sum := integral[(y1+1)*stride+(x1+1)] -
				integral[y0*stride+(x1+1)] -
				integral[(y1+1)*stride+x0] +
				integral[y0*stride+x0]
			count := int64((y1 - y0 + 1) * (x1 - x0 + 1))
			mean := sum / count

			if int64(intensity[y*width+x]) < mean-int64(bias) {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// closeGaps runs a morphological closing pass: dilate the wall ink for the
// given number of iterations, then erode it back. Gaps narrower than the
// accumulated structuring element get bridged; wall geometry elsewhere is
// restored.
func closeGaps(binary image.Image, iterations int) image.Image {
	out := binary
	for i := 0; i < iterations; i++ {
		out = effect.Dilate(out, 1)
	}
	for i := 0; i < iterations; i++ {
		out = effect.Erode(out, 1)
	}
	return out
}
