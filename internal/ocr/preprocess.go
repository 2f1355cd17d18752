package ocr

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// PreprocessOptions controls cropping and binarization. Crop fractions are
// relative to the image width.
type PreprocessOptions struct {
	CropTop         float64
	CropBottom      float64
	CropSides       float64
	ThresholdBlock  int
	ThresholdOffset float64
}

// DefaultPreprocessOptions returns the settings tuned for phone screenshots.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		CropTop:         0.25,
		CropBottom:      0.10,
		CropSides:       0.15,
		ThresholdBlock:  31,
		ThresholdOffset: 15,
	}
}

// Preprocess crops, grayscales, and binarizes img for OCR.
func Preprocess(img image.Image, opts PreprocessOptions) (*image.Gray, error) {
	if img == nil {
		return nil, errors.New("preprocess: nil image")
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	top := int(float64(w) * opts.CropTop)
	bottom := int(float64(h) - float64(w)*opts.CropBottom)
	left := int(float64(w) * opts.CropSides)
	right := int(float64(w) - float64(w)*opts.CropSides)
	if top >= bottom || left >= right {
		return nil, errors.New("preprocess: crop leaves an empty image")
	}
	rect := image.Rect(bounds.Min.X+left, bounds.Min.Y+top, bounds.Min.X+right, bounds.Min.Y+bottom)

	gray := imaging.Grayscale(imaging.Crop(img, rect))
	if meanIntensity(gray) < 127 {
		gray = imaging.Invert(gray)
	}
	return adaptiveThreshold(gray, opts.ThresholdBlock, opts.ThresholdOffset), nil
}

// meanIntensity averages the red channel of an already-gray image.
func meanIntensity(img *image.NRGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			sum += uint64(row[x])
		}
	}
	return float64(sum) / float64(n)
}

// adaptiveThreshold marks a pixel white when it is brighter than its
// Gaussian-weighted neighbourhood mean minus offset.
func adaptiveThreshold(img *image.NRGBA, block int, offset float64) *image.Gray {
	if block < 3 {
		block = 3
	}
	if block%2 == 0 {
		block++
	}
	// Same sigma OpenCV derives from a kernel size.
	sigma := 0.3*(float64(block-1)*0.5-1) + 0.8
	mean := imaging.Blur(img, sigma)

	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride:]
		avg := mean.Pix[y*mean.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if float64(src[x*4]) > float64(avg[x*4])-offset {
				dst[x] = 0xFF
			}
		}
	}
	return out
}
