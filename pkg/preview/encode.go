package preview

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/mockup/pkg/resource"
)

// Fit downscales img to fit maxW x maxH, preserving aspect ratio. Images
// that already fit are returned unchanged.
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || (w <= maxW && h <= maxH) {
		return img
	}
	f := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	dw := max(1, int(math.Round(float64(w)*f)))
	dh := max(1, int(math.Round(float64(h)*f)))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// EncodeJPEG fits img into maxW x maxH and returns it as a JPEG data URI.
func EncodeJPEG(img image.Image, maxW, maxH, quality int) (string, error) {
	var buf bytes.Buffer
	if err := gg.NewContextForImage(Fit(img, maxW, maxH)).EncodeJPEG(&buf, quality); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return resource.EncodeDataURI("image/jpeg", buf.Bytes()), nil
}

// EncodePNG encodes img losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := gg.NewContextForImage(img).EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
