package fetch

import (
	"bytes"
	"fmt"
	"image"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decode accepts any format registered with the image package.
// The header is checked against maxPixels before any pixel is allocated.
func Decode(data []byte, maxPixels int64) (image.Image, error) {
	width, height, err := imageDimensions(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if maxPixels > 0 && int64(width)*int64(height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d is over %d pixels", ErrTooLarge, width, height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	return img, nil
}

func imageDimensions(data []byte) (int, int, error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return config.Width, config.Height, nil
}

// Thumbnail scales img to fit inside width x height, keeping the aspect ratio.
func Thumbnail(img image.Image, width, height int) image.Image {
	if width <= 0 || height <= 0 {
		return img
	}

	src := img.Bounds()
	if src.Empty() {
		return img
	}
	scale := math.Min(
		float64(width)/float64(src.Dx()),
		float64(height)/float64(src.Dy()),
	)
	tw := max(1, int(math.Round(float64(src.Dx())*scale)))
	th := max(1, int(math.Round(float64(src.Dy())*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}
