// Package imagex derives thumbnails from uploaded images.
package imagex

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// ErrUnsupportedImage is returned when the payload cannot be decoded or
// re-encoded by any registered codec.
var ErrUnsupportedImage = errors.New("unsupported image")

const jpegQuality = 80

// Thumbnail downscales an encoded image to percent of its original width and
// height and re-encodes it in the source format. Each side is at least 1px.
func Thumbnail(data []byte, percent int) ([]byte, error) {
	if percent <= 0 || percent > 100 {
		return nil, fmt.Errorf("invalid thumbnail percentage %d", percent)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	b := src.Bounds()
	w := max(1, b.Dx()*percent/100)
	h := max(1, b.Dy()*percent/100)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	case "bmp":
		err = bmp.Encode(&buf, dst)
	default:
		return nil, fmt.Errorf("%w: no encoder for %q", ErrUnsupportedImage, format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s thumbnail: %w", format, err)
	}

	return buf.Bytes(), nil
}
