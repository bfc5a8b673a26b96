// Package imaging turns uploaded leaf photos into classifier input tensors.
package imaging

import (
	"bufio"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

var (
	// ErrDecode is returned when the input bytes are not a readable image.
	ErrDecode = errors.New("image could not be decoded")
	// ErrUnsupportedFormat is returned for decodable formats other than JPEG and PNG.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

var supportedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
}

// Decode reads a JPEG or PNG image and reports its format name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", errors.Wrapf(ErrDecode, "%v", err)
	}
	if !supportedFormats[format] {
		return nil, format, errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, format, errors.Wrapf(ErrDecode, "empty image %dx%d", b.Dx(), b.Dy())
	}
	return img, format, nil
}

// Preprocess resizes img to Size×Size with bilinear interpolation, ignoring its
// aspect ratio, and normalizes every channel to (v/255 - Mean) / Std.
func Preprocess(img image.Image) (*Tensor, error) {
	if img == nil {
		return nil, errors.Wrap(ErrDecode, "nil image")
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, errors.Wrapf(ErrDecode, "empty image %dx%d", b.Dx(), b.Dy())
	}

	resized := resize.Resize(Size, Size, img, resize.Bilinear)
	rb := resized.Bounds()

	channelSize := Size * Size
	data := make([]float32, Channels*channelSize)
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	i := 0
	for y := rb.Min.Y; y < rb.Min.Y+Size; y++ {
		for x := rb.Min.X; x < rb.Min.X+Size; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			red[i] = normalize(r)
			green[i] = normalize(g)
			blue[i] = normalize(b)
			i++
		}
	}

	return NewTensor(data)
}

// normalize maps a 16-bit color channel to [-1,1].
func normalize(v uint32) float32 {
	return (float32(v>>8)/255.0 - Mean) / Std
}

// Load decodes and preprocesses in one step.
func Load(r io.Reader) (*Tensor, string, error) {
	img, format, err := Decode(r)
	if err != nil {
		return nil, format, err
	}
	t, err := Preprocess(img)
	if err != nil {
		return nil, format, err
	}
	return t, format, nil
}
