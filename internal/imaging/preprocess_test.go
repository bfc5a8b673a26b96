package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TestPreprocessShapeIsFixed(t *testing.T) {
	sizes := []struct {
		name string
		w, h int
	}{
		{"single pixel", 1, 1},
		{"tiny", 3, 7},
		{"square", 224, 224},
		{"landscape", 800, 600},
		{"portrait", 300, 1200},
		{"wide strip", 1000, 2},
	}
	for _, tc := range sizes {
		t.Run(tc.name, func(t *testing.T) {
			tensor, err := Preprocess(solidImage(tc.w, tc.h, color.RGBA{10, 200, 30, 255}))
			require.NoError(t, err)
			assert.Equal(t, []int{Channels, Size, Size}, tensor.Shape())
			assert.Len(t, tensor.Data(), Channels*Size*Size)
		})
	}
}

func TestPreprocessNormalizesChannels(t *testing.T) {
	tensor, err := Preprocess(solidImage(50, 40, color.RGBA{255, 0, 128, 255}))
	require.NoError(t, err)

	data := tensor.Data()
	plane := Size * Size
	assert.InDelta(t, 1.0, data[0], 1e-6, "red max maps to 1")
	assert.InDelta(t, -1.0, data[plane], 1e-6, "green zero maps to -1")
	assert.InDelta(t, (128.0/255.0-0.5)/0.5, data[2*plane], 1e-6)
	assert.InDelta(t, 1.0, data[plane-1], 1e-6, "last red value")
}

func TestPreprocessRange(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 5), uint8(x + y), 255})
		}
	}
	tensor, err := Preprocess(img)
	require.NoError(t, err)
	for _, v := range tensor.Data() {
		require.GreaterOrEqual(t, v, float32(-1))
		require.LessOrEqual(t, v, float32(1))
	}
}

func TestPreprocessDeterministic(t *testing.T) {
	img := solidImage(120, 90, color.RGBA{30, 160, 40, 255})
	a, err := Preprocess(img)
	require.NoError(t, err)
	b, err := Preprocess(img)
	require.NoError(t, err)
	assert.Equal(t, a.Data(), b.Data())
}

func TestPreprocessRejectsEmpty(t *testing.T) {
	_, err := Preprocess(image.NewRGBA(image.Rect(0, 0, 0, 5)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))

	_, err = Preprocess(nil)
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestDecode(t *testing.T) {
	green := solidImage(32, 16, color.RGBA{0, 255, 0, 255})

	img, format, err := Decode(bytes.NewReader(encodePNG(t, green)))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 32, img.Bounds().Dx())

	img, format, err = Decode(bytes.NewReader(encodeJPEG(t, green)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 16, img.Bounds().Dy())
}

func TestDecodeGarbage(t *testing.T) {
	inputs := map[string][]byte{
		"empty":       {},
		"random":      []byte("definitely not an image \x00\x01\x02"),
		"truncated":   encodePNG(t, solidImage(8, 8, color.White))[:20],
		"png header":  []byte("\x89PNG\r\n\x1a\n"),
		"jpeg header": {0xff, 0xd8, 0xff, 0xe0},
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			img, _, err := Decode(bytes.NewReader(data))
			require.Error(t, err)
			assert.Nil(t, img)
			assert.True(t, errors.Is(err, ErrDecode))
		})
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	image.RegisterFormat("leaftest", "LEAFTEST",
		func(io.Reader) (image.Image, error) { return solidImage(2, 2, color.Black), nil },
		func(io.Reader) (image.Config, error) { return image.Config{Width: 2, Height: 2}, nil },
	)

	_, format, err := Decode(bytes.NewReader([]byte("LEAFTEST....")))
	require.Error(t, err)
	assert.Equal(t, "leaftest", format)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoad(t *testing.T) {
	tensor, format, err := Load(bytes.NewReader(encodeJPEG(t, solidImage(640, 480, color.RGBA{0, 128, 0, 255}))))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, []int{3, 224, 224}, tensor.Shape())
}

func TestTensorBatch(t *testing.T) {
	tensor, err := NewTensor(make([]float32, Channels*Size*Size))
	require.NoError(t, err)

	data, shape := tensor.Batch()
	assert.Equal(t, []int64{1, 3, 224, 224}, shape)
	assert.Len(t, data, 3*224*224)

	_, err = NewTensor(make([]float32, 10))
	assert.Error(t, err)
}
