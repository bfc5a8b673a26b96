package diagnosis

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/rice-leaf-api/internal/imaging"
	"github.com/Brownie44l1/rice-leaf-api/internal/labels"
	"github.com/Brownie44l1/rice-leaf-api/internal/model"
)

type stubPredictor struct {
	prediction model.Prediction
	err        error
	calls      int
}

func (p *stubPredictor) Predict(t *imaging.Tensor) (model.Prediction, error) {
	p.calls++
	if t == nil {
		return model.Prediction{}, errors.New("nil tensor")
	}
	return p.prediction, p.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func greenPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{0, 180, 0, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDiagnose(t *testing.T) {
	p := &stubPredictor{prediction: model.Prediction{
		Index:         2,
		Confidence:    0.875,
		Probabilities: []float32{0.05, 0.05, 0.875, 0.025},
	}}
	svc := NewService(p, quietLogger())

	d, err := svc.Diagnose(context.Background(), bytes.NewReader(greenPNG(t)), labels.Indonesian)
	require.NoError(t, err)
	assert.Equal(t, "Sehat", d.Bundle.Name)
	assert.Equal(t, "png", d.Format)
	assert.Equal(t, labels.Indonesian, d.Language)
	assert.Equal(t, "87.50%", d.ConfidenceText())
	assert.Equal(t, 1, p.calls)
}

func TestDiagnoseUnreadableImage(t *testing.T) {
	p := &stubPredictor{}
	svc := NewService(p, quietLogger())

	d, err := svc.Diagnose(context.Background(), bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef}), labels.English)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.True(t, errors.Is(err, imaging.ErrDecode))
	assert.Zero(t, p.calls, "no prediction for an unreadable image")
}

func TestDiagnosePredictorFailure(t *testing.T) {
	svc := NewService(&stubPredictor{err: model.ErrArchitecture}, quietLogger())

	d, err := svc.Diagnose(context.Background(), bytes.NewReader(greenPNG(t)), labels.English)
	assert.Nil(t, d)
	assert.True(t, errors.Is(err, model.ErrArchitecture))
}

func TestDiagnoseBadIndex(t *testing.T) {
	svc := NewService(&stubPredictor{prediction: model.Prediction{Index: 9}}, quietLogger())

	_, err := svc.Diagnose(context.Background(), bytes.NewReader(greenPNG(t)), labels.English)
	assert.True(t, errors.Is(err, labels.ErrClassIndex))
}

func TestDiagnoseCanceled(t *testing.T) {
	p := &stubPredictor{}
	svc := NewService(p, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Diagnose(ctx, bytes.NewReader(greenPNG(t)), labels.English)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.calls)
}

func TestInfo(t *testing.T) {
	svc := NewService(&stubPredictor{}, nil)

	bundles, err := svc.Info(labels.English)
	require.NoError(t, err)
	require.Len(t, bundles, labels.NumCategories)
	assert.Equal(t, "bacterial_leaf_blight.jpg", bundles[0].Asset)
	assert.Equal(t, "Leaf Smut", bundles[3].Name)
}

func TestDiagnoseTensor(t *testing.T) {
	p := &stubPredictor{prediction: model.Prediction{Index: 1, Confidence: 0.5, Probabilities: []float32{0.25, 0.5, 0.125, 0.125}}}
	svc := NewService(p, quietLogger())

	tensor, err := imaging.NewTensor(make([]float32, imaging.Channels*imaging.Size*imaging.Size))
	require.NoError(t, err)

	d, err := svc.DiagnoseTensor(context.Background(), tensor, labels.English)
	require.NoError(t, err)
	assert.Equal(t, "Brown Spot", d.Bundle.Name)
	assert.Empty(t, d.Format)
}
