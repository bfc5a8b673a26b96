package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

func info(name string, dims ...int64) ort.InputOutputInfo {
	return ort.InputOutputInfo{
		Name:       name,
		Dimensions: ort.NewShape(dims...),
		DataType:   ort.TensorElementDataTypeFloat,
	}
}

func TestNewSessionMissingCheckpoint(t *testing.T) {
	_, err := NewSession(SessionOptions{
		ModelPath: filepath.Join(t.TempDir(), "resnet18_best.onnx"),
		Metadata:  DefaultMetadata(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelNotFound))
}

func TestONNXOpenerBadMetadata(t *testing.T) {
	dir := t.TempDir()
	mdPath := filepath.Join(dir, "model_metadata.json")
	require.NoError(t, os.WriteFile(mdPath, []byte(`{"classes":["a","b"]}`), 0o644))

	_, _, err := ONNXOpener(SessionOptions{ModelPath: filepath.Join(dir, "m.onnx")}, mdPath)()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArchitecture))
}

func TestResolveSignature(t *testing.T) {
	tests := []struct {
		name    string
		md      Metadata
		inputs  []ort.InputOutputInfo
		outputs []ort.InputOutputInfo
		wantErr bool
	}{
		{
			name:    "single io, unnamed",
			inputs:  []ort.InputOutputInfo{info("input", 1, 3, 224, 224)},
			outputs: []ort.InputOutputInfo{info("output", 1, 4)},
		},
		{
			name:    "dynamic batch",
			inputs:  []ort.InputOutputInfo{info("input", -1, 3, 224, 224)},
			outputs: []ort.InputOutputInfo{info("output", -1, 4)},
		},
		{
			name:    "named among several",
			md:      Metadata{InputName: "pixels", OutputName: "logits"},
			inputs:  []ort.InputOutputInfo{info("mask", 1, 1), info("pixels", 1, 3, 224, 224)},
			outputs: []ort.InputOutputInfo{info("features", 1, 512), info("logits", 1, 4)},
		},
		{
			name:    "imagenet head",
			inputs:  []ort.InputOutputInfo{info("input", 1, 3, 224, 224)},
			outputs: []ort.InputOutputInfo{info("output", 1, 1000)},
			wantErr: true,
		},
		{
			name:    "wrong resolution",
			inputs:  []ort.InputOutputInfo{info("input", 1, 3, 640, 640)},
			outputs: []ort.InputOutputInfo{info("output", 1, 4)},
			wantErr: true,
		},
		{
			name:    "dynamic spatial",
			inputs:  []ort.InputOutputInfo{info("input", 1, 3, -1, -1)},
			outputs: []ort.InputOutputInfo{info("output", 1, 4)},
			wantErr: true,
		},
		{
			name:    "missing name",
			md:      Metadata{InputName: "images"},
			inputs:  []ort.InputOutputInfo{info("input", 1, 3, 224, 224)},
			outputs: []ort.InputOutputInfo{info("output", 1, 4)},
			wantErr: true,
		},
		{
			name:    "ambiguous outputs",
			inputs:  []ort.InputOutputInfo{info("input", 1, 3, 224, 224)},
			outputs: []ort.InputOutputInfo{info("a", 1, 4), info("b", 1, 4)},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := resolveSignature(tc.md, tc.inputs, tc.outputs)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrArchitecture))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestResolveSignatureRejectsNonFloat(t *testing.T) {
	in := info("input", 1, 3, 224, 224)
	in.DataType = ort.TensorElementDataTypeUint8
	_, _, err := resolveSignature(Metadata{}, []ort.InputOutputInfo{in}, []ort.InputOutputInfo{info("output", 1, 4)})
	assert.True(t, errors.Is(err, ErrArchitecture))
}

func TestConcreteShape(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 224, 224}, concreteShape(ort.NewShape(-1, 3, 224, 224)))
	assert.Equal(t, []int64{1, 4}, concreteShape(ort.NewShape(1, 4)))
}
