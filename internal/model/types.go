package model

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// NumClasses is the width of the classification head.
const NumClasses = 4

// Metadata describes the exported network. It is read from the JSON file that
// ships next to the ONNX checkpoint; every field is optional.
type Metadata struct {
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// DefaultMetadata matches the resnet18 export with a 4-way head.
func DefaultMetadata() Metadata {
	return Metadata{
		InputShape:  []int64{1, 3, 224, 224},
		OutputShape: []int64{1, NumClasses},
		Classes:     []string{"Bacterial leaf blight", "Brown spot", "Healthy", "Leaf smut"},
		ImageSize:   224,
	}
}

// LoadMetadata reads path and fills unset fields from DefaultMetadata.
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, errors.Wrap(err, "failed to read metadata")
	}

	var md Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return Metadata{}, errors.Wrap(err, "failed to parse metadata")
	}

	def := DefaultMetadata()
	if len(md.InputShape) == 0 {
		md.InputShape = def.InputShape
	}
	if len(md.OutputShape) == 0 {
		md.OutputShape = def.OutputShape
	}
	if len(md.Classes) == 0 {
		md.Classes = def.Classes
	}
	if md.ImageSize == 0 {
		md.ImageSize = def.ImageSize
	}

	return md, md.Validate()
}

// Validate checks the metadata against the fixed 4-class, 224px contract.
func (m Metadata) Validate() error {
	if len(m.Classes) != NumClasses {
		return errors.Wrapf(ErrArchitecture, "metadata lists %d classes, want %d", len(m.Classes), NumClasses)
	}
	if m.ImageSize != 224 {
		return errors.Wrapf(ErrArchitecture, "metadata image size %d, want 224", m.ImageSize)
	}
	if n := len(m.OutputShape); n == 0 || m.OutputShape[n-1] != NumClasses {
		return errors.Wrapf(ErrArchitecture, "metadata output shape %v does not end in %d", m.OutputShape, NumClasses)
	}
	return nil
}

// Prediction is the outcome of one forward pass.
type Prediction struct {
	// Index is the position of the most probable class.
	Index int `json:"class_index"`
	// Confidence is the probability at Index.
	Confidence float32 `json:"confidence"`
	// Probabilities is the softmax distribution over all classes.
	Probabilities []float32 `json:"probabilities"`
}
