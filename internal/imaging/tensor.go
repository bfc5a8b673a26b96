package imaging

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

const (
	// Size is the square edge, in pixels, the classifier was trained on.
	Size = 224
	// Channels is the number of color planes in a tensor (R, G, B).
	Channels = 3
	// Mean is subtracted from every [0,1] channel value.
	Mean = 0.5
	// Std divides every mean-centered channel value.
	Std = 0.5
)

// Tensor is a preprocessed image in CHW layout with values in [-1,1].
type Tensor struct {
	dense *tensor.Dense
}

// NewTensor wraps CHW float data of exactly Channels*Size*Size values.
func NewTensor(data []float32) (*Tensor, error) {
	if len(data) != Channels*Size*Size {
		return nil, errors.Errorf("tensor needs %d values, got %d", Channels*Size*Size, len(data))
	}
	return &Tensor{
		dense: tensor.New(tensor.WithShape(Channels, Size, Size), tensor.WithBacking(data)),
	}, nil
}

// Shape returns the tensor shape, always (3, 224, 224).
func (t *Tensor) Shape() []int {
	return t.dense.Shape().Clone()
}

// Data returns the backing values. Callers must not modify them.
func (t *Tensor) Data() []float32 {
	return t.dense.Data().([]float32)
}

// Batch returns the backing values with the leading batch dimension of size 1
// the runtime expects.
func (t *Tensor) Batch() ([]float32, []int64) {
	shape := t.dense.Shape()
	batched := make([]int64, 0, len(shape)+1)
	batched = append(batched, 1)
	for _, d := range shape {
		batched = append(batched, int64(d))
	}
	return t.Data(), batched
}
