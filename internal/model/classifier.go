// Package model runs the rice leaf classifier.
package model

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/Brownie44l1/rice-leaf-api/internal/imaging"
)

// Classifier wraps a loaded network. It is safe for concurrent use.
type Classifier struct {
	runner   Runner
	Metadata Metadata
}

// NewClassifier wraps an already opened runner.
func NewClassifier(runner Runner, md Metadata) *Classifier {
	return &Classifier{runner: runner, Metadata: md}
}

// Predict runs one forward pass over t and returns the most probable class.
func (c *Classifier) Predict(t *imaging.Tensor) (Prediction, error) {
	if t == nil {
		return Prediction{}, errors.New("nil tensor")
	}

	input, _ := t.Batch()
	scores, err := c.runner.Run(input)
	if err != nil {
		return Prediction{}, err
	}
	if len(scores) != NumClasses {
		return Prediction{}, errors.Wrapf(ErrArchitecture, "model returned %d scores, want %d", len(scores), NumClasses)
	}
	if !finite(scores) {
		return Prediction{}, errors.Errorf("model returned non-finite scores %v", scores)
	}

	probs := Softmax(scores)
	idx, confidence := Argmax(probs)

	return Prediction{
		Index:         idx,
		Confidence:    confidence,
		Probabilities: probs,
	}, nil
}

// Close releases the underlying runner.
func (c *Classifier) Close() error {
	return c.runner.Close()
}

// Opener constructs the runner for a Loader.
type Opener func() (Runner, Metadata, error)

// Loader opens the checkpoint at most once and hands out the same Classifier
// on every call.
type Loader struct {
	open Opener

	once       sync.Once
	classifier *Classifier
	err        error
}

// NewLoader returns a Loader that calls open on first use.
func NewLoader(open Opener) *Loader {
	return &Loader{open: open}
}

// Load returns the shared Classifier. A failed first load is remembered and
// returned on every later call.
func (l *Loader) Load() (*Classifier, error) {
	l.once.Do(func() {
		runner, md, err := l.open()
		if err != nil {
			l.err = errors.Wrap(err, "failed to load classifier")
			return
		}
		l.classifier = NewClassifier(runner, md)
	})
	return l.classifier, l.err
}

// ONNXOpener opens an ONNX session for opts, reading metadataPath first when
// it is set.
func ONNXOpener(opts SessionOptions, metadataPath string) Opener {
	return func() (Runner, Metadata, error) {
		md := DefaultMetadata()
		if metadataPath != "" {
			var err error
			if md, err = LoadMetadata(metadataPath); err != nil {
				return nil, Metadata{}, err
			}
		}
		opts.Metadata = md

		session, err := NewSession(opts)
		if err != nil {
			return nil, Metadata{}, err
		}
		return session, md, nil
	}
}
