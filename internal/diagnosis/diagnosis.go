// Package diagnosis runs the decode, preprocess, classify and resolve steps
// for one leaf photo.
package diagnosis

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/Brownie44l1/rice-leaf-api/internal/imaging"
	"github.com/Brownie44l1/rice-leaf-api/internal/labels"
	"github.com/Brownie44l1/rice-leaf-api/internal/model"
)

// Predictor classifies a preprocessed tensor.
type Predictor interface {
	Predict(t *imaging.Tensor) (model.Prediction, error)
}

// Diagnosis is a resolved prediction for one image.
type Diagnosis struct {
	Prediction model.Prediction
	Bundle     labels.Bundle
	Language   labels.Language
	Format     string
}

// ConfidenceText is the confidence as a percentage string.
func (d *Diagnosis) ConfidenceText() string {
	return labels.FormatConfidence(d.Prediction.Confidence)
}

// Service is safe for concurrent use as long as its Predictor is.
type Service struct {
	predictor Predictor
	logger    *slog.Logger
}

// NewService returns a Service that classifies with p.
func NewService(p Predictor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{predictor: p, logger: logger}
}

// Diagnose classifies the image read from r and resolves the result in lang.
// Nothing is returned unless every step succeeds.
func (s *Service) Diagnose(ctx context.Context, r io.Reader, lang labels.Language) (*Diagnosis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tensor, format, err := imaging.Load(r)
	if err != nil {
		return nil, err
	}

	d, err := s.DiagnoseTensor(ctx, tensor, lang)
	if err != nil {
		return nil, err
	}
	d.Format = format
	return d, nil
}

// DiagnoseTensor classifies an already preprocessed tensor.
func (s *Service) DiagnoseTensor(ctx context.Context, t *imaging.Tensor, lang labels.Language) (*Diagnosis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	prediction, err := s.predictor.Predict(t)
	if err != nil {
		return nil, errors.Wrap(err, "prediction failed")
	}

	bundle, err := labels.Resolve(prediction.Index, lang)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "diagnosed leaf",
		"class", bundle.Key,
		"confidence", prediction.Confidence,
		"language", lang.Code(),
		"duration", time.Since(start))

	return &Diagnosis{
		Prediction: prediction,
		Bundle:     bundle,
		Language:   lang,
	}, nil
}

// Info returns the disease information bundles for lang.
func (s *Service) Info(lang labels.Language) ([]labels.Bundle, error) {
	return labels.All(lang)
}
