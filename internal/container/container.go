package container

import (
	"log/slog"

	"github.com/Brownie44l1/rice-leaf-api/internal/diagnosis"
	"github.com/Brownie44l1/rice-leaf-api/internal/labels"
	"github.com/Brownie44l1/rice-leaf-api/internal/storage"
)

// Container holds the services shared by every surface. It is built once at
// startup from an already loaded classifier.
type Container struct {
	Diagnosis *diagnosis.Service
	Languages *storage.MemoryLanguageStore
	Logger    *slog.Logger
}

func New(predictor diagnosis.Predictor, logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}

	return &Container{
		Diagnosis: diagnosis.NewService(predictor, logger.With("component", "diagnosis")),
		Languages: storage.NewMemoryLanguageStore(labels.English),
		Logger:    logger,
	}
}
