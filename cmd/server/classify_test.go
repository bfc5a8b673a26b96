package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brownie44l1/rice-leaf-api/internal/diagnosis"
	"github.com/Brownie44l1/rice-leaf-api/internal/labels"
	"github.com/Brownie44l1/rice-leaf-api/internal/model"
)

func TestRenderDiagnosis(t *testing.T) {
	bundle, err := labels.Resolve(3, labels.English)
	assert.NoError(t, err)

	out := renderDiagnosis(&diagnosis.Diagnosis{
		Prediction: model.Prediction{Index: 3, Confidence: 0.75},
		Bundle:     bundle,
		Language:   labels.English,
	})
	assert.Contains(t, out, "Leaf Smut")
	assert.Contains(t, out, "75.00%")
	assert.Contains(t, out, "Ensure adequate plant spacing and ventilation.")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["classify"])
	assert.True(t, names["bot"])
}
