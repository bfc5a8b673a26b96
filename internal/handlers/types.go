package handlers

import (
	"html/template"

	"github.com/Brownie44l1/rice-leaf-api/internal/diagnosis"
	"github.com/Brownie44l1/rice-leaf-api/internal/labels"
	"github.com/Brownie44l1/rice-leaf-api/internal/model"
)

// TensorRequest carries preprocessed CHW values.
type TensorRequest struct {
	Image    []float32 `json:"image"`
	Language string    `json:"language"`
}

type PredictionResponse struct {
	ClassIndex     int                `json:"class_index"`
	Class          string             `json:"class"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Prevention     []string           `json:"prevention"`
	Confidence     float32            `json:"confidence"`
	ConfidenceText string             `json:"confidence_text"`
	Language       string             `json:"language"`
	Predictions    map[string]float32 `json:"predictions"`
}

func newPredictionResponse(d *diagnosis.Diagnosis) PredictionResponse {
	predictions := make(map[string]float32, model.NumClasses)
	for i, p := range d.Prediction.Probabilities {
		if i < labels.NumCategories {
			predictions[labels.Category(i).Key()] = p
		}
	}

	return PredictionResponse{
		ClassIndex:     d.Prediction.Index,
		Class:          d.Bundle.Key,
		Name:           d.Bundle.Name,
		Description:    d.Bundle.Description,
		Prevention:     d.Bundle.Prevention,
		Confidence:     d.Prediction.Confidence,
		ConfidenceText: d.ConfidenceText(),
		Language:       d.Language.Code(),
		Predictions:    predictions,
	}
}

type langOption struct {
	Code     string
	Label    string
	Selected bool
}

type resultView struct {
	Name       string
	Confidence string
	ImageURI   template.URL
}

type diseaseView struct {
	labels.Bundle
	ImageMissing bool
}

type pageData struct {
	PageTitle string
	Path      string
	Lang      labels.Language
	UI        labels.Strings
	Languages []langOption
	Error     string
	Result    *resultView
	Diseases  []diseaseView
}

func (h *Handler) newPage(lang labels.Language, path string) (*pageData, error) {
	ui, err := labels.UI(lang)
	if err != nil {
		return nil, err
	}

	options := make([]langOption, 0, 2)
	for _, l := range labels.Languages() {
		options = append(options, langOption{Code: l.Code(), Label: l.String(), Selected: l == lang})
	}

	return &pageData{
		PageTitle: ui.Title,
		Path:      path,
		Lang:      lang,
		UI:        ui,
		Languages: options,
	}, nil
}
