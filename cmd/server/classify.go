package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/rice-leaf-api/internal/diagnosis"
	"github.com/Brownie44l1/rice-leaf-api/internal/labels"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("2")).
			Padding(0, 1)
)

func classifyCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "classify <image>",
		Short: "Classify one JPG or PNG leaf photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			language, err := labels.ParseLanguage(lang)
			if err != nil {
				return err
			}

			app, classifier, err := loadApp()
			if err != nil {
				return err
			}
			defer classifier.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()

			d, err := app.Diagnosis.Diagnose(cmd.Context(), f, language)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderDiagnosis(d))
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "en", "result language (en, id)")
	return cmd
}

func renderDiagnosis(d *diagnosis.Diagnosis) string {
	ui, _ := labels.UI(d.Language)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(d.Bundle.Name))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render(ui.Confidence) + " " + d.ConfidenceText())
	sb.WriteString("\n\n")
	sb.WriteString(d.Bundle.Description)
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render(ui.Prevention))
	for _, step := range d.Bundle.Prevention {
		sb.WriteString("\n- " + step)
	}
	return boxStyle.Render(sb.String())
}
