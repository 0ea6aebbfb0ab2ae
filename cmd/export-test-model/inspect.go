package main

import (
	"path/filepath"
	"strings"

	cbmodel "github.com/YuminosukeSato/catserve/sklearn/catboost"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type modelSummary struct {
	Path     string            `yaml:"path"`
	Format   string            `yaml:"format"`
	Trees    int               `yaml:"trees"`
	MaxDepth int               `yaml:"max_depth"`
	Scale    float64           `yaml:"scale"`
	Bias     float64           `yaml:"bias"`
	Features []featureSummary  `yaml:"float_features"`
	Info     map[string]string `yaml:"info,omitempty"`
}

type featureSummary struct {
	Index   int  `yaml:"flat_feature_index"`
	Borders int  `yaml:"borders"`
	Used    bool `yaml:"used"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <model>",
		Short: "Print a YAML summary of a model file",
		Long:  `Loads a .cbm or .json model and prints its features, trees and info as YAML.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			format := formatOf(path)
			m, err := cbmodel.LoadModelFromFile(path, format)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(summarize(path, format, m)); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func formatOf(path string) cbmodel.Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return cbmodel.FormatJSON
	}
	return cbmodel.FormatCBM
}

func summarize(path string, format cbmodel.Format, m *cbmodel.Model) modelSummary {
	used := make(map[int]bool)
	maxDepth := 0
	for _, t := range m.Trees {
		maxDepth = max(maxDepth, t.Depth())
		for _, s := range t.Splits {
			used[s.FloatFeatureIndex] = true
		}
	}

	features := make([]featureSummary, len(m.FloatFeatures))
	for i, f := range m.FloatFeatures {
		features[i] = featureSummary{
			Index:   f.FlatFeatureIndex,
			Borders: len(f.Borders),
			Used:    used[i],
		}
	}

	return modelSummary{
		Path:     path,
		Format:   string(format),
		Trees:    m.NumTrees(),
		MaxDepth: maxDepth,
		Scale:    m.Scale,
		Bias:     m.Bias,
		Features: features,
		Info:     m.Info,
	}
}
