package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dd0wney/cluso-kg/pkg/clustereval"
	"github.com/dd0wney/cluso-kg/pkg/config"
	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/source"
)

// Inputs is everything a run consumes. SubIndustryLabels align with Themes;
// IndustryLabels align with the SubIndustry rows, which are ordered by label. Evals may be
// empty.
type Inputs struct {
	Themes            []source.Theme
	SubIndustryLabels []graph.ClusterLabel
	IndustryLabels    []graph.ClusterLabel
	Evals             []clustereval.ClustersEval
}

// LoadInputs reads the files named by cfg.
func LoadInputs(cfg config.InputsConfig) (Inputs, error) {
	var in Inputs
	var err error

	if in.Themes, err = source.ReadFile(cfg.Themes); err != nil {
		return Inputs{}, err
	}
	if in.SubIndustryLabels, err = ReadLabels(cfg.SubIndustryLabels); err != nil {
		return Inputs{}, err
	}
	if in.IndustryLabels, err = ReadLabels(cfg.IndustryLabels); err != nil {
		return Inputs{}, err
	}
	for _, e := range []struct {
		level clustereval.Level
		path  string
	}{
		{clustereval.LevelSubIndustry, cfg.SubIndustryEval},
		{clustereval.LevelIndustry, cfg.IndustryEval},
	} {
		if e.path == "" {
			continue
		}
		eval, err := clustereval.ReadFile(e.level, e.path)
		if err != nil {
			return Inputs{}, err
		}
		in.Evals = append(in.Evals, eval)
	}
	return in, nil
}

// ReadLabels reads a JSON array of integer cluster labels.
func ReadLabels(path string) ([]graph.ClusterLabel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var labels []graph.ClusterLabel
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("%s: labels must be a JSON array of integers: %w", path, err)
	}
	return labels, nil
}
