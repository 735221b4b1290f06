package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed pipeline.yaml
var defaultPipelineData []byte

type FBrefSettings struct {
	BaseURL           string `yaml:"base_url"`
	SchedulePath      string `yaml:"schedule_path"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	MaxRetries        int    `yaml:"max_retries"`
	TimeoutSec        int    `yaml:"timeout_sec"`
	UserAgent         string `yaml:"user_agent"`
}

func (f FBrefSettings) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

type AggregateSettings struct {
	Workers int `yaml:"workers"`
}

type AttributionSettings struct {
	TestFraction float64 `yaml:"test_fraction"`
	Seed         uint64  `yaml:"seed"`
}

type RankingSettings struct {
	Top map[string]int `yaml:"top"`
}

type Pipeline struct {
	Team        string              `yaml:"team"`
	League      string              `yaml:"league"`
	Season      string              `yaml:"season"`
	FBref       FBrefSettings       `yaml:"fbref"`
	Aggregate   AggregateSettings   `yaml:"aggregate"`
	Attribution AttributionSettings `yaml:"attribution"`
	Ranking     RankingSettings     `yaml:"ranking"`
}

// DefaultPipeline returns the embedded pipeline settings.
func DefaultPipeline() Pipeline {
	var p Pipeline
	if err := yaml.Unmarshal(defaultPipelineData, &p); err != nil {
		panic(fmt.Sprintf("embedded pipeline.yaml: %v", err))
	}
	return p
}

// LoadPipeline reads path over the embedded defaults. Keys missing from
// the file keep their default values. An empty path returns the defaults.
func LoadPipeline(path string) (Pipeline, error) {
	p := DefaultPipeline()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pipeline{}, fmt.Errorf("parse pipeline config: %w", err)
	}
	if err := p.validate(); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

func (p Pipeline) validate() error {
	if p.Team == "" {
		return fmt.Errorf("pipeline config: team is required")
	}
	if p.Aggregate.Workers < 1 {
		return fmt.Errorf("pipeline config: aggregate.workers must be >= 1, got %d", p.Aggregate.Workers)
	}
	if p.Attribution.TestFraction < 0 || p.Attribution.TestFraction >= 1 {
		return fmt.Errorf("pipeline config: attribution.test_fraction must be in [0,1), got %g", p.Attribution.TestFraction)
	}
	if p.FBref.RequestsPerMinute < 1 {
		return fmt.Errorf("pipeline config: fbref.requests_per_minute must be >= 1, got %d", p.FBref.RequestsPerMinute)
	}
	return nil
}

// TopN returns how many ranked players to show for a stored stat name.
func (r RankingSettings) TopN(statName string) int {
	if n, ok := r.Top[statName]; ok && n > 0 {
		return n
	}
	return 3
}
