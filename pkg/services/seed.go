package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedSpec describes one stored spec to create.
type SeedSpec struct {
	File string `json:"file" yaml:"file"`
	Name string `json:"name" yaml:"name"`
	// Active defaults to true when omitted.
	Active *bool `json:"active,omitempty" yaml:"active,omitempty"`
}

// SeedConfig lists the specs to import in one run.
type SeedConfig struct {
	Specs []SeedSpec `json:"specs" yaml:"specs"`
}

// LoadSeedConfig reads a seed file. Files ending in .json are decoded as JSON,
// everything else as YAML. Relative spec paths resolve against the seed file's directory.
func LoadSeedConfig(path string) (*SeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var cfg SeedConfig
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	base := filepath.Dir(path)
	for i := range cfg.Specs {
		if cfg.Specs[i].File != "" && !filepath.IsAbs(cfg.Specs[i].File) {
			cfg.Specs[i].File = filepath.Join(base, cfg.Specs[i].File)
		}
	}
	return &cfg, nil
}

// Seed imports every spec of cfg and applies its active flag.
// A failing entry is reported and does not stop the others.
func (s *SpecStoreService) Seed(ctx context.Context, cfg *SeedConfig) []ImportResult {
	results := make([]ImportResult, 0, len(cfg.Specs))
	for _, entry := range cfg.Specs {
		res := ImportResult{File: entry.File, Name: entry.Name}
		spec, err := s.ImportFile(ctx, entry.File, entry.Name)
		if err == nil {
			res.Name = spec.Name
			if entry.Active != nil && !*entry.Active {
				err = s.Deactivate(ctx, spec.Name)
			}
		}
		if err != nil {
			s.logger.Warn("Failed to seed spec", zap.String("file", entry.File), zap.Error(err))
			res.Err = err
		}
		results = append(results, res)
	}
	return results
}
