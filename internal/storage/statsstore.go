package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JMTC-dev/CodeSurf/pkg/models"
	"gopkg.in/yaml.v3"
)

// StateDir is the per-workspace directory holding CodeSurf's persisted state.
const StateDir = ".codesurf"

// StatsFile is the on-disk layout of stats.yaml.
type StatsFile struct {
	Version string                 `yaml:"version"`
	Stats   models.CumulativeStats `yaml:"stats"`
}

// StatsStoreManager persists the cumulative statistics as YAML.
type StatsStoreManager interface {
	Load() (models.CumulativeStats, error)
	Save(stats models.CumulativeStats) error
	Path() string
}

type fileStatsStore struct {
	basePath string
}

// NewStatsStoreManager creates a StatsStoreManager writing to
// .codesurf/stats.yaml under basePath.
func NewStatsStoreManager(basePath string) StatsStoreManager {
	return &fileStatsStore{basePath: basePath}
}

func (s *fileStatsStore) Path() string {
	return filepath.Join(s.basePath, StateDir, "stats.yaml")
}

// Load returns the stored stats. A missing file yields the zero value.
func (s *fileStatsStore) Load() (models.CumulativeStats, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return models.CumulativeStats{}, nil
		}
		return models.CumulativeStats{}, fmt.Errorf("loading stats: %w", err)
	}

	var sf StatsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return models.CumulativeStats{}, fmt.Errorf("loading stats: parsing YAML: %w", err)
	}
	return sf.Stats, nil
}

// Save writes the stats through a temporary file so readers never observe a
// partially written document. Writers in different processes (a running
// watch and a CLI reset) are serialized by a lock file next to it.
func (s *fileStatsStore) Save(stats models.CumulativeStats) error {
	dir := filepath.Dir(s.Path())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("saving stats: creating directory: %w", err)
	}
	data, err := yaml.Marshal(&StatsFile{Version: "1.0", Stats: stats})
	if err != nil {
		return fmt.Errorf("saving stats: marshaling YAML: %w", err)
	}

	unlock, err := lockFile(s.Path() + ".lock")
	if err != nil {
		return fmt.Errorf("saving stats: %w", err)
	}
	defer func() { _ = unlock() }()

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("saving stats: writing file: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("saving stats: replacing file: %w", err)
	}
	return nil
}
