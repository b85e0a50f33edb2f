// Package config loads and validates the pipeline's typed configuration
// object, following the same JSON-file-with-defaults pattern the rest of
// the Go ecosystem tooling in this codebase's lineage uses.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// Config is the single typed configuration record described in the
// external-interfaces section of the design: every threshold the pipeline
// reads on its hot path lives here as a field, never behind a string-keyed
// lookup.
type Config struct {
	ZScoreWarning             float64  `json:"z_score_warning" validate:"gt=0"`
	ZScoreCritical            float64  `json:"z_score_critical" validate:"gtfield=ZScoreWarning"`
	TrendSignificance         float64  `json:"trend_significance" validate:"gt=0,lt=1"`
	VariationThresholdPercent float64  `json:"variation_threshold_percent" validate:"gte=0"`
	SurgeAlarming             float64  `json:"surge_alarming" validate:"gt=0"`
	SurgeCritical             float64  `json:"surge_critical" validate:"gtfield=SurgeAlarming"`
	WidespreadRegionCount     int      `json:"widespread_region_count" validate:"gt=0"`
	BaselineWindows           []int    `json:"baseline_windows" validate:"min=1,dive,gt=0"`
	ConnectionPoolSize        int      `json:"connection_pool_size" validate:"gt=0"`
	Dimensions                []string `json:"dimensions" validate:"min=1,dive,required"`

	// DatabasePath is the SQLite file the Store opens; not part of the
	// design's threshold table but required to locate the store on disk.
	DatabasePath string `json:"database_path" validate:"required"`
	// BaselineDir holds the per-dimension baseline artifact files Baseline
	// writes and Anomaly reads.
	BaselineDir string `json:"baseline_dir" validate:"required"`
	// TrendPlotDir holds rendered PNG trend charts.
	TrendPlotDir string `json:"trendplot_dir"`
	// MetricsAddr, when non-empty, is the listen address for the
	// Prometheus /metrics endpoint.
	MetricsAddr string `json:"metrics_addr"`
}

func DefaultConfig() Config {
	return Config{
		ZScoreWarning:             2.0,
		ZScoreCritical:            3.0,
		TrendSignificance:         0.05,
		VariationThresholdPercent: 15.0,
		SurgeAlarming:             20.0,
		SurgeCritical:             50.0,
		WidespreadRegionCount:     3,
		BaselineWindows:           []int{7, 14, 30},
		ConnectionPoolSize:        5,
		Dimensions:                []string{"Type", "Region", "Exchange", "City", "RCA"},
		DatabasePath:              filepath.Join(ConfigDir(), "complaints.db"),
		BaselineDir:               filepath.Join(ConfigDir(), "baselines"),
		TrendPlotDir:              filepath.Join(ConfigDir(), "trendplots"),
	}
}

func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "complaintpipe")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "complaintpipe")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg = normalize(cfg)
	if err := Validate(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config: invalid %s: %w", path, err)
	}
	return cfg, nil
}

func normalize(cfg Config) Config {
	if cfg.ZScoreWarning <= 0 {
		cfg.ZScoreWarning = 2.0
	}
	if cfg.ZScoreCritical <= cfg.ZScoreWarning {
		cfg.ZScoreCritical = 3.0
	}
	if cfg.TrendSignificance <= 0 {
		cfg.TrendSignificance = 0.05
	}
	if cfg.ConnectionPoolSize <= 0 {
		cfg.ConnectionPoolSize = 5
	}
	if len(cfg.BaselineWindows) == 0 {
		cfg.BaselineWindows = []int{7, 14, 30}
	} else {
		cfg.BaselineWindows = lo.Uniq(cfg.BaselineWindows)
	}
	if len(cfg.Dimensions) == 0 {
		cfg.Dimensions = []string{"Type", "Region", "Exchange", "City", "RCA"}
	} else {
		cfg.Dimensions = lo.Uniq(lo.Filter(cfg.Dimensions, func(d string, _ int) bool { return d != "" }))
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = DefaultConfig().DatabasePath
	}
	if cfg.BaselineDir == "" {
		cfg.BaselineDir = DefaultConfig().BaselineDir
	}
	return cfg
}

var validatorInstance = validator.New()

// Validate runs struct-tag validation over a loaded Config, catching
// malformed threshold values before any stage runs instead of failing
// lazily mid-pipeline.
func Validate(cfg Config) error {
	return validatorInstance.Struct(cfg)
}

var saveMu sync.Mutex

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	saveMu.Lock()
	defer saveMu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: creating dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing: %w", err)
	}
	return nil
}
