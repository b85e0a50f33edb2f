package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ZScoreWarning != 2.0 {
		t.Errorf("default z_score_warning = %f, want 2.0", cfg.ZScoreWarning)
	}
	if cfg.ZScoreCritical != 3.0 {
		t.Errorf("default z_score_critical = %f, want 3.0", cfg.ZScoreCritical)
	}
	if cfg.TrendSignificance != 0.05 {
		t.Errorf("default trend_significance = %f, want 0.05", cfg.TrendSignificance)
	}
	if cfg.VariationThresholdPercent != 15.0 {
		t.Errorf("default variation_threshold_percent = %f, want 15.0", cfg.VariationThresholdPercent)
	}
	if cfg.SurgeAlarming != 20.0 || cfg.SurgeCritical != 50.0 {
		t.Errorf("default surge thresholds = %f/%f, want 20.0/50.0", cfg.SurgeAlarming, cfg.SurgeCritical)
	}
	if cfg.WidespreadRegionCount != 3 {
		t.Errorf("default widespread_region_count = %d, want 3", cfg.WidespreadRegionCount)
	}
	if len(cfg.BaselineWindows) != 3 {
		t.Fatalf("default baseline_windows = %v, want [7 14 30]", cfg.BaselineWindows)
	}
	if cfg.ConnectionPoolSize != 5 {
		t.Errorf("default connection_pool_size = %d, want 5", cfg.ConnectionPoolSize)
	}
	if len(cfg.Dimensions) != 5 {
		t.Errorf("default dimensions = %v, want 5 entries", cfg.Dimensions)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ZScoreWarning != 2.0 {
		t.Error("should return defaults for missing file")
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	content := `{
  "z_score_warning": 2.5,
  "z_score_critical": 4.0,
  "surge_alarming": 25.0,
  "surge_critical": 60.0,
  "dimensions": ["Region", "City"],
  "database_path": "` + filepath.Join(dir, "c.db") + `",
  "baseline_dir": "` + filepath.Join(dir, "baselines") + `"
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	if cfg.ZScoreWarning != 2.5 {
		t.Errorf("z_score_warning = %f, want 2.5", cfg.ZScoreWarning)
	}
	if cfg.ZScoreCritical != 4.0 {
		t.Errorf("z_score_critical = %f, want 4.0", cfg.ZScoreCritical)
	}
	if len(cfg.Dimensions) != 2 {
		t.Errorf("dimensions = %v, want 2 entries", cfg.Dimensions)
	}
}

func TestLoadFrom_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if cfg.ZScoreWarning != 2.0 {
		t.Errorf("expected default config on error, got %+v", cfg)
	}
}

func TestLoadFrom_InvalidThresholdsRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	// z_score_critical <= z_score_warning is invalid; normalize() resets
	// z_score_critical to 3.0, which is still below 5.0, so validation fails.
	content := `{"z_score_warning": 5.0, "z_score_critical": 1.0, "database_path": "x", "baseline_dir": "y"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected validation error for z_score_critical <= z_score_warning")
	}
}

func TestLoadFrom_ZeroThresholdsGetDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	data := []byte(`{"z_score_warning":0,"connection_pool_size":0}`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ZScoreWarning != 2.0 {
		t.Errorf("z_score_warning = %f, want 2.0 (default for zero)", cfg.ZScoreWarning)
	}
	if cfg.ConnectionPoolSize != 5 {
		t.Errorf("connection_pool_size = %d, want 5 (default for zero)", cfg.ConnectionPoolSize)
	}
}

func TestSaveTo_CreatesFileAndDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	path := filepath.Join(dir, "settings.json")

	cfg := DefaultConfig()
	cfg.SurgeAlarming = 30.0

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error loading saved file: %v", err)
	}
	if loaded.SurgeAlarming != 30.0 {
		t.Errorf("expected 30.0, got %f", loaded.SurgeAlarming)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	original := DefaultConfig()
	original.WidespreadRegionCount = 7

	if err := SaveTo(path, original); err != nil {
		t.Fatalf("save error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if loaded.WidespreadRegionCount != original.WidespreadRegionCount {
		t.Errorf("widespread_region_count mismatch: got %d, want %d", loaded.WidespreadRegionCount, original.WidespreadRegionCount)
	}
}
