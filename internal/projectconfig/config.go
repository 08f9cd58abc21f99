// Package projectconfig provides the ProjectConfig struct and loader for
// .llmscale.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up from the working
// directory upward.
const FileName = ".llmscale.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultBenchmarksDir = "data/benchmarks"
	DefaultMappingsDir   = "data/mappings"
	DefaultModelsDir     = "data/models"
	DefaultProcessedDir  = "data/processed"

	DefaultFitMethod     = "bfgs"
	DefaultOffsetPenalty = 1.0
	DefaultMaxIterations = 2000
	DefaultRestarts      = 1
	DefaultSeed          = 1

	DefaultCostIterations = 20

	DefaultMinBenchmarks     = 5
	DefaultMinCostBenchmarks = 3

	DefaultDisplayMin      = 0.0
	DefaultDisplayMax      = 100.0
	DefaultDisplayMidpoint = 0.2
	DefaultDisplaySlope    = 0.7

	DefaultCacheDir = ".llmscale-cache"

	DefaultPublishPrefix = "llmscale/"
)

// PathsConfig holds the data directories.
type PathsConfig struct {
	Benchmarks string `yaml:"benchmarks,omitempty"`
	Mappings   string `yaml:"mappings,omitempty"`
	Models     string `yaml:"models,omitempty"`
	Processed  string `yaml:"processed,omitempty"`
}

// FitConfig holds ability model settings. Optimizer carries method specific
// parameters, decoded by the fitter.
type FitConfig struct {
	Method        string         `yaml:"method,omitempty"`
	OffsetPenalty *float64       `yaml:"offset_penalty,omitempty"`
	MaxIterations int            `yaml:"max_iterations,omitempty"`
	Restarts      int            `yaml:"restarts,omitempty"`
	Seed          *int64         `yaml:"seed,omitempty"`
	Optimizer     map[string]any `yaml:"optimizer,omitempty"`
}

// CostsConfig holds cost factorization settings.
type CostsConfig struct {
	Iterations int `yaml:"iterations,omitempty"`
}

// CurveConfig is a display sigmoid.
type CurveConfig struct {
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	Midpoint float64 `yaml:"midpoint"`
	Slope    float64 `yaml:"slope"`
}

// LeaderboardConfig holds report thresholds.
type LeaderboardConfig struct {
	MinBenchmarks     int          `yaml:"min_benchmarks,omitempty"`
	MinCostBenchmarks int          `yaml:"min_cost_benchmarks,omitempty"`
	Display           *CurveConfig `yaml:"display,omitempty"`
}

// CacheConfig holds fit cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// PublishConfig holds blob storage settings.
type PublishConfig struct {
	AccountURL string `yaml:"account_url,omitempty"`
	Container  string `yaml:"container,omitempty"`
	Prefix     string `yaml:"prefix,omitempty"`
	Compress   *bool  `yaml:"compress,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .llmscale.yaml.
type ProjectConfig struct {
	Paths       PathsConfig       `yaml:"paths,omitempty"`
	Fit         FitConfig         `yaml:"fit,omitempty"`
	Costs       CostsConfig       `yaml:"costs,omitempty"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard,omitempty"`
	Cache       CacheConfig       `yaml:"cache,omitempty"`
	Publish     PublishConfig     `yaml:"publish,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Benchmarks: DefaultBenchmarksDir,
			Mappings:   DefaultMappingsDir,
			Models:     DefaultModelsDir,
			Processed:  DefaultProcessedDir,
		},
		Fit: FitConfig{
			Method:        DefaultFitMethod,
			OffsetPenalty: float64Ptr(DefaultOffsetPenalty),
			MaxIterations: DefaultMaxIterations,
			Restarts:      DefaultRestarts,
			Seed:          int64Ptr(DefaultSeed),
		},
		Costs: CostsConfig{
			Iterations: DefaultCostIterations,
		},
		Leaderboard: LeaderboardConfig{
			MinBenchmarks:     DefaultMinBenchmarks,
			MinCostBenchmarks: DefaultMinCostBenchmarks,
			Display: &CurveConfig{
				Min:      DefaultDisplayMin,
				Max:      DefaultDisplayMax,
				Midpoint: DefaultDisplayMidpoint,
				Slope:    DefaultDisplaySlope,
			},
		},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
		Publish: PublishConfig{
			Prefix:   DefaultPublishPrefix,
			Compress: boolPtr(true),
		},
	}
}

// Load finds .llmscale.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults. Relative paths
// in the file resolve against the file's directory.
// If no config file is found, returns defaults with a nil error.
func Load(startDir string) (*ProjectConfig, error) {
	data, dir, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}
	return parse(data, dir)
}

// LoadFile reads an explicit config path. Unlike Load, a missing file is an
// error.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return parse(data, filepath.Dir(path))
}

func parse(data []byte, baseDir string) (*ProjectConfig, error) {
	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	cfg := New()
	mergeConfig(cfg, &fileCfg)
	cfg.resolvePaths(baseDir)
	return cfg, nil
}

// resolvePaths makes relative data and cache paths relative to baseDir.
// Absolute paths are left unchanged.
func (c *ProjectConfig) resolvePaths(baseDir string) {
	for _, p := range []*string{
		&c.Paths.Benchmarks,
		&c.Paths.Mappings,
		&c.Paths.Models,
		&c.Paths.Processed,
		&c.Cache.Dir,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}
}

// findConfigFile walks up from dir looking for the config file (max 10
// levels) and returns its content and directory. Returns os.ErrNotExist if
// none is found.
func findConfigFile(dir string) ([]byte, string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, dir, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, "", os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Benchmarks != "" {
		dst.Paths.Benchmarks = src.Paths.Benchmarks
	}
	if src.Paths.Mappings != "" {
		dst.Paths.Mappings = src.Paths.Mappings
	}
	if src.Paths.Models != "" {
		dst.Paths.Models = src.Paths.Models
	}
	if src.Paths.Processed != "" {
		dst.Paths.Processed = src.Paths.Processed
	}

	// Fit
	if src.Fit.Method != "" {
		dst.Fit.Method = src.Fit.Method
	}
	if src.Fit.OffsetPenalty != nil {
		dst.Fit.OffsetPenalty = src.Fit.OffsetPenalty
	}
	if src.Fit.MaxIterations != 0 {
		dst.Fit.MaxIterations = src.Fit.MaxIterations
	}
	if src.Fit.Restarts != 0 {
		dst.Fit.Restarts = src.Fit.Restarts
	}
	if src.Fit.Seed != nil {
		dst.Fit.Seed = src.Fit.Seed
	}
	if src.Fit.Optimizer != nil {
		dst.Fit.Optimizer = src.Fit.Optimizer
	}

	// Costs
	if src.Costs.Iterations != 0 {
		dst.Costs.Iterations = src.Costs.Iterations
	}

	// Leaderboard
	if src.Leaderboard.MinBenchmarks != 0 {
		dst.Leaderboard.MinBenchmarks = src.Leaderboard.MinBenchmarks
	}
	if src.Leaderboard.MinCostBenchmarks != 0 {
		dst.Leaderboard.MinCostBenchmarks = src.Leaderboard.MinCostBenchmarks
	}
	if src.Leaderboard.Display != nil {
		dst.Leaderboard.Display = src.Leaderboard.Display
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// Publish
	if src.Publish.AccountURL != "" {
		dst.Publish.AccountURL = src.Publish.AccountURL
	}
	if src.Publish.Container != "" {
		dst.Publish.Container = src.Publish.Container
	}
	if src.Publish.Prefix != "" {
		dst.Publish.Prefix = src.Publish.Prefix
	}
	if src.Publish.Compress != nil {
		dst.Publish.Compress = src.Publish.Compress
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func float64Ptr(f float64) *float64 {
	return &f
}

func int64Ptr(i int64) *int64 {
	return &i
}
