package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/spboyer/llmscale/internal/ability"
	"github.com/spboyer/llmscale/internal/models"
)

// Cache stores ability fit results on disk, one JSON file per input hash.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Key generates a cache key for a fit. The key is based on:
// - every observation, in (benchmark, model) order
// - the variant config, bases and variants sorted
// - the fitter options
func Key(obs []models.Observation, variants ability.VariantConfig, opts ability.Options) (string, error) {
	h := sha256.New()

	sorted := make([]models.Observation, len(obs))
	copy(sorted, obs)
	sortStable(sorted)
	for _, o := range sorted {
		if err := writeString(h, o.Benchmark); err != nil {
			return "", err
		}
		if err := writeString(h, o.Model); err != nil {
			return "", err
		}
		if err := writeFloat(h, o.Score); err != nil {
			return "", err
		}
	}

	// Separator so an empty variant config differs from a trailing observation.
	if err := writeString(h, "variants"); err != nil {
		return "", err
	}
	bases := make([]string, 0, len(variants))
	for b := range variants {
		bases = append(bases, b)
	}
	sort.Strings(bases)
	for _, b := range bases {
		vs := append([]string(nil), variants[b]...)
		sort.Strings(vs)
		if err := writeString(h, b); err != nil {
			return "", err
		}
		if err := writeInt(h, len(vs)); err != nil {
			return "", err
		}
		for _, v := range vs {
			if err := writeString(h, v); err != nil {
				return "", err
			}
		}
	}

	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("marshaling options: %w", err)
	}
	if _, err := h.Write(optsJSON); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get retrieves a cached fit result if it exists
func (c *Cache) Get(key string) (*ability.Result, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		// Cache miss
		return nil, false
	}

	var result ability.Result
	if err := json.Unmarshal(data, &result); err != nil {
		// Invalid cache entry, treat as miss
		return nil, false
	}

	return &result, true
}

// Put stores a fit result in the cache
func (c *Cache) Put(key string, result *ability.Result) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return nil
}

// Clear removes all cached results
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	// Refuse to remove a directory that holds anything but cache files.
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
		}
		if filepath.Ext(entry.Name()) != ".json" {
			return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

// cachePath returns the file path for a cache key
func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func sortStable(obs []models.Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		if obs[i].Benchmark != obs[j].Benchmark {
			return obs[i].Benchmark < obs[j].Benchmark
		}
		if obs[i].Model != obs[j].Model {
			return obs[i].Model < obs[j].Model
		}
		return obs[i].Score < obs[j].Score
	})
}

// Helper functions

func writeString(w io.Writer, s string) error {
	// Write string with null byte delimiter to prevent hash collisions
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

func writeInt(w io.Writer, i int) error {
	_, err := fmt.Fprintf(w, "%d\x00", i)
	return err
}

func writeFloat(w io.Writer, f float64) error {
	_, err := w.Write([]byte(strconv.FormatFloat(f, 'g', -1, 64) + "\x00"))
	return err
}
