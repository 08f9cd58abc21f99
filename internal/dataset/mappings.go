package dataset

import (
	"path/filepath"
	"sort"

	"github.com/spboyer/llmscale/internal/models"
)

// UpdateMappings adds every alias seen in raw benchmark results to the
// benchmark's mapping file with a null slug, keeping existing entries.
// Benchmarks sharing a mapping file are merged into one write. It returns
// the number of aliases added per mapping file.
func UpdateMappings(benchDir, mappingDir string) (map[string]int, error) {
	files, err := LoadBenchmarkFiles(benchDir)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]models.MappingFile)
	added := make(map[string]int)
	for _, slug := range sortedSlugs(files) {
		bf := files[slug]
		name := bf.ModelNameMappingFile
		if name == "" {
			continue
		}
		m, ok := merged[name]
		if !ok {
			m, err = LoadMapping(filepath.Join(mappingDir, name))
			if err != nil {
				return nil, err
			}
			merged[name] = m
			added[name] = 0
		}
		for alias := range bf.Results {
			if _, exists := m[alias]; !exists {
				m[alias] = nil
				added[name]++
			}
		}
	}

	for name, m := range merged {
		if err := WriteYAML(filepath.Join(mappingDir, name), m); err != nil {
			return nil, err
		}
	}
	return added, nil
}

// UnmappedAliases lists aliases with a null slug, per mapping file.
func UnmappedAliases(mappingDir string) (map[string][]string, error) {
	files, err := yamlFiles(mappingDir)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	for _, path := range files {
		m, err := LoadMapping(path)
		if err != nil {
			return nil, err
		}
		var aliases []string
		for alias, slug := range m {
			if slug == nil || *slug == "" {
				aliases = append(aliases, alias)
			}
		}
		if len(aliases) > 0 {
			sort.Strings(aliases)
			out[filepath.Base(path)] = aliases
		}
	}
	return out, nil
}

// ApplyMappings sets slugs for aliases in one mapping file. Empty slugs are
// ignored so the alias stays unmapped.
func ApplyMappings(mappingDir, name string, slugs map[string]string) (int, error) {
	path := filepath.Join(mappingDir, name)
	m, err := LoadMapping(path)
	if err != nil {
		return 0, err
	}
	n := 0
	for alias, slug := range slugs {
		if slug == "" {
			continue
		}
		m[alias] = &slug
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return n, WriteYAML(path, m)
}
