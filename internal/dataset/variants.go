package dataset

import (
	"fmt"
	"sort"

	"github.com/spboyer/llmscale/internal/ability"
	"github.com/spboyer/llmscale/internal/models"
	"golang.org/x/sync/errgroup"
)

// LoadModelFiles reads every model file in dir concurrently, keyed by base
// model slug.
func LoadModelFiles(dir string) (map[string]*models.ModelFile, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}

	parsed := make([]*models.ModelFile, len(files))
	var g errgroup.Group
	g.SetLimit(8)
	for i, path := range files {
		g.Go(func() error {
			mf := &models.ModelFile{}
			if err := ReadYAML(path, mf); err != nil {
				return err
			}
			if _, err := mf.Released(); err != nil {
				return fmt.Errorf("%s: invalid release_date: %w", path, err)
			}
			parsed[i] = mf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*models.ModelFile, len(files))
	for i, path := range files {
		out[Slug(path)] = parsed[i]
	}
	return out, nil
}

// VariantConfig builds the base -> variants mapping from model files. Each
// variant must belong to exactly one base.
func VariantConfig(files map[string]*models.ModelFile) (ability.VariantConfig, error) {
	vc := make(ability.VariantConfig, len(files))
	owner := make(map[string]string)
	for _, base := range sortedSlugs(files) {
		variants := make([]string, 0, len(files[base].ReasoningEfforts))
		for v := range files[base].ReasoningEfforts {
			if prev, dup := owner[v]; dup {
				return nil, fmt.Errorf("variant %q is declared by both %s and %s", v, prev, base)
			}
			owner[v] = base
			variants = append(variants, v)
		}
		sort.Strings(variants)
		vc[base] = variants
	}
	return vc, nil
}

// LoadVariants reads model files from dir and returns their variant config.
func LoadVariants(dir string) (ability.VariantConfig, error) {
	files, err := LoadModelFiles(dir)
	if err != nil {
		return nil, err
	}
	return VariantConfig(files)
}
