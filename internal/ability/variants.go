package ability

import (
	"log/slog"
	"sort"

	"github.com/spboyer/llmscale/internal/models"
)

// VariantConfig maps a base model to the variants (e.g. reasoning-effort
// settings) that belong to it. A nil or empty config fits every observed
// model as its own base.
type VariantConfig map[string][]string

// BaseOf returns the base model for id: id itself when it is a configured
// base, the owning base when it is a declared variant.
func (vc VariantConfig) BaseOf(id string) (base string, variant string, ok bool) {
	if _, isBase := vc[id]; isBase {
		return id, "", true
	}
	for _, b := range vc.sortedBases() {
		for _, v := range vc[b] {
			if v == id {
				return b, v, true
			}
		}
	}
	return "", "", false
}

func (vc VariantConfig) sortedBases() []string {
	bases := make([]string, 0, len(vc))
	for b := range vc {
		bases = append(bases, b)
	}
	sort.Strings(bases)
	return bases
}

// lookup flattens the config into variant -> base. A variant declared under
// more than one base is kept under the first base in sorted order.
func (vc VariantConfig) lookup() map[string]string {
	out := make(map[string]string)
	for _, b := range vc.sortedBases() {
		for _, v := range vc[b] {
			if prev, dup := out[v]; dup {
				slog.Warn("variant declared under multiple bases", "variant", v, "kept", prev, "ignored", b)
				continue
			}
			out[v] = b
		}
	}
	return out
}

// layout is the index bookkeeping shared by initialization, the objective and
// result decoding. Variant index -1 means the observation is on the base
// itself and carries no offset.
type layout struct {
	bases      []string
	variants   []string
	benchmarks []string

	variantBase []int
	observed    []bool

	obsBase    []int
	obsVariant []int
	obsBench   []int
	y          []float64
}

func (l *layout) numParams() int {
	return len(l.bases) + len(l.variants) + 4*len(l.benchmarks) + 1
}

// buildLayout resolves every observation to a base/variant/benchmark index.
// With a variant config, observations on undeclared models are excluded and
// counted.
func buildLayout(obs []models.Observation, vc VariantConfig) (*layout, int) {
	hierarchical := len(vc) > 0
	var variantToBase map[string]string
	if hierarchical {
		variantToBase = vc.lookup()
	}

	type resolved struct {
		base, variant, bench string
		score                float64
	}
	kept := make([]resolved, 0, len(obs))
	excluded := 0
	baseSet := make(map[string]bool)
	benchSet := make(map[string]bool)

	for _, o := range obs {
		r := resolved{bench: o.Benchmark, score: o.Score}
		if !hierarchical {
			r.base = o.Model
		} else if _, isBase := vc[o.Model]; isBase {
			r.base = o.Model
		} else if b, ok := variantToBase[o.Model]; ok {
			r.base, r.variant = b, o.Model
		} else {
			slog.Debug("excluding observation for unconfigured model", "model", o.Model, "benchmark", o.Benchmark)
			excluded++
			continue
		}
		kept = append(kept, r)
		baseSet[r.base] = true
		benchSet[r.bench] = true
	}

	l := &layout{
		bases:      sortedKeys(baseSet),
		benchmarks: sortedKeys(benchSet),
	}
	baseIdx := indexOf(l.bases)
	benchIdx := indexOf(l.benchmarks)

	if hierarchical {
		variantSet := make(map[string]bool)
		for v, b := range variantToBase {
			if baseSet[b] {
				variantSet[v] = true
			}
		}
		l.variants = sortedKeys(variantSet)
		l.variantBase = make([]int, len(l.variants))
		for i, v := range l.variants {
			l.variantBase[i] = baseIdx[variantToBase[v]]
		}
	}
	variantIdx := indexOf(l.variants)
	l.observed = make([]bool, len(l.variants))

	l.obsBase = make([]int, len(kept))
	l.obsVariant = make([]int, len(kept))
	l.obsBench = make([]int, len(kept))
	l.y = make([]float64, len(kept))
	for i, r := range kept {
		l.obsBase[i] = baseIdx[r.base]
		l.obsBench[i] = benchIdx[r.bench]
		l.y[i] = r.score
		l.obsVariant[i] = -1
		if r.variant != "" {
			vi := variantIdx[r.variant]
			l.obsVariant[i] = vi
			l.observed[vi] = true
		}
	}
	return l, excluded
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(names []string) map[string]int {
	out := make(map[string]int, len(names))
	for i, n := range names {
		out[n] = i
	}
	return out
}
