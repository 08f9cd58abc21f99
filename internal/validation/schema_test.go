package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const validBenchmarkYAML = `benchmark: GPQA Diamond
description: Graduate level science questions
website: https://example.com/gpqa
github: null
score_weight: 1.0
cost_weight: 1.0
results:
  gpt-4o: 51.2
  claude-3-5-sonnet: 59.4
model_name_mapping_file: gpqa.yaml
private_holdout: false
cost_per_task:
  gpt-4o: 0.012
`

const invalidBenchmarkYAML = `benchmark: GPQA Diamond
description: Missing weights
website: null
github: null
results:
  gpt-4o: "high"
model_name_mapping_file: gpqa.yaml
private_holdout: false
`

const validModelYAML = `provider: openai
reasoning_efforts:
  o3-low: low
  o3-high: high
release_date: 2025-04-16
`

const invalidModelYAML = `reasoning_efforts:
  o3-low: low
release_date: April 2025
`

func TestValidateBytes_Benchmark(t *testing.T) {
	require.Empty(t, ValidateBytes(KindBenchmark, []byte(validBenchmarkYAML)))

	errs := ValidateBytes(KindBenchmark, []byte(invalidBenchmarkYAML))
	require.NotEmpty(t, errs)
	joined := joinErrs(errs)
	require.Contains(t, joined, "score_weight")
	require.Contains(t, joined, "/results/gpt-4o")
}

func TestValidateBytes_Model(t *testing.T) {
	require.Empty(t, ValidateBytes(KindModel, []byte(validModelYAML)))

	errs := ValidateBytes(KindModel, []byte(invalidModelYAML))
	require.NotEmpty(t, errs)
	joined := joinErrs(errs)
	require.Contains(t, joined, "provider")
	require.Contains(t, joined, "/release_date")
}

func TestValidateBytes_UnquotedDates(t *testing.T) {
	for _, doc := range []string{
		"provider: openai\nreasoning_efforts: {}\nrelease_date: 2025-04-16\n",
		"provider: openai\nreasoning_efforts: {}\nrelease_date: \"2025-04-16\"\n",
	} {
		require.Empty(t, ValidateBytes(KindModel, []byte(doc)), doc)
	}

	errs := ValidateBytes(KindModel, []byte("provider: openai\nreasoning_efforts: {}\nrelease_date: 2025-04-16T10:30:00Z\n"))
	require.NotEmpty(t, errs)
	require.Contains(t, joinErrs(errs), "/release_date")
}

func TestConvertToJSONCompatible_Time(t *testing.T) {
	got := convertToJSONCompatible(map[string]any{
		"day":   time.Date(2025, 4, 16, 0, 0, 0, 0, time.UTC),
		"stamp": time.Date(2025, 4, 16, 10, 30, 0, 0, time.UTC),
	})
	require.Equal(t, map[string]any{"day": "2025-04-16", "stamp": "2025-04-16T10:30:00Z"}, got)
}

func TestValidateBytes_Mapping(t *testing.T) {
	require.Empty(t, ValidateBytes(KindMapping, []byte("GPT-4o: gpt-4o\nUnknown Model: null\n")))

	errs := ValidateBytes(KindMapping, []byte("GPT-4o:\n  - gpt-4o\n"))
	require.NotEmpty(t, errs)
	require.Contains(t, joinErrs(errs), "/GPT-4o")
}

func TestValidateBytes_ParseErrorAndEmpty(t *testing.T) {
	errs := ValidateBytes(KindMapping, []byte("key: [broken"))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "YAML parse error")

	errs = ValidateBytes(KindModel, []byte(""))
	require.Equal(t, []string{"/: file is empty"}, errs)
}

func TestValidateBytes_UnknownKind(t *testing.T) {
	errs := ValidateBytes(Kind("leaderboard"), []byte("a: 1"))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "unknown file kind")
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", validModelYAML)
	writeFile(t, dir, "bad.yaml", invalidModelYAML)
	writeFile(t, dir, "README.md", "# not data")

	fileErrs, err := ValidateDir(dir, KindModel)
	require.NoError(t, err)
	require.Len(t, fileErrs, 1)
	require.Contains(t, fileErrs, "bad.yaml")
}

func TestValidateDir_Missing(t *testing.T) {
	fileErrs, err := ValidateDir(filepath.Join(t.TempDir(), "nope"), KindModel)
	require.NoError(t, err)
	require.Empty(t, fileErrs)
}

func TestValidateDataset(t *testing.T) {
	root := t.TempDir()
	p := Paths{
		Benchmarks: filepath.Join(root, "benchmarks"),
		Models:     filepath.Join(root, "models"),
		Mappings:   filepath.Join(root, "mappings"),
	}
	writeFile(t, p.Benchmarks, "gpqa.yaml", validBenchmarkYAML)
	writeFile(t, p.Models, "o3.yaml", validModelYAML)

	// Mapping file referenced by gpqa.yaml does not exist yet.
	fileErrs, err := ValidateDataset(p)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join("benchmarks", "gpqa.yaml")}, SortedFiles(fileErrs))
	require.Contains(t, joinErrs(fileErrs[filepath.Join("benchmarks", "gpqa.yaml")]), "gpqa.yaml not found")

	writeFile(t, p.Mappings, "gpqa.yaml", "gpt-4o: gpt-4o\n")
	fileErrs, err = ValidateDataset(p)
	require.NoError(t, err)
	require.Empty(t, fileErrs)
}

func TestSortedFiles(t *testing.T) {
	got := SortedFiles(map[string][]string{"b.yaml": {"x"}, "a.yaml": {"y"}})
	require.Equal(t, []string{"a.yaml", "b.yaml"}, got)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func joinErrs(errs []string) string {
	return strings.Join(errs, "\n")
}
