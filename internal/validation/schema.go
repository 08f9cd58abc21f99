package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spboyer/llmscale/schemas"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// Kind identifies which schema a data file is checked against.
type Kind string

const (
	KindBenchmark Kind = "benchmark"
	KindModel     Kind = "model"
	KindMapping   Kind = "mapping"
)

var compiled = map[Kind]*jsonschema.Schema{}

func init() {
	compiled[KindBenchmark] = mustCompileSchema(schemas.BenchmarkSchemaJSON, "benchmark.schema.json")
	compiled[KindModel] = mustCompileSchema(schemas.ModelSchemaJSON, "model.schema.json")
	compiled[KindMapping] = mustCompileSchema(schemas.MappingSchemaJSON, "mapping.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// Paths names the data directories checked by ValidateDataset.
type Paths struct {
	Benchmarks string
	Models     string
	Mappings   string
}

// ValidateBytes validates raw YAML bytes against the schema for kind.
func ValidateBytes(kind Kind, data []byte) []string {
	schema, ok := compiled[kind]
	if !ok {
		return []string{fmt.Sprintf("unknown file kind %q", kind)}
	}
	return validateYAMLBytes(schema, data)
}

// ValidateDir validates every .yaml/.yml file in dir against the schema for
// kind. The returned map is keyed by file name and holds only files with
// errors. A missing directory is not an error.
func ValidateDir(dir string, kind Kind) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	fileErrs := make(map[string][]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		if errs := ValidateBytes(kind, data); len(errs) > 0 {
			fileErrs[e.Name()] = errs
		}
	}
	return fileErrs, nil
}

// ValidateDataset checks all three data directories and that every benchmark
// names a mapping file that exists. Keys are paths relative to each
// directory's parent, e.g. "benchmarks/gpqa.yaml".
func ValidateDataset(p Paths) (map[string][]string, error) {
	all := make(map[string][]string)
	for _, d := range []struct {
		dir  string
		kind Kind
	}{
		{p.Benchmarks, KindBenchmark},
		{p.Models, KindModel},
		{p.Mappings, KindMapping},
	} {
		if d.dir == "" {
			continue
		}
		errs, err := ValidateDir(d.dir, d.kind)
		if err != nil {
			return nil, err
		}
		for name, e := range errs {
			all[filepath.Join(filepath.Base(d.dir), name)] = e
		}
	}

	if p.Benchmarks != "" && p.Mappings != "" {
		missing, err := missingMappings(p.Benchmarks, p.Mappings)
		if err != nil {
			return nil, err
		}
		for name, e := range missing {
			key := filepath.Join(filepath.Base(p.Benchmarks), name)
			all[key] = append(all[key], e)
		}
	}
	return all, nil
}

func missingMappings(benchDir, mappingDir string) (map[string]string, error) {
	entries, err := os.ReadDir(benchDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", benchDir, err)
	}
	missing := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(benchDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		var ref struct {
			MappingFile string `yaml:"model_name_mapping_file"`
		}
		if yaml.Unmarshal(data, &ref) != nil || ref.MappingFile == "" {
			continue // reported by the schema check
		}
		if _, err := os.Stat(filepath.Join(mappingDir, ref.MappingFile)); err != nil {
			missing[e.Name()] = fmt.Sprintf("/model_name_mapping_file: %s not found in %s", ref.MappingFile, mappingDir)
		}
	}
	return missing, nil
}

// SortedFiles returns the keys of a ValidateDir/ValidateDataset result in
// stable order.
func SortedFiles(fileErrs map[string][]string) []string {
	names := make([]string, 0, len(fileErrs))
	for n := range fileErrs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func validateYAMLBytes(schema *jsonschema.Schema, data []byte) []string {
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}
	if yamlDoc == nil {
		return []string{"/: file is empty"}
	}

	return validateAgainstSchema(schema, convertToJSONCompatible(yamlDoc))
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// convertToJSONCompatible converts YAML-decoded values to JSON-compatible
// types. Mapping files keyed by bare numbers decode as map[any]any.
func convertToJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = convertToJSONCompatible(v2)
		}
		return result
	case map[any]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[fmt.Sprint(k)] = convertToJSONCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = convertToJSONCompatible(v2)
		}
		return result
	case time.Time:
		// Unquoted dates decode as timestamps; the schemas expect strings.
		if val.Equal(val.Truncate(24*time.Hour)) && val.Location() == time.UTC {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.RFC3339Nano)
	default:
		return val
	}
}
