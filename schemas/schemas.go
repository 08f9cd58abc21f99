// Package schemas embeds the JSON Schema documents for the YAML data files.
package schemas

import _ "embed"

//go:embed benchmark.schema.json
var BenchmarkSchemaJSON string

//go:embed model.schema.json
var ModelSchemaJSON string

//go:embed mapping.schema.json
var MappingSchemaJSON string
