// Package schemas embeds the JSON Schema documents describing the backend contract.
package schemas

import "embed"

// Schema file names.
const (
	PipelineResponse = "pipeline_response.schema.json"
	RunRequest       = "run_request.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Read returns the raw contents of the named schema file.
func Read(name string) ([]byte, error) {
	return files.ReadFile(name)
}
