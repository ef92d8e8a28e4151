package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/orchestr8/orchestr8-mcp/internal/logger"
)

var logParams = logger.New("server:params")

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaFiles = map[Method]string{
	MethodInitialize:  "schemas/initialize.json",
	MethodHealth:      "schemas/health.json",
	MethodAgentsQuery: "schemas/agents_query.json",
}

// paramSchemas holds one compiled schema per method.
type paramSchemas map[Method]*jsonschema.Schema

func compileSchemas() (paramSchemas, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	schemas := make(paramSchemas, len(schemaFiles))
	for method, file := range schemaFiles {
		data, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", file, err)
		}
		url := "orchestr8://" + file
		if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema resource %s: %w", file, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", file, err)
		}
		schemas[method] = schema
	}
	logParams.Printf("Compiled %d parameter schemas", len(schemas))
	return schemas, nil
}

// validate checks raw params against the method's schema. Absent params are
// treated as an empty object.
func (s paramSchemas) validate(method Method, raw json.RawMessage) *Error {
	schema, ok := s[method]
	if !ok {
		return nil
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return ErrInvalidParams("params must be valid JSON")
	}

	if err := schema.Validate(value); err != nil {
		detail := formatSchemaError(err)
		logParams.Printf("Params for %s rejected: %s", method, detail)
		return ErrInvalidParams(detail)
	}
	return nil
}

// formatSchemaError flattens a validation error into one line of
// "location: message" pairs, leaves only.
func formatSchemaError(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var parts []string
	collectLeaves(ve, &parts)
	slices.Sort(parts)
	parts = slices.Compact(parts)
	return strings.Join(parts, "; ")
}

func collectLeaves(ve *jsonschema.ValidationError, parts *[]string) {
	if len(ve.Causes) == 0 {
		location := ve.InstanceLocation
		if location == "" {
			location = "params"
		} else {
			location = "params" + location
		}
		*parts = append(*parts, fmt.Sprintf("%s: %s", location, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, parts)
	}
}

// agentsQueryParams is the decoded agents/query payload. Limit keeps the
// literal text so that 1e3, 5.0 and magnitudes beyond float64 survive decoding
// once the schema has vetted them. A null limit decodes to "".
type agentsQueryParams struct {
	Context string      `json:"context"`
	Limit   json.Number `json:"limit"`
}

// limit resolves the effective limit, clamped to the int32 range.
func (p agentsQueryParams) limit(defaultLimit int) (int, error) {
	if p.Limit == "" {
		return defaultLimit, nil
	}
	v, err := strconv.ParseFloat(p.Limit.String(), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("params/limit: %q is not a number", p.Limit.String())
	}
	// out-of-range magnitudes parse as +Inf or -Inf and clamp below
	switch {
	case v <= 0:
		return 0, nil
	case v > math.MaxInt32:
		return math.MaxInt32, nil
	default:
		return int(v), nil
	}
}
