package fixtures

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Expectation is the outcome a login case asserts.
type Expectation string

const (
	SuccessDoctor Expectation = "success_doctor"
	SuccessScribe Expectation = "success_scribe"
	EmailError    Expectation = "emailError"
	PasswordError Expectation = "passwordError"
	CombinedError Expectation = "combinedError"
)

// IsSuccess reports whether the case expects to land on the dashboard
func (e Expectation) IsSuccess() bool {
	return e == SuccessDoctor || e == SuccessScribe
}

// LoginCase is one row of the login fixture file
type LoginCase struct {
	TCID           string      `json:"TCID" yaml:"TCID"`
	Email          string      `json:"Email" yaml:"Email"`
	Password       string      `json:"Password" yaml:"Password"`
	ExpectedResult Expectation `json:"ExpectedResult" yaml:"ExpectedResult"`
}

//go:embed users.json
var defaultUsers []byte

const loginSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "additionalProperties": false,
    "required": ["TCID", "Email", "Password", "ExpectedResult"],
    "properties": {
      "TCID": {"type": "string", "pattern": "^[A-Za-z0-9_-]+$"},
      "Email": {"type": "string"},
      "Password": {"type": "string"},
      "ExpectedResult": {"enum": ["success_doctor", "success_scribe", "emailError", "passwordError", "combinedError"]}
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(loginSchema)

// ValidationError lists every schema violation found in a fixture document
type ValidationError struct {
	Source string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid login fixtures %s: %s", e.Source, strings.Join(e.Issues, "; "))
}

// Default returns the login cases shipped with the suite
func Default() ([]LoginCase, error) {
	return Parse("users.json", defaultUsers)
}

// Load reads login cases from a .json, .yaml or .yml file
func Load(path string) ([]LoginCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes and validates a fixture document. The format is picked from name's extension.
func Parse(name string, data []byte) ([]LoginCase, error) {
	var doc interface{}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported fixture format %q", filepath.Ext(name))
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		verr := &ValidationError{Source: name}
		for _, desc := range result.Errors() {
			verr.Issues = append(verr.Issues, desc.String())
		}
		return nil, verr
	}

	// Schema-valid documents round-trip through JSON into the typed model.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", name, err)
	}
	var cases []LoginCase
	if err := json.Unmarshal(normalized, &cases); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	seen := make(map[string]struct{}, len(cases))
	for _, c := range cases {
		if _, dup := seen[c.TCID]; dup {
			return nil, &ValidationError{Source: name, Issues: []string{fmt.Sprintf("duplicate TCID %s", c.TCID)}}
		}
		seen[c.TCID] = struct{}{}
	}
	return cases, nil
}
