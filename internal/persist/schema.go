package persist

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed state.schema.json
var stateSchemaJSON string

const stateSchemaURL = "thingsish://state.schema.json"

var stateSchema = jsonschema.MustCompileString(stateSchemaURL, stateSchemaJSON)

// Validate checks a stored blob against the state schema. The returned error
// lists every violation with its JSON path.
func Validate(raw []byte) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	err := stateSchema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}

	var msgs []string
	collectSchemaErrors(&msgs, ve)
	return fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
}

func collectSchemaErrors(msgs *[]string, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		path := strings.TrimPrefix(strings.TrimPrefix(err.InstanceLocation, "#"), "/")
		if path == "" {
			path = "(root)"
		}
		*msgs = append(*msgs, path+": "+err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(msgs, cause)
	}
}
