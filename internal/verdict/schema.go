package verdict

import "github.com/santhosh-tekuri/jsonschema/v5"

// verdictSchemaJSON is the shape a model completion must have to be trusted.
// Extra keys are tolerated; the four verdict keys are not optional.
const verdictSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["status", "evidence", "reasoning", "confidence"],
  "properties": {
    "status":     {"type": "string", "enum": ["pass", "fail"]},
    "evidence":   {"type": "string"},
    "reasoning":  {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 100}
  }
}`

var verdictSchema = jsonschema.MustCompileString("verdict.json", verdictSchemaJSON)
