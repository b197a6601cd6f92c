package grading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/polegion/internal/reward"
)

// submissionSchemaJSON describes the solution payload learners send.
const submissionSchemaJSON = `{
	"type": "object",
	"properties": {
		"answer": {"type": "string"},
		"work": {"type": "string"},
		"time_taken_seconds": {"type": "number", "minimum": 0}
	},
	"required": ["answer"]
}`

var submissionSchema = mustCompile("schema://submission.json", submissionSchemaJSON)

func mustCompile(url, src string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		panic(fmt.Sprintf("parse %s: %v", url, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		panic(fmt.Sprintf("add %s: %v", url, err))
	}
	return c.MustCompile(url)
}

type submissionPayload struct {
	Answer string `json:"answer"`
}

// ParseSubmission validates a raw solution payload. An empty body, JSON null
// or a blank answer is Missing; anything that is not a JSON object with a
// string "answer" is Malformed.
func ParseSubmission(raw []byte) reward.Submission {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return reward.Missing()
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(trimmed))
	if err != nil {
		return reward.Malformed(fmt.Sprintf("invalid JSON: %v", err))
	}
	if err := submissionSchema.Validate(doc); err != nil {
		return reward.Malformed(fmt.Sprintf("invalid submission: %v", err))
	}

	var p submissionPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return reward.Malformed(fmt.Sprintf("decode submission: %v", err))
	}
	if strings.TrimSpace(p.Answer) == "" {
		return reward.Missing()
	}
	return reward.Answered(p.Answer)
}
