package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Instructions builds the system text shared by the backend adapters. The
// model is asked for a JSON object matching [Description]; req.Prompt and
// req.Language refine it.
func Instructions(req Request) string {
	var b strings.Builder
	b.WriteString("You are a scene narrator. Describe what the attached frames show.\n")
	b.WriteString("Respond with a single JSON object with these fields:\n")
	b.WriteString(`  "caption": one sentence summarizing the scene` + "\n")
	b.WriteString(`  "narrative": 2-4 spoken-style sentences describing what happens` + "\n")
	b.WriteString(`  "subjects": array of distinct people, animals, and objects seen` + "\n")
	b.WriteString(`  "language": the BCP 47 tag of the language you wrote in` + "\n")
	if len(req.Frames) > 1 {
		b.WriteString("The frames are ordered samples from one video; describe them as a progression, not as separate images.\n")
	}
	if req.Language != "" {
		fmt.Fprintf(&b, "Write the caption and narrative in %s.\n", req.Language)
	}
	if req.Prompt != "" {
		fmt.Fprintf(&b, "Focus on: %s\n", req.Prompt)
	}
	return b.String()
}

// ParseDescription parses a model's JSON reply into a Description. Markdown
// code fences around the object are tolerated; a reply without a caption or
// narrative is an error.
func ParseDescription(data []byte) (*Description, error) {
	text := strings.TrimSpace(string(data))
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var desc Description
	if err := json.Unmarshal([]byte(text), &desc); err != nil {
		return nil, fmt.Errorf("parse description: %w", err)
	}
	if desc.Caption == "" && desc.Narrative == "" {
		return nil, fmt.Errorf("parse description: reply has neither caption nor narrative")
	}
	if desc.Caption == "" {
		desc.Caption = desc.Narrative
	}
	if desc.Narrative == "" {
		desc.Narrative = desc.Caption
	}
	return &desc, nil
}
