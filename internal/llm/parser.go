package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lqlabs/outflow/internal/model"
)

// cleanMarkdownWrapper strips code-fence markup that models sometimes
// wrap around JSON despite instructions.
func cleanMarkdownWrapper(content string) string {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}

	return strings.TrimSpace(s)
}

// ParseDecisions decodes the service response into decisions. The
// response must be a JSON array of {type, category, reasoning} objects
// with a recognizable expense type; anything else is an error, never a
// silent coercion. Length validation against the batch is the caller's.
func ParseDecisions(content string) ([]Decision, error) {
	cleaned := cleanMarkdownWrapper(content)

	var decisions []Decision
	if err := json.Unmarshal([]byte(cleaned), &decisions); err != nil {
		return nil, fmt.Errorf("response is not a JSON decision list: %w", err)
	}
	if len(decisions) == 0 {
		return nil, fmt.Errorf("response contains no decisions")
	}

	for i := range decisions {
		normalized := strings.ToUpper(strings.TrimSpace(decisions[i].Type))
		switch normalized {
		case string(model.Capex), string(model.Opex):
			decisions[i].Type = normalized
		default:
			return nil, fmt.Errorf("decision %d has unknown expense type %q", i+1, decisions[i].Type)
		}
		decisions[i].Category = strings.TrimSpace(decisions[i].Category)
		decisions[i].Reasoning = strings.TrimSpace(decisions[i].Reasoning)
	}

	return decisions, nil
}
