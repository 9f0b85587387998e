package llm

import (
	"fmt"
	"strings"
	"time"

	"clementus360/activity-agent/types"
)

const summaryInstruction = "summarize what the user has been doing, focus on what the user has potentially been interested in learning and what they have been learning"

// BuildActivityPrompt renders one line per activity, in the order given, and
// wraps them in the fixed summarization instruction.
func BuildActivityPrompt(activities []types.Activity) string {
	lines := make([]string, 0, len(activities))
	for _, a := range activities {
		lines = append(lines, fmt.Sprintf("At %s, visited %s - %s",
			a.Timestamp.Format(time.RFC3339), a.Domain, a.Title))
	}

	return fmt.Sprintf("%s\n\n%s", summaryInstruction, strings.Join(lines, "\n"))
}
