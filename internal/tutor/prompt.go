package tutor

import (
	"fmt"
	"strings"
)

// defaultPersona is the system prompt used when no teacher customization
// applies.
const defaultPersona = "You are Lyra, a patient school tutor. Explain concepts step by step, " +
	"encourage the student to reason on their own, and never just hand over a final answer " +
	"without the path to it."

// BuildPrompt combines the persona, optional example answers, and the problem
// statement into one prompt blob. Deterministic; no I/O.
func BuildPrompt(req Request) string {
	persona := strings.TrimSpace(req.SystemPrompt)
	if persona == "" {
		persona = defaultPersona
	}

	var b strings.Builder
	b.WriteString(persona)

	if len(req.ExampleAnswers) > 0 {
		b.WriteString("\n\nExamples of good answers:\n")
		for _, ex := range req.ExampleAnswers {
			fmt.Fprintf(&b, "- %s\n", ex)
		}
	}

	b.WriteString("\n\n")
	b.WriteString(req.Problem)
	return b.String()
}
