package llm

import (
	"fmt"
	"sort"
	"strings"
)

// #region build-prompt

// BuildPrompt renders the classification prompt: every state with its
// qualifying facts, the currently active facts, and the JSON answer contract.
// State names are rendered in sorted order so the prompt is stable for a
// given StateSet regardless of map iteration order.
func BuildPrompt(states StateSet, facts []string) string {
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("You are a state classifier. Given the possible states and the facts currently known, decide which single state best describes the situation.\n\n")
	b.WriteString("Possible states:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- %s\n", name)
		for _, q := range states[name] {
			fmt.Fprintf(&b, "  - %s\n", q)
		}
	}

	b.WriteString("\nCurrent facts:\n")
	if len(facts) == 0 {
		b.WriteString("(none)\n")
	}
	for _, f := range facts {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	b.WriteString("\nAnswer with a single JSON object and nothing else, using exactly these keys:\n")
	b.WriteString(`{"state": "<one of the state names above>", "confidence": <number between 0 and 1>, "reasoning": "<short explanation>"}` + "\n")
	return b.String()
}

// #endregion build-prompt
