package llm

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(testStates, []string{"user is typing", "window focused"})

	for _, want := range []string{
		"- idle", "- active", "- blocked",
		"no user activity", "user is typing", "window focused",
		`"state"`, `"confidence"`, `"reasoning"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Sorted state order makes the prompt deterministic across runs.
	if strings.Index(prompt, "- active") > strings.Index(prompt, "- idle") {
		t.Error("states not rendered in sorted order")
	}
}

func TestBuildPrompt_NoFacts(t *testing.T) {
	prompt := BuildPrompt(testStates, nil)
	if !strings.Contains(prompt, "(none)") {
		t.Error("empty fact list should render a placeholder")
	}
}
