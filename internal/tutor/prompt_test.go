package tutor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPromptIsDeterministic(t *testing.T) {
	t.Parallel()

	req := Request{
		Problem:        "What is a derivative?",
		SystemPrompt:   "You are Ms. Khan's maths tutor.",
		ExampleAnswers: []string{"first", "second"},
	}
	require.Equal(t, BuildPrompt(req), BuildPrompt(req))
}

func TestBuildPromptSubstitutesDefaultPersona(t *testing.T) {
	t.Parallel()

	out := BuildPrompt(Request{Problem: "solve x", SystemPrompt: "   "})
	require.True(t, strings.HasPrefix(out, defaultPersona))
	require.True(t, strings.HasSuffix(out, "solve x"))
}

func TestBuildPromptUsesCustomPersonaVerbatim(t *testing.T) {
	t.Parallel()

	out := BuildPrompt(Request{Problem: "solve x", SystemPrompt: "Be brief."})
	require.True(t, strings.HasPrefix(out, "Be brief."))
	require.NotContains(t, out, defaultPersona)
}

func TestBuildPromptListsExamplesInOrder(t *testing.T) {
	t.Parallel()

	out := BuildPrompt(Request{
		Problem:        "problem",
		ExampleAnswers: []string{"alpha", "beta", "gamma"},
	})

	require.Contains(t, out, "Examples of good answers:")
	var bullets []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "- ") {
			bullets = append(bullets, strings.TrimPrefix(line, "- "))
		}
	}
	require.Equal(t, []string{"alpha", "beta", "gamma"}, bullets)

	// Problem statement comes last.
	require.True(t, strings.HasSuffix(out, "problem"))
}

func TestBuildPromptOmitsExampleSectionWhenEmpty(t *testing.T) {
	t.Parallel()

	out := BuildPrompt(Request{Problem: "p"})
	require.NotContains(t, out, "Examples of good answers:")
}
