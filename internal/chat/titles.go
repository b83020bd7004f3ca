package chat

import (
	"context"
	"strings"
)

// TitleGenerator synthesizes a short conversation title from the first
// message of a new session.
type TitleGenerator interface {
	Title(ctx context.Context, firstMessage string) string
}

// WordClampTitler is the default TitleGenerator: the first message clamped to
// MaxLen characters on a word boundary.
type WordClampTitler struct {
	MaxLen int
}

func (t WordClampTitler) Title(_ context.Context, firstMessage string) string {
	maxLen := t.MaxLen
	if maxLen <= 0 {
		maxLen = 40
	}

	words := strings.Fields(firstMessage)
	if len(words) == 0 {
		return "New conversation"
	}

	title := words[0]
	for _, w := range words[1:] {
		if len(title)+1+len(w) > maxLen {
			break
		}
		title += " " + w
	}
	if r := []rune(title); len(r) > maxLen {
		title = string(r[:maxLen])
	}
	return title
}
