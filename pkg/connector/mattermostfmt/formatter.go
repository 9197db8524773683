// Copyright 2024-2026 Aiku AI

// Package mattermostfmt renders untrusted text into Mattermost markdown
// without letting it change the surrounding formatting.
package mattermostfmt

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "…"

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`~`, `\~`,
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`#`, `\#`,
	`>`, `\>`,
	`|`, `\|`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// Escape backslash-escapes markdown punctuation and folds line breaks into
// spaces, so the result stays on one line (e.g. inside a table cell).
func Escape(text string) string {
	return escaper.Replace(text)
}

// InlineCode wraps text in a code span. The fence is one backtick longer
// than the longest backtick run in text, so text cannot close it early.
func InlineCode(text string) string {
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	if strings.TrimSpace(text) == "" {
		return "_(empty)_"
	}
	fence := strings.Repeat("`", longestRun(text, '`')+1)
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") {
		return fence + " " + text + " " + fence
	}
	return fence + text + fence
}

// CodeBlock wraps text in a fenced block that text cannot terminate.
func CodeBlock(text string) string {
	fence := strings.Repeat("`", max(3, longestRun(text, '`')+1))
	return fence + "\n" + strings.TrimRight(text, "\n") + "\n" + fence
}

// Truncate shortens text to at most limit runes, marking the cut with an
// ellipsis. It never splits a UTF-8 sequence.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	cut := 0
	for i := 0; i < limit-1; i++ {
		_, size := utf8.DecodeRuneInString(text[cut:])
		cut += size
	}
	return text[:cut] + ellipsis
}

func longestRun(text string, ch byte) int {
	longest, current := 0, 0
	for i := 0; i < len(text); i++ {
		if text[i] == ch {
			current++
			longest = max(longest, current)
		} else {
			current = 0
		}
	}
	return longest
}
