package util

import "strings"

const (
	SeeMorePadding  = 500
	ZeroWidthSpace  = "\u200b"
	mentionSigil    = "@"
	maxMentionRunes = 40
)

// WithSeeMore puts header above a run of zero-width spaces so the chat client folds body
// behind its "see more" link.
func WithSeeMore(header, body string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	header = strings.TrimSpace(header)
	body = strings.TrimPrefix(body, header)
	body = strings.TrimLeft(body, "\r\n")

	var b strings.Builder
	b.Grow(len(header) + len(body) + SeeMorePadding*len(ZeroWidthSpace) + 1)
	b.WriteString(header)
	b.WriteString(strings.Repeat(ZeroWidthSpace, SeeMorePadding))
	b.WriteByte('\n')
	b.WriteString(body)
	return b.String()
}

// MentionTokens returns the @name tokens of text in order, without the sigil.
func MentionTokens(text string) []string {
	var out []string
	for _, field := range strings.Fields(text) {
		if !strings.HasPrefix(field, mentionSigil) {
			continue
		}
		if name := CleanMention(field); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// CleanMention strips the sigil, zero-width runes and trailing punctuation from a mention.
func CleanMention(s string) string {
	s = strings.ReplaceAll(s, ZeroWidthSpace, "")
	s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), mentionSigil))
	s = strings.TrimRight(s, ",.;:!?")
	if r := []rune(s); len(r) > maxMentionRunes {
		s = string(r[:maxMentionRunes])
	}
	return s
}
