package script

import (
	"fmt"
	"strings"
)

// Mode selects how gloss entries are applied.
type Mode string

// Glossing modes.
const (
	// ModeSequential rewrites the text once per entry, in table order.
	ModeSequential Mode = "sequential"
	// ModeSinglePass scans the original text once, taking the leftmost match
	// at each step. Table order breaks ties between keys starting at the same
	// position.
	ModeSinglePass Mode = "single-pass"
)

// ParseMode accepts "sequential" and "single-pass". Empty means sequential.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSequential:
		return ModeSequential, nil
	case ModeSinglePass, "singlepass", "single_pass":
		return ModeSinglePass, nil
	default:
		return "", fmt.Errorf("unknown gloss mode %q", s)
	}
}

// Annotate follows every occurrence of a gloss key with " [label]".
// Text without matches is returned unchanged.
func Annotate(text string, g *GlossTable, mode Mode) string {
	if g == nil || g.Table == nil || text == "" {
		return text
	}
	if mode == ModeSinglePass {
		return annotateSinglePass(text, g.entries)
	}
	return annotateSequential(text, g.entries)
}

func gloss(e Entry) string {
	return e.Key + " [" + e.Value + "]"
}

func annotateSequential(text string, entries []Entry) string {
	for _, e := range entries {
		text = strings.ReplaceAll(text, e.Key, gloss(e))
	}
	return text
}

func annotateSinglePass(text string, entries []Entry) string {
	var b strings.Builder
	i := 0
	for i < len(text) {
		best, at := -1, len(text)
		for k, e := range entries {
			if p := strings.Index(text[i:], e.Key); p >= 0 && i+p < at {
				best, at = k, i+p
			}
		}
		if best < 0 {
			break
		}
		b.WriteString(text[i:at])
		b.WriteString(gloss(entries[best]))
		i = at + len(entries[best].Key)
	}
	b.WriteString(text[i:])
	return b.String()
}
