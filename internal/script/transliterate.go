package script

import "strings"

// Transliterate maps each archaic symbol through the table and concatenates
// the results. Symbols missing from the table are copied unchanged, so the
// output holds at least one unit per input symbol.
func Transliterate(symbols []string, t *TransliterationTable) string {
	var b strings.Builder
	for _, s := range symbols {
		if t != nil && t.Table != nil {
			if m, ok := t.Lookup(s); ok {
				b.WriteString(m)
				continue
			}
		}
		b.WriteString(s)
	}
	return b.String()
}

// TransliterateText splits text into code points and transliterates each.
// Multi-code-point table keys are not matched.
func TransliterateText(text string, t *TransliterationTable) string {
	symbols := make([]string, 0, len(text))
	for _, r := range text {
		symbols = append(symbols, string(r))
	}
	return Transliterate(symbols, t)
}
