package subtitle

import "strings"

// Replacement rewrites one recurring misrecognition.
type Replacement struct {
	From string
	To   string
}

// ApplyCorrections rewrites cue text with the correction lexicon. Matching
// is whole-word and case-insensitive on the first letter, so "hive" and
// "Hive" both correct.
func ApplyCorrections(cues []Cue, rules []Replacement) []Cue {
	if len(rules) == 0 {
		return cues
	}
	out := make([]Cue, len(cues))
	for i, cue := range cues {
		text := cue.Text
		for _, rule := range rules {
			if rule.From == "" {
				continue
			}
			text = replaceWord(text, rule.From, rule.To)
		}
		cue.Text = text
		out[i] = cue
	}
	return out
}

func replaceWord(text, from, to string) string {
	variants := []string{from}
	if flipped := flipCase(from); flipped != from {
		variants = append(variants, flipped)
	}
	for _, variant := range variants {
		fields := strings.Fields(text)
		changed := false
		for i, field := range fields {
			trimmed := strings.Trim(field, ".,!?;:\"'")
			if trimmed == variant {
				fields[i] = strings.Replace(field, trimmed, matchCase(to, trimmed), 1)
				changed = true
			}
		}
		if changed {
			text = strings.Join(fields, " ")
		}
	}
	return text
}

func flipCase(word string) string {
	if word == "" {
		return word
	}
	first := word[:1]
	if strings.ToUpper(first) == first {
		return strings.ToLower(first) + word[1:]
	}
	return strings.ToUpper(first) + word[1:]
}

func matchCase(replacement, matched string) string {
	if matched == "" || replacement == "" {
		return replacement
	}
	if matched[:1] == strings.ToUpper(matched[:1]) {
		return strings.ToUpper(replacement[:1]) + replacement[1:]
	}
	return replacement
}
