package language

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2 string // ISO 639-1 (2-letter)
	code3 string // ISO 639-2 primary (3-letter)
	nllb  string // NLLB-200 code used by the translation server
}

var languages = []entry{
	{"en", "eng", "eng_Latn"},
	{"es", "spa", "spa_Latn"},
	{"fr", "fra", "fra_Latn"},
	{"de", "deu", "deu_Latn"},
	{"pt", "por", "por_Latn"},
	{"ru", "rus", "rus_Cyrl"},
	{"ja", "jpn", "jpn_Jpan"},
	{"zh", "zho", "zho_Hans"},
	{"ar", "ara", "arb_Arab"},
	{"hi", "hin", "hin_Deva"},
	{"ko", "kor", "kor_Hang"},
	{"it", "ita", "ita_Latn"},
	{"tr", "tur", "tur_Latn"},
	{"vi", "vie", "vie_Latn"},
	{"pl", "pol", "pol_Latn"},
	{"uk", "ukr", "ukr_Cyrl"},
	{"nl", "nld", "nld_Latn"},
	{"th", "tha", "tha_Thai"},
	{"id", "ind", "ind_Latn"},
	{"bn", "ben", "ben_Beng"},
	{"el", "ell", "ell_Grek"},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	return nil
}

// IsSupported reports whether code names a language subtitles can be keyed by.
func IsSupported(code string) bool {
	return lookup(code) != nil
}

// ToISO2 converts a recognized 2- or 3-letter code to ISO 639-1.
// Returns empty string for unrecognized input.
func ToISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.code2
	}
	return ""
}

// NLLBCode maps a language code to the NLLB-200 code the translation server
// expects. Unrecognized input falls back to English, matching the server's
// own fallback.
func NLLBCode(code string) string {
	if e := lookup(code); e != nil {
		return e.nllb
	}
	return "eng_Latn"
}

// DisplayName returns the English display name for a supported code.
func DisplayName(code string) string {
	iso2 := ToISO2(code)
	if iso2 == "" {
		return ""
	}
	tag, err := language.Parse(iso2)
	if err != nil {
		return ""
	}
	return display.English.Tags().Name(tag)
}

// Supported returns the sorted list of supported ISO 639-1 codes.
func Supported() []string {
	codes := make([]string, 0, len(languages))
	for _, e := range languages {
		codes = append(codes, e.code2)
	}
	sort.Strings(codes)
	return codes
}

// NormalizeList lowercases, deduplicates, and drops unsupported codes while
// preserving order.
func NormalizeList(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		iso2 := ToISO2(code)
		if iso2 == "" {
			continue
		}
		if _, dup := seen[iso2]; dup {
			continue
		}
		seen[iso2] = struct{}{}
		out = append(out, iso2)
	}
	return out
}
