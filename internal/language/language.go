package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

// bibliographic holds ISO 639-2/B codes, which x/text does not resolve.
var bibliographic = map[string]string{
	"alb": "sq",
	"arm": "hy",
	"baq": "eu",
	"bur": "my",
	"chi": "zh",
	"cze": "cs",
	"dut": "nl",
	"fre": "fr",
	"geo": "ka",
	"ger": "de",
	"gre": "el",
	"ice": "is",
	"mac": "mk",
	"mao": "mi",
	"may": "ms",
	"per": "fa",
	"rum": "ro",
	"slo": "sk",
	"tib": "bo",
	"wel": "cy",
}

var words = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"dutch":      "nl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
	"polish":     "pl",
}

// tagKeys are the stream tag names checked, in order, for a language value.
var tagKeys = []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}

// Normalize maps a language code, IETF tag or English language name to its
// ISO 639-1 code. Undetermined values ("und", "zxx", "mis", "mul") yield "".
// Values x/text cannot parse are returned lowercased as given.
func Normalize(value string) string {
	value = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(value, "\u0000", "")))
	switch value {
	case "", "und", "zxx", "mis", "mul":
		return ""
	}
	if code, ok := words[value]; ok {
		return code
	}
	if code, ok := bibliographic[value]; ok {
		return code
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(value, "_", "-"))
	if err != nil {
		return value
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return value
	}
	return base.String()
}

// FromTags returns the normalized language of a stream's metadata tags.
func FromTags(tags map[string]string) string {
	for _, key := range tagKeys {
		if code := Normalize(tags[key]); code != "" {
			return code
		}
	}
	return ""
}
