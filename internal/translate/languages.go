package translate

import "strings"

// Languages maps the supported ISO 639-1 codes to the names used in prompts.
var Languages = map[string]string{
	"ar": "Arabic",
	"zh": "Chinese",
	"en": "English",
	"fr": "French",
	"de": "German",
	"hi": "Hindi",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"pt": "Portuguese",
	"ru": "Russian",
	"es": "Spanish",
	"tr": "Turkish",
	"vi": "Vietnamese",
}

// NormalizeTarget lowercases code and falls back to English when the
// language is not supported.
func NormalizeTarget(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if _, ok := Languages[code]; !ok {
		return "en"
	}
	return code
}

// NormalizeSource lowercases code. Unsupported or empty codes return "",
// which lets the model detect the source language.
func NormalizeSource(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if _, ok := Languages[code]; !ok {
		return ""
	}
	return code
}

func instruction(verb, target, source string) string {
	s := verb + " to " + Languages[target]
	if source != "" {
		s += " from " + Languages[source]
	}
	return s
}
