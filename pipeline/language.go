package pipeline

import "strings"

// languageTable maps supported language codes to display names. Lookups are
// case-insensitive; the canonical code casing is what the speech service
// receives.
var languageTable = map[string]Language{
	"ko-kr": {"ko-KR", "Korean"},
	"en-us": {"en-US", "English"},
	"fr-fr": {"fr-FR", "French"},
	"de-de": {"de-DE", "German"},
	"es-es": {"es-ES", "Spanish"},
	"ja-jp": {"ja-JP", "Japanese"},
	"it-it": {"it-IT", "Italian"},
	"pr-br": {"pr-BR", "Portuguese"},
	"ru-ru": {"ru-RU", "Russian"},
	"zh-cn": {"zh-CN", "Chinese"},
}

type Language struct {
	Code        string
	DisplayName string
}

// ResolveLanguage looks up a language code from a filename segment.
func ResolveLanguage(code string) (Language, bool) {
	lang, ok := languageTable[strings.ToLower(code)]
	return lang, ok
}

// SupportedLanguages returns the canonical codes in the table.
func SupportedLanguages() []string {
	out := make([]string, 0, len(languageTable))
	for _, lang := range languageTable {
		out = append(out, lang.Code)
	}
	return out
}
