package validator

import (
	"strings"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
)

// SupportedLanguages is the curated list of output languages offered to users.
var SupportedLanguages = []models.Language{
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "ru", Name: "Russian"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "zh", Name: "Chinese (Simplified)"},
	{Code: "zh-TW", Name: "Chinese (Traditional)"},
	{Code: "ar", Name: "Arabic"},
	{Code: "hi", Name: "Hindi"},
	{Code: "th", Name: "Thai"},
	{Code: "vi", Name: "Vietnamese"},
	{Code: "nl", Name: "Dutch"},
	{Code: "sv", Name: "Swedish"},
	{Code: "da", Name: "Danish"},
	{Code: "no", Name: "Norwegian"},
	{Code: "fi", Name: "Finnish"},
	{Code: "pl", Name: "Polish"},
	{Code: "tr", Name: "Turkish"},
	{Code: "he", Name: "Hebrew"},
	{Code: "cs", Name: "Czech"},
	{Code: "hu", Name: "Hungarian"},
	{Code: "ro", Name: "Romanian"},
	{Code: "bg", Name: "Bulgarian"},
	{Code: "hr", Name: "Croatian"},
	{Code: "sk", Name: "Slovak"},
	{Code: "sl", Name: "Slovenian"},
	{Code: "et", Name: "Estonian"},
	{Code: "lv", Name: "Latvian"},
	{Code: "lt", Name: "Lithuanian"},
	{Code: "mt", Name: "Maltese"},
	{Code: "id", Name: "Indonesian"},
	{Code: "ms", Name: "Malay"},
	{Code: "tl", Name: "Filipino"},
	{Code: "sw", Name: "Swahili"},
	{Code: "fa", Name: "Persian"},
	{Code: "ur", Name: "Urdu"},
	{Code: "bn", Name: "Bengali"},
	{Code: "gu", Name: "Gujarati"},
	{Code: "ta", Name: "Tamil"},
	{Code: "te", Name: "Telugu"},
	{Code: "kn", Name: "Kannada"},
	{Code: "ml", Name: "Malayalam"},
	{Code: "mr", Name: "Marathi"},
	{Code: "ne", Name: "Nepali"},
	{Code: "si", Name: "Sinhala"},
}

// FallbackLanguages is served when the translation provider's catalog is unavailable.
var FallbackLanguages = []models.Language{
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "zh", Name: "Chinese"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "ar", Name: "Arabic"},
	{Code: "hi", Name: "Hindi"},
	{Code: "ru", Name: "Russian"},
}

// LookupLanguage finds a supported language by case-insensitive code.
func LookupLanguage(code string) (models.Language, bool) {
	for _, lang := range SupportedLanguages {
		if strings.EqualFold(lang.Code, code) {
			return lang, true
		}
	}
	return models.Language{}, false
}
