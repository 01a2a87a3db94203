package transcription

import "sort"

// Language pairs a Whisper language code with its display name.
type Language struct {
	Code string
	Name string
}

var supportedLanguages = map[string]string{
	"auto": "Auto Detect",
	"en":   "English",
	"zh":   "Chinese",
	"ja":   "Japanese",
	"ko":   "Korean",
	"es":   "Spanish",
	"fr":   "French",
	"de":   "German",
	"ru":   "Russian",
	"ar":   "Arabic",
	"hi":   "Hindi",
	"pt":   "Portuguese",
	"it":   "Italian",
}

// IsSupportedLanguage reports whether code is a language the service
// accepts, including "auto" for detection.
func IsSupportedLanguage(code string) bool {
	_, ok := supportedLanguages[code]
	return ok
}

// SupportedLanguages returns the accepted languages sorted by code.
func SupportedLanguages() []Language {
	languages := make([]Language, 0, len(supportedLanguages))
	for code, name := range supportedLanguages {
		languages = append(languages, Language{Code: code, Name: name})
	}
	sort.Slice(languages, func(i, j int) bool { return languages[i].Code < languages[j].Code })
	return languages
}
