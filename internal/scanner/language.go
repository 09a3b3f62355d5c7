package scanner

import (
	"strings"
)

// languageMap maps file extensions to the languages the transpiler reads.
var languageMap = map[string]string{
	".py":  "python",
	".pyw": "python",
	".pyi": "python",
}

// DetectLanguage returns the programming language for a given file extension.
// Returns empty string if the extension is not recognized.
func DetectLanguage(ext string) string {
	// Normalize extension to lowercase
	ext = strings.ToLower(ext)

	if lang, ok := languageMap[ext]; ok {
		return lang
	}

	return ""
}
