package fold

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// Language identifiers handled by the engine.
const (
	LanguageJavaScript = "javascript"
	LanguageTypeScript = "typescript"
	LanguagePlainText  = "plaintext"
)

var scriptExtensions = map[string]string{
	".js":  LanguageJavaScript,
	".jsx": LanguageJavaScript,
	".mjs": LanguageJavaScript,
	".cjs": LanguageJavaScript,
	".ts":  LanguageTypeScript,
	".tsx": LanguageTypeScript,
	".mts": LanguageTypeScript,
	".cts": LanguageTypeScript,
}

// DetectLanguage returns the language identifier for a file name.
// JavaScript and TypeScript are recognised by extension; anything else is
// named after the matching chroma lexer, or LanguagePlainText.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if id, ok := scriptExtensions[ext]; ok {
		return id
	}

	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return LanguagePlainText
	}
	switch name := strings.ToLower(lexer.Config().Name); name {
	case "javascript", "react":
		return LanguageJavaScript
	case "typescript", "tsx":
		return LanguageTypeScript
	default:
		return strings.ReplaceAll(name, " ", "")
	}
}

// IsSupported reports whether languageID is JavaScript or TypeScript.
func IsSupported(languageID string) bool {
	return languageID == LanguageJavaScript || languageID == LanguageTypeScript
}
