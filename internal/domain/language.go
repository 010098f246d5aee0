package domain

// DefaultLanguage is assigned to rooms created without a prior record.
const DefaultLanguage = "javascript"

// Languages is the fixed set the editor supports. A language-change
// carrying anything else is dropped as malformed.
var Languages = []string{
	"javascript",
	"typescript",
	"python",
	"java",
	"c",
	"cpp",
	"csharp",
	"go",
	"rust",
	"php",
	"ruby",
}

var languageSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Languages))
	for _, l := range Languages {
		m[l] = struct{}{}
	}
	return m
}()

func LanguageSupported(lang string) bool {
	_, ok := languageSet[lang]
	return ok
}
