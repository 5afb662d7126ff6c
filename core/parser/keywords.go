package parser

// keyword is a top-level DataLang keyword. Anything else in leading position
// is an entity name, unless it appears in foreignKeywords.
type keyword int

const (
	kwNone keyword = iota
	kwDictionary
	kwImport
	kwTerm
)

var keywords = map[string]keyword{
	"dictionary": kwDictionary,
	"import":     kwImport,
	"term":       kwTerm,
}

const (
	kwHas   = "has"
	kwTrait = "trait"
)

// foreignKeywords are words from general-purpose languages that are rejected
// as entity names. The value is the suggested DataLang replacement, or "".
var foreignKeywords = map[string]string{
	"function":  "term",
	"fn":        "term",
	"struct":    "term with struct-like syntax",
	"class":     "term with struct-like syntax",
	"interface": "term with struct-like syntax",
	"enum":      "term with variants",
	"use":       "import",
	"type":      "term",
	"test":      "term",
	"describe":  "term",
	"it":        "term",
	"impl":      "",
	"let":       "",
	"const":     "",
	"static":    "",
	"mod":       "",
	"var":       "",
	"pub":       "",
	"priv":      "",
	"private":   "",
	"public":    "",
	"return":    "",
	"if":        "",
	"else":      "",
	"while":     "",
	"for":       "",
	"match":     "",
	"loop":      "",
	"expect":    "",
	"assert":    "",
	"should":    "",
	"spec":      "",
}

// IsReserved reports whether word cannot start an entity declaration.
func IsReserved(word string) bool {
	if _, ok := keywords[word]; ok {
		return true
	}
	_, ok := foreignKeywords[word]
	return ok
}

// Suggest returns the DataLang replacement for a foreign keyword.
func Suggest(word string) (string, bool) {
	s, ok := foreignKeywords[word]
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
