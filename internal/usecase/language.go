package usecase

import (
	"path/filepath"
	"strings"
)

// Language names the source language of a file and the documentation
// convention the model is asked to follow.
type Language struct {
	Name     string
	DocStyle string
}

var genericLanguage = Language{Name: "source", DocStyle: "documentation comments"}

// subject is how prompts address the developer's expertise. The generic
// fallback reads as "software" rather than "source".
func (l Language) subject() string {
	if l.Name == genericLanguage.Name {
		return "software"
	}
	return l.Name
}

var languagesByExt = map[string]Language{
	".py":    {Name: "Python", DocStyle: "docstrings"},
	".go":    {Name: "Go", DocStyle: "Go doc comments"},
	".js":    {Name: "JavaScript", DocStyle: "JSDoc comments"},
	".mjs":   {Name: "JavaScript", DocStyle: "JSDoc comments"},
	".ts":    {Name: "TypeScript", DocStyle: "TSDoc comments"},
	".tsx":   {Name: "TypeScript", DocStyle: "TSDoc comments"},
	".java":  {Name: "Java", DocStyle: "Javadoc comments"},
	".kt":    {Name: "Kotlin", DocStyle: "KDoc comments"},
	".rs":    {Name: "Rust", DocStyle: "rustdoc comments"},
	".rb":    {Name: "Ruby", DocStyle: "YARD comments"},
	".php":   {Name: "PHP", DocStyle: "PHPDoc comments"},
	".cs":    {Name: "C#", DocStyle: "XML documentation comments"},
	".c":     {Name: "C", DocStyle: "Doxygen comments"},
	".h":     {Name: "C", DocStyle: "Doxygen comments"},
	".cpp":   {Name: "C++", DocStyle: "Doxygen comments"},
	".hpp":   {Name: "C++", DocStyle: "Doxygen comments"},
	".swift": {Name: "Swift", DocStyle: "Swift markup comments"},
	".scala": {Name: "Scala", DocStyle: "Scaladoc comments"},
	".sh":    {Name: "shell", DocStyle: "comments"},
}

// detectLanguage picks the language from the file extension. override, when
// non-empty, wins and keeps the doc style of a known language of that name.
func detectLanguage(path, override string) Language {
	if name := strings.TrimSpace(override); name != "" {
		for _, l := range languagesByExt {
			if strings.EqualFold(l.Name, name) {
				return l
			}
		}
		return Language{Name: name, DocStyle: genericLanguage.DocStyle}
	}
	if l, ok := languagesByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return l
	}
	return genericLanguage
}
