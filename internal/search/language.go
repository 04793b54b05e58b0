package search

import "golang.org/x/text/language"

// ResolveLanguage canonicalizes a BCP 47 language code ("he", "pt-BR").
// Codes that fail to parse fall back to the given default instead of being
// rejected; existing callers rely on the permissive behavior.
func ResolveLanguage(code, fallback string) string {
	if code == "" {
		return fallback
	}
	tag, err := language.Parse(code)
	if err != nil {
		return fallback
	}
	return tag.String()
}
