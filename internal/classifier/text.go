package classifier

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z]+`)

var stopwords = map[string]bool{
	"a": true, "about": true, "all": true, "am": true, "an": true, "and": true, "any": true,
	"are": true, "as": true, "at": true, "be": true, "been": true, "but": true, "by": true,
	"can": true, "could": true, "did": true, "do": true, "does": true, "for": true, "from": true,
	"had": true, "has": true, "have": true, "how": true, "i": true, "if": true, "in": true,
	"is": true, "it": true, "its": true, "me": true, "my": true, "of": true, "on": true,
	"or": true, "our": true, "please": true, "so": true, "that": true, "the": true, "their": true,
	"there": true, "these": true, "this": true, "those": true, "to": true, "was": true, "we": true,
	"were": true, "what": true, "when": true, "which": true, "who": true, "will": true,
	"with": true, "would": true, "you": true, "your": true,
}

// tokenize lowercases, keeps alphabetic tokens, drops stopwords and lemmatizes plurals.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if stopwords[tok] {
			continue
		}
		tokens = append(tokens, lemmatize(tok))
	}
	return tokens
}

func lemmatize(word string) string {
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return strings.TrimSuffix(word, "ies") + "y"
	case strings.HasSuffix(word, "sses"):
		return strings.TrimSuffix(word, "es")
	case len(word) > 3 && strings.HasSuffix(word, "s") &&
		!strings.HasSuffix(word, "ss") && !strings.HasSuffix(word, "us") && !strings.HasSuffix(word, "is"):
		return strings.TrimSuffix(word, "s")
	}
	return word
}
