// Package textnorm turns raw user input and subtitle text into the exact
// phrases and terms the search layer matches on. Matching is always literal
// substring matching; there is no stemming and no relevance scoring, because
// entry is typeahead-driven and users submit a suggested phrase.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/eslsoft/subsearch/internal/entity"
)

// MaxQueryTokens bounds predicate cost for space-delimited queries.
const MaxQueryTokens = 8

// Precompiled once at startup; never mutated afterwards.
var (
	// Bracketed spans carry phonetic glosses (furigana, pinyin) in source
	// text and must not take part in matching.
	glossPattern = regexp.MustCompile(`\([^)]*\)|（[^）]*）|【[^】]*】|〔[^〕]*〕|\[[^\]]*\]`)

	nonAlnumPattern   = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

var quoteRunes = map[rune]struct{}{
	'"': {}, '\'': {}, '“': {}, '”': {}, '‘': {}, '’': {},
	'「': {}, '」': {}, '『': {}, '』': {},
}

// NormalizeQuery converts a free-text query into the literal phrase used for
// substring matching. ok is false when nothing matchable remains, which
// callers must treat as "no match possible".
func NormalizeQuery(raw string, hint entity.Language) (phrase string, ok bool) {
	cleaned := norm.NFKC.String(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", false
	}

	if ContainsCJK(cleaned) || hint.IsCJK() {
		phrase = stripGloss(cleaned)
		phrase = whitespacePattern.ReplaceAllString(phrase, "")
		phrase = trimQuotes(phrase)
		return phrase, phrase != ""
	}

	if isQuoted(cleaned) {
		phrase = trimQuotes(cleaned)
		phrase = strings.TrimSpace(nonAlnumPattern.ReplaceAllString(phrase, " "))
		return phrase, phrase != ""
	}

	tokens := strings.Fields(nonAlnumPattern.ReplaceAllString(cleaned, " "))
	if len(tokens) == 0 {
		return "", false
	}
	if len(tokens) > MaxQueryTokens {
		tokens = tokens[:MaxQueryTokens]
	}
	return strings.Join(tokens, " "), true
}

// ContainsCJK reports whether the string holds Han, Hiragana or Katakana
// characters.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			return true
		}
	}
	return false
}

func stripGloss(s string) string {
	return glossPattern.ReplaceAllString(s, "")
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	runes := []rune(s)
	_, first := quoteRunes[runes[0]]
	_, last := quoteRunes[runes[len(runes)-1]]
	return first && last
}

func trimQuotes(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		_, ok := quoteRunes[r]
		return ok
	})
}
