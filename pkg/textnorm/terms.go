package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/eslsoft/subsearch/internal/entity"
)

// N-gram bounds for CJK term extraction, which substitutes for word
// segmentation.
const (
	minNGram = 2
	maxNGram = 6
)

const minTermRunes = 2

// ExtractTerms tokenizes subtitle text into autocomplete terms with their
// occurrence counts. CJK text yields contiguous character n-grams, other
// scripts yield lowercased whitespace tokens.
func ExtractTerms(text string, lang entity.Language) map[string]int64 {
	cleaned := norm.NFKC.String(text)
	if strings.TrimSpace(cleaned) == "" {
		return nil
	}

	counts := make(map[string]int64)
	if lang.IsCJK() || ContainsCJK(cleaned) {
		extractNGrams(stripGloss(cleaned), counts)
	} else {
		extractWords(cleaned, counts)
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}

// extractNGrams emits all contiguous rune n-grams of length 2..6 within each
// run of letters and digits, so grams never span punctuation.
func extractNGrams(text string, counts map[string]int64) {
	for _, segment := range splitAlnumRuns(text) {
		runes := []rune(segment)
		for size := minNGram; size <= maxNGram; size++ {
			if len(runes) < size {
				break
			}
			for i := 0; i+size <= len(runes); i++ {
				counts[string(runes[i:i+size])]++
			}
		}
	}
}

func extractWords(text string, counts map[string]int64) {
	lowered := strings.ToLower(text)
	for _, token := range splitAlnumRuns(lowered) {
		if len([]rune(token)) < minTermRunes {
			continue
		}
		if !hasAlnum(token) {
			continue
		}
		counts[token]++
	}
}

func splitAlnumRuns(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
