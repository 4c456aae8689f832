package textnorm

import (
	"strings"
	"testing"

	"github.com/eslsoft/subsearch/internal/entity"
)

func TestNormalizeQuery(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		hint   entity.Language
		want   string
		wantOK bool
	}{
		{
			name:   "plain tokens",
			raw:    "  the Quick, brown fox! ",
			want:   "the Quick brown fox",
			wantOK: true,
		},
		{
			name:   "quoted exact phrase",
			raw:    `"hello,   world"`,
			want:   "hello world",
			wantOK: true,
		},
		{
			name:   "cjk strips whitespace and gloss",
			raw:    "漢字（かんじ） を 学ぶ",
			want:   "漢字を学ぶ",
			wantOK: true,
		},
		{
			name:   "cjk hint forces phrase mode",
			raw:    "こんにちは 世界",
			hint:   entity.LanguageJapanese,
			want:   "こんにちは世界",
			wantOK: true,
		},
		{
			name:   "bracketed pinyin removed",
			raw:    "你好[nǐ hǎo]世界",
			want:   "你好世界",
			wantOK: true,
		},
		{
			name:   "empty input",
			raw:    "   ",
			wantOK: false,
		},
		{
			name:   "punctuation only",
			raw:    "!!! ---",
			wantOK: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeQuery(tc.raw, tc.hint)
			if ok != tc.wantOK {
				t.Fatalf("NormalizeQuery(%q) ok = %v, want %v", tc.raw, ok, tc.wantOK)
			}
			if got != tc.want {
				t.Errorf("NormalizeQuery(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeQueryCapsTokens(t *testing.T) {
	words := make([]string, 20)
	for i := range words {
		words[i] = "word" + string(rune('a'+i))
	}
	phrase, ok := NormalizeQuery(strings.Join(words, " "), entity.LanguageEnglish)
	if !ok {
		t.Fatal("expected a phrase")
	}
	got := strings.Fields(phrase)
	if len(got) != MaxQueryTokens {
		t.Fatalf("expected %d tokens, got %d (%q)", MaxQueryTokens, len(got), phrase)
	}
	for i, token := range got {
		if token != words[i] {
			t.Errorf("token %d = %q, want %q (order must be preserved)", i, token, words[i])
		}
	}
}

func TestExtractTermsWords(t *testing.T) {
	counts := ExtractTerms("The cat and the cat's hat, a hat!", entity.LanguageEnglish)
	if counts["the"] != 3 {
		t.Errorf(`counts["the"] = %d, want 3`, counts["the"])
	}
	if counts["cat"] != 2 {
		t.Errorf(`counts["cat"] = %d, want 2`, counts["cat"])
	}
	if counts["hat"] != 2 {
		t.Errorf(`counts["hat"] = %d, want 2`, counts["hat"])
	}
	if _, ok := counts["a"]; ok {
		t.Error("single-rune token should be dropped")
	}
	if _, ok := counts["s"]; ok {
		t.Error("possessive remainder should be dropped")
	}
}

func TestExtractTermsCJKNGrams(t *testing.T) {
	counts := ExtractTerms("日本語（にほんご）", entity.LanguageJapanese)
	for _, want := range []string{"日本", "本語", "日本語"} {
		if counts[want] == 0 {
			t.Errorf("expected n-gram %q to be extracted", want)
		}
	}
	for gram := range counts {
		if strings.ContainsAny(gram, "にほんご") {
			t.Errorf("gloss content leaked into term %q", gram)
		}
		if n := len([]rune(gram)); n < 2 || n > 6 {
			t.Errorf("n-gram %q outside 2..6 rune bounds", gram)
		}
	}
}

func TestExtractTermsEmpty(t *testing.T) {
	if counts := ExtractTerms("  ... ", entity.LanguageEnglish); counts != nil {
		t.Fatalf("expected nil counts, got %v", counts)
	}
}
