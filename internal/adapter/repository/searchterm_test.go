package repository

import (
	"strings"
	"testing"

	"github.com/eslsoft/subsearch/internal/entity"
)

func TestBuildTermUpsert(t *testing.T) {
	sql, args := buildTermUpsert([]entity.SearchTerm{
		{Term: "hello", Language: entity.LanguageEnglish, Frequency: 3},
		{Term: "こんに", Language: entity.LanguageJapanese, Frequency: 1},
	})

	if !strings.Contains(sql, "($1,$2,$3),($4,$5,$6)") {
		t.Errorf("expected one VALUES tuple per term:\n%s", sql)
	}
	if !strings.Contains(sql, "frequency = search_terms.frequency + EXCLUDED.frequency") {
		t.Errorf("upsert must accumulate frequencies:\n%s", sql)
	}
	want := []any{"hello", "en", int64(3), "こんに", "ja", int64(1)}
	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %d", len(want), len(args))
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: expected %v, got %v", i, want[i], args[i])
		}
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello", "hello"},
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
		{"100%_done", `100\%\_done`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
