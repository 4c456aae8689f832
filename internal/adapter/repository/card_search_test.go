package repository

import (
	"reflect"
	"strings"
	"testing"

	"github.com/eslsoft/subsearch/internal/entity"
	"github.com/eslsoft/subsearch/internal/repository"
	"github.com/eslsoft/subsearch/pkg/sqlbuilder"
)

func buildSearchSQL(t *testing.T, q *repository.CardQuery) (string, []any) {
	t.Helper()
	b := sqlbuilder.New(0)
	if err := appendCardPredicates(b, q); err != nil {
		t.Fatalf("append predicates: %v", err)
	}
	sql, args, err := b.Build(
		"SELECT "+candidateColumns+" "+cardFrom,
		"ORDER BY c.id LIMIT ? OFFSET ?", q.Limit, q.Offset,
	)
	if err != nil {
		t.Fatalf("build statement: %v", err)
	}
	return sql, args
}

// Both coverage plans must select the same cards: same language set, same
// full-coverage count, and identical statements everywhere outside the
// coverage clause.
func TestCoveragePlanVariantsAreEquivalent(t *testing.T) {
	req := &entity.SearchRequest{
		MainLanguage:      entity.LanguageEnglish,
		SubtitleLanguages: []entity.Language{entity.LanguageEnglish, entity.LanguageJapanese},
		SourceIDs:         []int64{7, 9},
	}
	indexed := &repository.CardQuery{Request: req, Plan: repository.PlanIndexed, Limit: 30}
	fallback := &repository.CardQuery{Request: req, Plan: repository.PlanFallback, Limit: 30}

	idxSQL, idxArgs := buildSearchSQL(t, indexed)
	fbSQL, fbArgs := buildSearchSQL(t, fallback)

	if !reflect.DeepEqual(idxArgs, fbArgs) {
		t.Fatalf("plans bind different args:\nindexed:  %v\nfallback: %v", idxArgs, fbArgs)
	}

	if !strings.Contains(idxSQL, "language_coverage") {
		t.Errorf("indexed plan must read the coverage table:\n%s", idxSQL)
	}
	if strings.Contains(fbSQL, "language_coverage") {
		t.Errorf("fallback plan must not touch the coverage table:\n%s", fbSQL)
	}
	if !strings.Contains(fbSQL, "count(DISTINCT sc.language)") {
		t.Errorf("fallback plan must count distinct subtitle languages:\n%s", fbSQL)
	}
	if !strings.Contains(fbSQL, "sc.text <> ''") {
		t.Errorf("fallback plan must skip empty subtitle rows:\n%s", fbSQL)
	}

	// Anchor on the clauses surrounding the coverage predicate; everything
	// before and after it must match byte for byte across plans.
	const before = "ci.main_language = $1 AND "
	const after = " AND e.content_item_id IN ($5,$6)"
	idxHead, idxTail := splitAround(t, idxSQL, before, after)
	fbHead, fbTail := splitAround(t, fbSQL, before, after)
	if idxHead != fbHead {
		t.Errorf("plans diverge before the coverage clause:\n%s\n%s", idxHead, fbHead)
	}
	if idxTail != fbTail {
		t.Errorf("plans diverge after the coverage clause:\n%s\n%s", idxTail, fbTail)
	}

	// Both demand full coverage of the same language set.
	for _, sql := range []string{idxSQL, fbSQL} {
		if !strings.Contains(sql, "IN ($2,$3)") || !strings.Contains(sql, ") = $4") {
			t.Errorf("coverage clause must count matches of the bound language set:\n%s", sql)
		}
	}
}

func splitAround(t *testing.T, sql, before, after string) (string, string) {
	t.Helper()
	i := strings.Index(sql, before)
	j := strings.Index(sql, after)
	if i < 0 || j < 0 {
		t.Fatalf("statement missing expected anchors %q / %q:\n%s", before, after, sql)
	}
	return sql[:i+len(before)], sql[j:]
}

func TestCardPredicatesBindEveryFilter(t *testing.T) {
	diffMin, diffMax := int32(10), int32(80)
	lenMin := int32(5)
	revMin, revMax := int32(0), int32(3)
	req := &entity.SearchRequest{
		MainLanguage:      entity.LanguageJapanese,
		SubtitleLanguages: []entity.Language{entity.LanguageJapanese, entity.LanguageEnglish},
		SourceIDs:         []int64{1, 2, 3},
		Difficulty:        entity.IntRange{Min: &diffMin, Max: &diffMax},
		Length:            entity.IntRange{Min: &lenMin},
		DurationMaxMS:     9000,
		Review:            entity.IntRange{Min: &revMin, Max: &revMax},
		UserID:            42,
	}
	q := &repository.CardQuery{
		Request:       req,
		Phrase:        "こんにちは",
		HasPhrase:     true,
		Framework:     entity.FrameworkJLPT,
		AllowedLevels: []string{"N4", "N3"},
		Plan:          repository.PlanIndexed,
		Limit:         30,
	}

	sql, args := buildSearchSQL(t, q)
	if got := strings.Count(sql, "$"); got != len(args) {
		t.Fatalf("statement binds %d placeholders for %d args:\n%s", got, len(args), sql)
	}

	for _, frag := range []string{
		"c.available",
		"c.difficulty >= $",
		"c.difficulty <= $",
		"c.duration_ms <= $",
		"lr.framework = $",
		"lr.level IN (",
		"COALESCE((SELECT ur.review_count",
		"pt.text ILIKE $",
		// Main language is CJK, so the length proxy counts characters.
		"char_length(lt.text) >= $",
	} {
		if !strings.Contains(sql, frag) {
			t.Errorf("statement missing %q:\n%s", frag, sql)
		}
	}
}
