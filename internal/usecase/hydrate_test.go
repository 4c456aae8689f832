package usecase

import (
	"context"
	"testing"

	"github.com/eslsoft/subsearch/internal/entity"
)

func TestHydrateAttachesTextsAndRatings(t *testing.T) {
	subs := &fakeSubtitleRepo{texts: map[int64][]entity.SubtitleText{
		1: {
			{CardID: 1, Language: entity.LanguageEnglish, Text: "hello"},
			{CardID: 1, Language: entity.LanguageJapanese, Text: "こんにちは"},
		},
		2: {
			{CardID: 2, Language: entity.LanguageEnglish, Text: "bye"},
		},
	}}
	ratings := &fakeRatingRepo{ratings: map[int64][]entity.LevelRating{
		1: {{CardID: 1, Framework: entity.FrameworkCEFR, Level: "B1"}},
	}}
	h := newHydrator(subs, ratings, testLogger(), 4, 10)

	items := h.hydrate(context.Background(),
		[]entity.Candidate{candidate(1, 10), candidate(2, 10)},
		[]entity.Language{entity.LanguageEnglish, entity.LanguageJapanese})

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Subtitles[entity.LanguageJapanese] != "こんにちは" {
		t.Errorf("missing Japanese text: %+v", items[0].Subtitles)
	}
	if len(items[0].Ratings) != 1 || items[0].Ratings[0].Level != "B1" {
		t.Errorf("missing rating: %+v", items[0].Ratings)
	}
	if len(items[1].Ratings) != 0 {
		t.Errorf("unexpected ratings on card 2: %+v", items[1].Ratings)
	}
}

func TestHydrateFiltersToRequestedLanguages(t *testing.T) {
	subs := &fakeSubtitleRepo{texts: map[int64][]entity.SubtitleText{
		1: {
			{CardID: 1, Language: entity.LanguageEnglish, Text: "hello"},
			{CardID: 1, Language: entity.LanguageGerman, Text: "hallo"},
		},
	}}
	h := newHydrator(subs, &fakeRatingRepo{}, testLogger(), 4, 10)

	items := h.hydrate(context.Background(),
		[]entity.Candidate{candidate(1, 10)},
		[]entity.Language{entity.LanguageEnglish})

	if _, ok := items[0].Subtitles[entity.LanguageGerman]; ok {
		t.Error("unrequested language leaked into the result")
	}
	if items[0].Subtitles[entity.LanguageEnglish] != "hello" {
		t.Errorf("requested language missing: %+v", items[0].Subtitles)
	}
}

func TestHydrateDegradesFailedBatch(t *testing.T) {
	subs := &fakeSubtitleRepo{
		texts: map[int64][]entity.SubtitleText{
			1: {{CardID: 1, Language: entity.LanguageEnglish, Text: "hello"}},
			2: {{CardID: 2, Language: entity.LanguageEnglish, Text: "bye"}},
		},
		failFor: map[int64]bool{2: true},
	}
	h := newHydrator(subs, &fakeRatingRepo{}, testLogger(), 4, 1)

	items := h.hydrate(context.Background(),
		[]entity.Candidate{candidate(1, 10), candidate(2, 10)}, nil)

	if len(items) != 2 {
		t.Fatalf("expected both candidates to survive, got %d", len(items))
	}
	if items[0].Subtitles[entity.LanguageEnglish] != "hello" {
		t.Errorf("healthy batch lost its text: %+v", items[0].Subtitles)
	}
	// The failed batch keeps its card with empty hydration data.
	if items[1].Card.ID != 2 {
		t.Fatalf("expected card 2 in position 1, got %d", items[1].Card.ID)
	}
	if len(items[1].Subtitles) != 0 {
		t.Errorf("failed batch must degrade to empty subtitles: %+v", items[1].Subtitles)
	}
}

func TestHydrateLanguagesIncludesQueryLanguage(t *testing.T) {
	req := &entity.SearchRequest{
		MainLanguage:      entity.LanguageJapanese,
		SubtitleLanguages: []entity.Language{entity.LanguageEnglish, entity.LanguageJapanese},
	}
	langs := hydrateLanguages(req)
	if len(langs) != 2 {
		t.Fatalf("expected deduplicated 2 languages, got %v", langs)
	}
	if langs[0] != entity.LanguageJapanese {
		t.Errorf("query language must come first, got %v", langs)
	}

	if langs := hydrateLanguages(&entity.SearchRequest{}); langs != nil {
		t.Errorf("no subtitle filter should hydrate all languages, got %v", langs)
	}
}
