package entity

// Card is the smallest searchable unit: one subtitle-bearing timed fragment
// within an Episode. Identity is immutable, metadata is not.
type Card struct {
	ID         int64
	EpisodeID  int64
	Position   int32
	StartMS    int64
	EndMS      int64
	DurationMS int64
	Difficulty int32 // 0..100
	Available  bool
	MediaURL   string
	AudioURL   string
}

// SubtitleText holds the raw text for one (card, language) pair. It is the
// source of truth for all search text.
type SubtitleText struct {
	ID       int64
	CardID   int64
	Language Language
	Text     string
}

// SearchTerm is a frequency-weighted autocomplete term. Built only by the
// background extractor, never mutated on the request path.
type SearchTerm struct {
	Term      string
	Language  Language
	Frequency int64
}
