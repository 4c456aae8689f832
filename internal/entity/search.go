package entity

// Caps applied to incoming search requests before query construction. These
// exist to keep any single statement inside the store's bound-parameter
// budget and the per-request execution budget.
const (
	MaxPageSize         = 50
	DefaultPageSize     = 20
	MaxSourceFilter     = 100
	OverfetchFactor     = 1.5
	MaxOverfetch        = 75
	MaxSuggestLimit     = 20
	DefaultSuggestLimit = 10
)

// UnknownTotal is returned as ApproxTotal when the caller did not opt into
// the exact match count.
const UnknownTotal int64 = -1

// IntRange is an optional inclusive numeric range; nil bounds are open.
type IntRange struct {
	Min *int32
	Max *int32
}

// SearchRequest is the full filter shape of the card search operation and of
// the companion per-source counts operation.
type SearchRequest struct {
	FreeText          string
	MainLanguage      Language
	SubtitleLanguages []Language
	SourceIDs         []int64
	Difficulty        IntRange
	LevelMin          string
	LevelMax          string
	Length            IntRange
	DurationMaxMS     int64
	Review            IntRange
	UserID            int64

	// Filter is an optional CEL expression bound onto the request as an
	// alternative to the structured fields.
	Filter string

	WithTotal bool
	Page      int32
	Size      int32
}

// Normalize clamps pagination and defensive caps in place and validates
// filter combinations that cannot be expressed.
func (r *SearchRequest) Normalize() error {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	if len(r.SourceIDs) > MaxSourceFilter {
		r.SourceIDs = r.SourceIDs[:MaxSourceFilter]
	}
	if (r.Review.Min != nil || r.Review.Max != nil) && r.UserID <= 0 {
		return ErrUserRequired
	}
	return nil
}

// QueryLanguage is the language free-text and length filters are scoped to.
func (r *SearchRequest) QueryLanguage() Language {
	if r.MainLanguage != LanguageUnspecified {
		return r.MainLanguage
	}
	return LanguageEnglish
}

// Overfetch returns the inflated fetch limit that leaves the diversifier
// headroom without a second round-trip.
func (r *SearchRequest) Overfetch() int32 {
	n := int32(float64(r.Size)*OverfetchFactor + 0.5)
	if n < r.Size {
		n = r.Size
	}
	if n > MaxOverfetch {
		n = MaxOverfetch
	}
	return n
}

// Candidate is one row selected by the search statement: card metadata plus
// the owning source, before hydration.
type Candidate struct {
	Card        Card
	SourceID    int64
	SourceTitle string
}

// SearchItem is a fully hydrated result entry.
type SearchItem struct {
	Card        Card
	SourceID    int64
	SourceTitle string
	Subtitles   map[Language]string
	Ratings     []LevelRating
}

// SearchResponse is the paginated, diversified result page.
type SearchResponse struct {
	Items       []SearchItem
	ApproxTotal int64
	Page        int32
	Size        int32
	// Degraded marks responses produced after a store failure; search is
	// advisory, so these are served empty instead of failing hard.
	Degraded bool
}

// SourceCount is one row of the counts-per-source companion operation.
type SourceCount struct {
	SourceID int64
	Title    string
	Count    int64
}
