package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eslsoft/subsearch/internal/entity"
)

// ResultCache stores marshalled response payloads with the time they were
// written. Implementations are expected to be shared across processes, so
// entries may be older than the configured TTL when eviction lags; callers
// re-check writtenAt on every hit.
type ResultCache interface {
	Get(ctx context.Context, key string) (payload []byte, writtenAt time.Time, ok bool, err error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// cacheKey derives a deterministic key from every field that changes the
// response. Slices are sorted first so logically equal requests collide.
func cacheKey(op string, req *entity.SearchRequest) string {
	langs := make([]string, 0, len(req.SubtitleLanguages))
	for _, lang := range req.SubtitleLanguages {
		langs = append(langs, lang.Code())
	}
	sort.Strings(langs)

	sources := make([]string, 0, len(req.SourceIDs))
	for _, id := range req.SourceIDs {
		sources = append(sources, fmt.Sprintf("%d", id))
	}
	sort.Strings(sources)

	parts := []string{
		op,
		strings.ToLower(strings.TrimSpace(req.FreeText)),
		req.MainLanguage.Code(),
		strings.Join(langs, ","),
		strings.Join(sources, ","),
		rangeKey(req.Difficulty),
		req.LevelMin,
		req.LevelMax,
		rangeKey(req.Length),
		fmt.Sprintf("%d", req.DurationMaxMS),
		rangeKey(req.Review),
		fmt.Sprintf("%d", req.UserID),
		req.Filter,
		fmt.Sprintf("%t", req.WithTotal),
		fmt.Sprintf("%d", req.Page),
		fmt.Sprintf("%d", req.Size),
	}
	return strings.Join(parts, "|")
}

func rangeKey(r entity.IntRange) string {
	var sb strings.Builder
	if r.Min != nil {
		fmt.Fprintf(&sb, "%d", *r.Min)
	}
	sb.WriteString("-")
	if r.Max != nil {
		fmt.Fprintf(&sb, "%d", *r.Max)
	}
	return sb.String()
}
