package repository

import (
	"context"

	"github.com/eslsoft/subsearch/internal/entity"
)

// SubtitleRepository reads subtitle text, both for hydration batches and for
// the background term extractor's ordered scan.
type SubtitleRepository interface {
	// TextsForCards fetches subtitle rows for one hydration batch. langs
	// empty means all languages.
	TextsForCards(ctx context.Context, cardIDs []int64, langs []entity.Language) ([]entity.SubtitleText, error)
	// ScanAfter returns up to limit rows with id > afterID in ascending id
	// order, for checkpointed batch scans.
	ScanAfter(ctx context.Context, afterID int64, limit int32) ([]entity.SubtitleText, error)
}

// RatingRepository reads proficiency level ratings for hydration batches.
type RatingRepository interface {
	ForCards(ctx context.Context, cardIDs []int64) ([]entity.LevelRating, error)
}
