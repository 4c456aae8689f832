package repository

import (
	"context"

	"github.com/eslsoft/subsearch/internal/entity"
)

// SearchTermRepository maintains the frequency-weighted autocomplete index.
// Mutation happens only from the background extractor.
type SearchTermRepository interface {
	UpsertBatch(ctx context.Context, terms []entity.SearchTerm) error
	Suggest(ctx context.Context, prefix string, lang entity.Language, limit int32) ([]entity.SearchTerm, error)
}
