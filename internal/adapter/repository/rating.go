package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/subsearch/internal/entity"
	"github.com/eslsoft/subsearch/internal/repository"
	"github.com/eslsoft/subsearch/pkg/sqlbuilder"
)

type ratingRepository struct {
	pool *pgxpool.Pool
}

// NewRatingRepository constructs the pgx-backed level rating reader.
func NewRatingRepository(pool *pgxpool.Pool) repository.RatingRepository {
	return &ratingRepository{pool: pool}
}

func (r *ratingRepository) ForCards(ctx context.Context, cardIDs []int64) ([]entity.LevelRating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(cardIDs) == 0 {
		return nil, nil
	}

	b := sqlbuilder.New(0)
	b.WhereIn("lr.card_id", sqlbuilder.Int64s(cardIDs))
	sql, args, err := b.Build(
		"SELECT lr.card_id, lr.framework, lr.level, lr.language FROM level_ratings lr", "")
	if err != nil {
		return nil, fmt.Errorf("build rating batch: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch ratings: %w", err)
	}
	defer rows.Close()

	var ratings []entity.LevelRating
	for rows.Next() {
		var rating entity.LevelRating
		var framework, lang string
		if err := rows.Scan(&rating.CardID, &framework, &rating.Level, &lang); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		rating.Framework = entity.Framework(framework)
		rating.Language = entity.ParseLanguage(lang)
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read ratings: %w", err)
	}
	return ratings, nil
}
