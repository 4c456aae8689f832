package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/subsearch/internal/entity"
	"github.com/eslsoft/subsearch/internal/repository"
	"github.com/eslsoft/subsearch/pkg/sqlbuilder"
)

type subtitleRepository struct {
	pool *pgxpool.Pool
}

// NewSubtitleRepository constructs the pgx-backed subtitle reader.
func NewSubtitleRepository(pool *pgxpool.Pool) repository.SubtitleRepository {
	return &subtitleRepository{pool: pool}
}

func (r *subtitleRepository) TextsForCards(ctx context.Context, cardIDs []int64, langs []entity.Language) ([]entity.SubtitleText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(cardIDs) == 0 {
		return nil, nil
	}

	b := sqlbuilder.New(0)
	b.WhereIn("st.card_id", sqlbuilder.Int64s(cardIDs))
	if len(langs) > 0 {
		codes := make([]string, len(langs))
		for i, lang := range langs {
			codes[i] = lang.Code()
		}
		b.WhereIn("st.language", sqlbuilder.Strings(codes))
	}
	b.Where("st.text <> ''")

	sql, args, err := b.Build(
		"SELECT st.id, st.card_id, st.language, st.text FROM subtitle_texts st", "")
	if err != nil {
		return nil, fmt.Errorf("build subtitle batch: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch subtitles: %w", err)
	}
	defer rows.Close()

	return scanSubtitleRows(rows)
}

func (r *subtitleRepository) ScanAfter(ctx context.Context, afterID int64, limit int32) ([]entity.SubtitleText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT st.id, st.card_id, st.language, st.text FROM subtitle_texts st
		 WHERE st.id > $1 ORDER BY st.id LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("scan subtitles: %w", err)
	}
	defer rows.Close()

	return scanSubtitleRows(rows)
}

func scanSubtitleRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]entity.SubtitleText, error) {
	var texts []entity.SubtitleText
	for rows.Next() {
		var st entity.SubtitleText
		var lang string
		if err := rows.Scan(&st.ID, &st.CardID, &lang, &st.Text); err != nil {
			return nil, fmt.Errorf("scan subtitle: %w", err)
		}
		st.Language = entity.ParseLanguage(lang)
		texts = append(texts, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	return texts, nil
}
