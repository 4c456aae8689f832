package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/subsearch/internal/entity"
	"github.com/eslsoft/subsearch/internal/repository"
	"github.com/eslsoft/subsearch/pkg/sqlbuilder"
)

const candidateColumns = `c.id, c.episode_id, c.position, c.start_ms, c.end_ms, c.duration_ms,
	c.difficulty, c.available, c.media_url, c.audio_url, e.content_item_id, ci.title`

const cardFrom = `FROM cards c
	JOIN episodes e ON e.id = c.episode_id
	JOIN content_items ci ON ci.id = e.content_item_id`

type cardSearchRepository struct {
	pool        *pgxpool.Pool
	paramBudget int
}

// NewCardSearchRepository constructs the pgx-backed search repository.
func NewCardSearchRepository(pool *pgxpool.Pool, paramBudget int) repository.CardSearchRepository {
	return &cardSearchRepository{pool: pool, paramBudget: paramBudget}
}

func (r *cardSearchRepository) SearchCandidates(ctx context.Context, q *repository.CardQuery) ([]entity.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := sqlbuilder.New(r.paramBudget)
	if err := appendCardPredicates(b, q); err != nil {
		return nil, err
	}
	sql, args, err := b.Build(
		"SELECT "+candidateColumns+" "+cardFrom,
		"ORDER BY c.id LIMIT ? OFFSET ?", q.Limit, q.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("build search statement: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	defer rows.Close()

	var candidates []entity.Candidate
	for rows.Next() {
		var cand entity.Candidate
		if err := rows.Scan(
			&cand.Card.ID, &cand.Card.EpisodeID, &cand.Card.Position,
			&cand.Card.StartMS, &cand.Card.EndMS, &cand.Card.DurationMS,
			&cand.Card.Difficulty, &cand.Card.Available,
			&cand.Card.MediaURL, &cand.Card.AudioURL,
			&cand.SourceID, &cand.SourceTitle,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	return candidates, nil
}

func (r *cardSearchRepository) CountMatches(ctx context.Context, q *repository.CardQuery) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b := sqlbuilder.New(r.paramBudget)
	if err := appendCardPredicates(b, q); err != nil {
		return 0, err
	}
	sql, args, err := b.Build("SELECT count(*) "+cardFrom, "")
	if err != nil {
		return 0, fmt.Errorf("build count statement: %w", err)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return total, nil
}

func (r *cardSearchRepository) CountBySource(ctx context.Context, q *repository.CardQuery) ([]entity.SourceCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := sqlbuilder.New(r.paramBudget)
	if err := appendCardPredicates(b, q); err != nil {
		return nil, err
	}
	sql, args, err := b.Build(
		"SELECT e.content_item_id, ci.title, count(*) "+cardFrom,
		"GROUP BY e.content_item_id, ci.title ORDER BY count(*) DESC, e.content_item_id",
	)
	if err != nil {
		return nil, fmt.Errorf("build source count statement: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	defer rows.Close()

	var counts []entity.SourceCount
	for rows.Next() {
		var sc entity.SourceCount
		if err := rows.Scan(&sc.SourceID, &sc.Title, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan source count: %w", err)
		}
		counts = append(counts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	return counts, nil
}

// appendCardPredicates contributes one clause per present filter. The order
// is fixed so generated statements are stable for a given filter set.
func appendCardPredicates(b *sqlbuilder.Builder, q *repository.CardQuery) error {
	req := q.Request

	b.Where("c.available")
	b.Where(`EXISTS (SELECT 1 FROM subtitle_texts ms
		WHERE ms.card_id = c.id AND ms.language = ci.main_language AND ms.text <> '')`)

	if req.MainLanguage != entity.LanguageUnspecified {
		b.Where("ci.main_language = ?", req.MainLanguage.Code())
	}

	if langs := req.SubtitleLanguages; len(langs) > 0 {
		codes := make([]any, len(langs))
		for i, lang := range langs {
			codes[i] = lang.Code()
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(codes)), ",")
		args := append(codes, len(codes))
		switch q.Plan {
		case repository.PlanIndexed:
			b.Where(`(SELECT count(*) FROM language_coverage lc
				WHERE lc.card_id = c.id AND lc.language IN (`+placeholders+`)) = ?`, args...)
		default:
			b.Where(`(SELECT count(DISTINCT sc.language) FROM subtitle_texts sc
				WHERE sc.card_id = c.id AND sc.language IN (`+placeholders+`) AND sc.text <> '') = ?`, args...)
		}
	}

	if len(req.SourceIDs) > 0 {
		b.WhereIn("e.content_item_id", sqlbuilder.Int64s(req.SourceIDs))
	}

	if req.Difficulty.Min != nil {
		b.Where("c.difficulty >= ?", *req.Difficulty.Min)
	}
	if req.Difficulty.Max != nil {
		b.Where("c.difficulty <= ?", *req.Difficulty.Max)
	}

	if len(q.AllowedLevels) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(q.AllowedLevels)), ",")
		args := make([]any, 0, len(q.AllowedLevels)+1)
		args = append(args, string(q.Framework))
		args = append(args, sqlbuilder.Strings(q.AllowedLevels)...)
		b.Where(`EXISTS (SELECT 1 FROM level_ratings lr
			WHERE lr.card_id = c.id AND lr.framework = ? AND lr.level IN (`+placeholders+`))`, args...)
	}

	if req.Length.Min != nil || req.Length.Max != nil {
		appendLengthPredicate(b, req)
	}

	if req.DurationMaxMS > 0 {
		b.Where("c.duration_ms <= ?", req.DurationMaxMS)
	}

	if req.Review.Min != nil || req.Review.Max != nil {
		appendReviewPredicate(b, req)
	}

	if q.HasPhrase {
		b.Where(`EXISTS (SELECT 1 FROM subtitle_texts pt
			WHERE pt.card_id = c.id AND pt.language = ? AND pt.text ILIKE ?)`,
			req.QueryLanguage().Code(), "%"+q.Phrase+"%")
	}

	return b.Err()
}

// appendLengthPredicate applies the derived length proxy: character count
// for CJK, a space-split word count for space-delimited scripts. Not a
// stored column, computed in the predicate.
func appendLengthPredicate(b *sqlbuilder.Builder, req *entity.SearchRequest) {
	lang := req.QueryLanguage()
	lengthExpr := "(char_length(lt.text) - char_length(replace(lt.text, ' ', '')) + 1)"
	if lang.IsCJK() {
		lengthExpr = "char_length(lt.text)"
	}

	conds := []string{"lt.card_id = c.id", "lt.language = ?"}
	args := []any{lang.Code()}
	if req.Length.Min != nil {
		conds = append(conds, lengthExpr+" >= ?")
		args = append(args, *req.Length.Min)
	}
	if req.Length.Max != nil {
		conds = append(conds, lengthExpr+" <= ?")
		args = append(args, *req.Length.Max)
	}
	b.Where("EXISTS (SELECT 1 FROM subtitle_texts lt WHERE "+strings.Join(conds, " AND ")+")", args...)
}

func appendReviewPredicate(b *sqlbuilder.Builder, req *entity.SearchRequest) {
	// Unreviewed cards count as zero reviews, so a 0..N range includes them.
	expr := `COALESCE((SELECT ur.review_count FROM user_card_reviews ur
		WHERE ur.user_id = ? AND ur.card_id = c.id), 0)`
	if req.Review.Min != nil && req.Review.Max != nil {
		b.Where(expr+" BETWEEN ? AND ?", req.UserID, *req.Review.Min, *req.Review.Max)
		return
	}
	if req.Review.Min != nil {
		b.Where(expr+" >= ?", req.UserID, *req.Review.Min)
		return
	}
	b.Where(expr+" <= ?", req.UserID, *req.Review.Max)
}
