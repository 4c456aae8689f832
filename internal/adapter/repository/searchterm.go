package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/eslsoft/subsearch/internal/entity"
	"github.com/eslsoft/subsearch/internal/repository"
)

type searchTermRepository struct {
	pool        *pgxpool.Pool
	upsertChunk int
}

// NewSearchTermRepository constructs the pgx-backed autocomplete term store.
// upsertChunk caps the rows per INSERT statement; chunk <= 0 selects a
// default that stays well inside the bind-parameter ceiling.
func NewSearchTermRepository(pool *pgxpool.Pool, upsertChunk int) repository.SearchTermRepository {
	if upsertChunk <= 0 {
		upsertChunk = 1000
	}
	return &searchTermRepository{pool: pool, upsertChunk: upsertChunk}
}

// UpsertBatch accumulates term frequencies in one transaction. The frequency
// increment is not idempotent, so the whole batch must land atomically: a
// retried batch after a mid-batch failure would otherwise re-apply the
// chunks that had already committed.
func (r *searchTermRepository) UpsertBatch(ctx context.Context, terms []entity.SearchTerm) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(terms) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("upsert search terms: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, chunk := range lo.Chunk(terms, r.upsertChunk) {
		sql, args := buildTermUpsert(chunk)
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("upsert search terms: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("upsert search terms: %w", err)
	}
	return nil
}

func buildTermUpsert(terms []entity.SearchTerm) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO search_terms (term, language, frequency) VALUES ")
	args := make([]any, 0, len(terms)*3)
	for i, term := range terms {
		if i > 0 {
			sb.WriteString(",")
		}
		n := i * 3
		fmt.Fprintf(&sb, "($%d,$%d,$%d)", n+1, n+2, n+3)
		args = append(args, term.Term, term.Language.Code(), term.Frequency)
	}
	sb.WriteString(" ON CONFLICT (term, language) DO UPDATE SET frequency = search_terms.frequency + EXCLUDED.frequency")
	return sb.String(), args
}

func (r *searchTermRepository) Suggest(ctx context.Context, prefix string, lang entity.Language, limit int32) ([]entity.SearchTerm, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT term, language, frequency FROM search_terms
		WHERE language = $1 AND term LIKE $2 || '%' ESCAPE '\'
		ORDER BY frequency DESC, term LIMIT $3`, lang.Code(), escapeLike(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("suggest terms: %w", err)
	}
	defer rows.Close()

	var terms []entity.SearchTerm
	for rows.Next() {
		var term entity.SearchTerm
		var code string
		if err := rows.Scan(&term.Term, &code, &term.Frequency); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		term.Language = entity.ParseLanguage(code)
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read terms: %w", err)
	}
	return terms, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so a prefix matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
