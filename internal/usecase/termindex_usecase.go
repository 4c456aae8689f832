package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/subsearch/internal/entity"
	"github.com/eslsoft/subsearch/internal/metrics"
	"github.com/eslsoft/subsearch/internal/repository"
	"github.com/eslsoft/subsearch/pkg/textnorm"
)

const termIndexJob = "term_extract"

// TermIndexUsecase builds the autocomplete term index from subtitle text in
// checkpointed batches. Runs are re-entrant: each batch's terms go to the
// store in a single atomic upsert and the watermark advances only after it
// commits, so a crashed run resumes at the last completed batch without
// double counting any part of it.
type TermIndexUsecase interface {
	Run(ctx context.Context) error
	// Reset rewinds the scan watermark so the next run re-reads everything.
	Reset(ctx context.Context) error
}

// TermIndexOptions tunes scan batching.
type TermIndexOptions struct {
	ScanBatch int32
}

type termIndexUsecase struct {
	subs        repository.SubtitleRepository
	terms       repository.SearchTermRepository
	checkpoints repository.CheckpointRepository
	logger      *logrus.Logger
	opts        TermIndexOptions
}

func NewTermIndexUsecase(subs repository.SubtitleRepository, terms repository.SearchTermRepository, checkpoints repository.CheckpointRepository, logger *logrus.Logger, opts TermIndexOptions) TermIndexUsecase {
	if opts.ScanBatch <= 0 {
		opts.ScanBatch = 500
	}
	return &termIndexUsecase{
		subs:        subs,
		terms:       terms,
		checkpoints: checkpoints,
		logger:      logger,
		opts:        opts,
	}
}

func (u *termIndexUsecase) Run(ctx context.Context) error {
	after, err := u.checkpoints.Get(ctx, termIndexJob)
	if err != nil {
		return fmt.Errorf("term index: %w", err)
	}

	var indexed int64
	for {
		rows, err := u.subs.ScanAfter(ctx, after, u.opts.ScanBatch)
		if err != nil {
			return fmt.Errorf("term index: %w", err)
		}
		if len(rows) == 0 {
			if indexed > 0 {
				u.logger.WithField("terms", indexed).Info("term extraction pass complete")
			}
			return nil
		}

		// The frequency upsert is additive, so the batch must land as one
		// store call: a partially applied batch retried after a failure
		// would count its committed part twice.
		terms := collectTerms(rows)
		if err := u.terms.UpsertBatch(ctx, terms); err != nil {
			return fmt.Errorf("term index: %w", err)
		}
		metrics.TermsIndexedTotal.Add(float64(len(terms)))
		indexed += int64(len(terms))

		after = rows[len(rows)-1].ID
		if err := u.checkpoints.Set(ctx, termIndexJob, after); err != nil {
			return fmt.Errorf("term index: %w", err)
		}
	}
}

func (u *termIndexUsecase) Reset(ctx context.Context) error {
	if err := u.checkpoints.Set(ctx, termIndexJob, 0); err != nil {
		return fmt.Errorf("term index reset: %w", err)
	}
	return nil
}

type termKey struct {
	term string
	lang entity.Language
}

// collectTerms aggregates extracted term frequencies across one batch of
// subtitle rows, sorted for stable upsert batches.
func collectTerms(rows []entity.SubtitleText) []entity.SearchTerm {
	counts := make(map[termKey]int64)
	for _, row := range rows {
		for term, n := range textnorm.ExtractTerms(row.Text, row.Language) {
			counts[termKey{term: term, lang: row.Language}] += n
		}
	}

	terms := make([]entity.SearchTerm, 0, len(counts))
	for key, freq := range counts {
		terms = append(terms, entity.SearchTerm{Term: key.term, Language: key.lang, Frequency: freq})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Term != terms[j].Term {
			return terms[i].Term < terms[j].Term
		}
		return terms[i].Language < terms[j].Language
	})
	return terms
}
