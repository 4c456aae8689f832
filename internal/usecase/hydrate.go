package usecase

import (
	"context"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/eslsoft/subsearch/internal/entity"
	"github.com/eslsoft/subsearch/internal/metrics"
	"github.com/eslsoft/subsearch/internal/repository"
)

// hydrator turns candidate rows into full result entries by batch-loading
// subtitle texts and level ratings. Batches run concurrently under a weighted
// semaphore; a failed batch degrades to entries without texts or ratings
// instead of failing the whole page.
type hydrator struct {
	subs    repository.SubtitleRepository
	ratings repository.RatingRepository
	logger  *logrus.Logger
	sem     *semaphore.Weighted
	batch   int
}

func newHydrator(subs repository.SubtitleRepository, ratings repository.RatingRepository, logger *logrus.Logger, concurrency int64, batch int) *hydrator {
	if concurrency < 1 {
		concurrency = 1
	}
	if batch < 1 {
		batch = 1
	}
	return &hydrator{
		subs:    subs,
		ratings: ratings,
		logger:  logger,
		sem:     semaphore.NewWeighted(concurrency),
		batch:   batch,
	}
}

type hydrateBatch struct {
	texts   []entity.SubtitleText
	ratings []entity.LevelRating
	failed  bool
}

func (h *hydrator) hydrate(ctx context.Context, cands []entity.Candidate, langs []entity.Language) []entity.SearchItem {
	if len(cands) == 0 {
		return nil
	}

	ids := lo.Map(cands, func(c entity.Candidate, _ int) int64 { return c.Card.ID })
	chunks := lo.Chunk(ids, h.batch)
	results := make([]hydrateBatch, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		if err := h.sem.Acquire(ctx, 1); err != nil {
			results[i].failed = true
			continue
		}
		wg.Add(1)
		go func(i int, chunk []int64) {
			defer wg.Done()
			defer h.sem.Release(1)
			results[i] = h.fetchBatch(ctx, chunk, langs)
		}(i, chunk)
	}
	wg.Wait()

	texts := make(map[int64]map[entity.Language]string)
	ratings := make(map[int64][]entity.LevelRating)
	for _, batch := range results {
		for _, st := range batch.texts {
			if texts[st.CardID] == nil {
				texts[st.CardID] = make(map[entity.Language]string)
			}
			texts[st.CardID][st.Language] = st.Text
		}
		for _, rating := range batch.ratings {
			ratings[rating.CardID] = append(ratings[rating.CardID], rating)
		}
	}

	items := make([]entity.SearchItem, 0, len(cands))
	for _, cand := range cands {
		item := entity.SearchItem{
			Card:        cand.Card,
			SourceID:    cand.SourceID,
			SourceTitle: cand.SourceTitle,
			Subtitles:   texts[cand.Card.ID],
			Ratings:     ratings[cand.Card.ID],
		}
		if item.Subtitles == nil {
			item.Subtitles = map[entity.Language]string{}
		}
		items = append(items, item)
	}
	return items
}

func (h *hydrator) fetchBatch(ctx context.Context, ids []int64, langs []entity.Language) hydrateBatch {
	var batch hydrateBatch
	texts, err := h.subs.TextsForCards(ctx, ids, langs)
	if err != nil {
		h.logger.WithError(err).WithField("cards", len(ids)).Warn("hydration batch: subtitle fetch failed")
		metrics.HydrationBatchFailures.Inc()
		batch.failed = true
	} else {
		batch.texts = texts
	}

	ratings, err := h.ratings.ForCards(ctx, ids)
	if err != nil {
		h.logger.WithError(err).WithField("cards", len(ids)).Warn("hydration batch: rating fetch failed")
		metrics.HydrationBatchFailures.Inc()
		batch.failed = true
	} else {
		batch.ratings = ratings
	}
	return batch
}

// hydrateLanguages is the set of subtitle languages a result entry carries:
// the requested subtitle languages plus the query language. Empty means the
// caller wants every language.
func hydrateLanguages(req *entity.SearchRequest) []entity.Language {
	if len(req.SubtitleLanguages) == 0 {
		return nil
	}
	langs := make([]entity.Language, 0, len(req.SubtitleLanguages)+1)
	seen := make(map[entity.Language]struct{})
	for _, lang := range append([]entity.Language{req.QueryLanguage()}, req.SubtitleLanguages...) {
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		langs = append(langs, lang)
	}
	return langs
}
