package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/subsearch/internal/entity"
	"github.com/eslsoft/subsearch/internal/metrics"
	"github.com/eslsoft/subsearch/internal/repository"
	"github.com/eslsoft/subsearch/pkg/filterexpr"
	"github.com/eslsoft/subsearch/pkg/textnorm"
)

// SearchUsecase defines the card search surface: the paginated search, the
// per-source counts companion, and typeahead suggestions.
type SearchUsecase interface {
	Search(ctx context.Context, req *entity.SearchRequest) (*entity.SearchResponse, error)
	CountBySource(ctx context.Context, req *entity.SearchRequest) ([]entity.SourceCount, error)
	Suggest(ctx context.Context, prefix string, lang entity.Language, limit int32) ([]entity.SearchTerm, error)
}

// SearchOptions tunes caching and hydration.
type SearchOptions struct {
	CacheTTL           time.Duration
	CacheWriteTimeout  time.Duration
	HydrateConcurrency int64
	HydrateBatchSize   int
}

type searchUsecase struct {
	cards    repository.CardSearchRepository
	terms    repository.SearchTermRepository
	planner  CoverageUsecase
	cache    ResultCache
	hydrator *hydrator
	logger   *logrus.Logger
	opts     SearchOptions
	clock    func() time.Time
}

func NewSearchUsecase(
	cards repository.CardSearchRepository,
	subs repository.SubtitleRepository,
	ratings repository.RatingRepository,
	terms repository.SearchTermRepository,
	planner CoverageUsecase,
	cache ResultCache,
	logger *logrus.Logger,
	opts SearchOptions,
) SearchUsecase {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheWriteTimeout <= 0 {
		opts.CacheWriteTimeout = 5 * time.Second
	}
	if opts.HydrateConcurrency <= 0 {
		opts.HydrateConcurrency = 20
	}
	if opts.HydrateBatchSize <= 0 {
		opts.HydrateBatchSize = 200
	}
	return &searchUsecase{
		cards:    cards,
		terms:    terms,
		planner:  planner,
		cache:    cache,
		hydrator: newHydrator(subs, ratings, logger, opts.HydrateConcurrency, opts.HydrateBatchSize),
		logger:   logger,
		opts:     opts,
		clock:    time.Now,
	}
}

func (u *searchUsecase) Search(ctx context.Context, req *entity.SearchRequest) (*entity.SearchResponse, error) {
	timer := prometheus.NewTimer(metrics.SearchDuration.WithLabelValues("search"))
	defer timer.ObserveDuration()

	if err := u.prepare(req); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("search", "invalid").Inc()
		return nil, err
	}

	key := cacheKey("search", req)
	if cached := cachedValue[entity.SearchResponse](ctx, u, key); cached != nil {
		metrics.SearchRequestsTotal.WithLabelValues("search", "hit").Inc()
		return cached, nil
	}

	q, matchable, err := u.buildQuery(ctx, req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("search", "invalid").Inc()
		return nil, err
	}
	resp := &entity.SearchResponse{
		Items:       []entity.SearchItem{},
		ApproxTotal: entity.UnknownTotal,
		Page:        req.Page,
		Size:        req.Size,
	}
	if !matchable {
		// Nothing matchable remains after normalization, so nothing can
		// match. Not a failure.
		if req.WithTotal {
			resp.ApproxTotal = 0
		}
		metrics.SearchRequestsTotal.WithLabelValues("search", "ok").Inc()
		return resp, nil
	}

	cands, err := u.cards.SearchCandidates(ctx, q)
	if err != nil {
		// Search is advisory; serve an empty degraded page instead of
		// surfacing the store failure.
		u.logger.WithError(err).Error("card search failed, serving degraded response")
		metrics.SearchRequestsTotal.WithLabelValues("search", "degraded").Inc()
		resp.Degraded = true
		return resp, nil
	}

	items := u.hydrator.hydrate(ctx, cands, hydrateLanguages(req))
	resp.Items = diversify(items, int(req.Size))
	if resp.Items == nil {
		resp.Items = []entity.SearchItem{}
	}

	if req.WithTotal {
		total, err := u.cards.CountMatches(ctx, q)
		if err != nil {
			u.logger.WithError(err).Warn("match count failed")
		} else {
			resp.ApproxTotal = total
		}
	}

	metrics.SearchRequestsTotal.WithLabelValues("search", "ok").Inc()
	u.storeAsync(key, resp)
	return resp, nil
}

func (u *searchUsecase) CountBySource(ctx context.Context, req *entity.SearchRequest) ([]entity.SourceCount, error) {
	timer := prometheus.NewTimer(metrics.SearchDuration.WithLabelValues("source_counts"))
	defer timer.ObserveDuration()

	if err := u.prepare(req); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("source_counts", "invalid").Inc()
		return nil, err
	}

	key := cacheKey("source_counts", req)
	if cached := cachedValue[[]entity.SourceCount](ctx, u, key); cached != nil {
		metrics.SearchRequestsTotal.WithLabelValues("source_counts", "hit").Inc()
		return *cached, nil
	}

	q, matchable, err := u.buildQuery(ctx, req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("source_counts", "invalid").Inc()
		return nil, err
	}
	if !matchable {
		metrics.SearchRequestsTotal.WithLabelValues("source_counts", "ok").Inc()
		return []entity.SourceCount{}, nil
	}

	counts, err := u.cards.CountBySource(ctx, q)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("source_counts", "error").Inc()
		return nil, fmt.Errorf("count by source: %w", err)
	}
	if counts == nil {
		counts = []entity.SourceCount{}
	}

	metrics.SearchRequestsTotal.WithLabelValues("source_counts", "ok").Inc()
	u.storeAsync(key, counts)
	return counts, nil
}

func (u *searchUsecase) Suggest(ctx context.Context, prefix string, lang entity.Language, limit int32) ([]entity.SearchTerm, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return []entity.SearchTerm{}, nil
	}
	lang = entity.NormalizeLanguage(lang)
	if limit <= 0 {
		limit = entity.DefaultSuggestLimit
	}
	if limit > entity.MaxSuggestLimit {
		limit = entity.MaxSuggestLimit
	}

	terms, err := u.terms.Suggest(ctx, prefix, lang, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return terms, nil
}

// prepare binds the optional filter expression onto the request and applies
// the defensive caps.
func (u *searchUsecase) prepare(req *entity.SearchRequest) error {
	if err := filterexpr.Bind(req.Filter, req, searchFilterSchema); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidQuery, err)
	}
	return req.Normalize()
}

// buildQuery resolves the request into the fully decided query shape: the
// normalized phrase, the expanded level set and the coverage plan. matchable
// is false when free text normalizes to nothing.
func (u *searchUsecase) buildQuery(ctx context.Context, req *entity.SearchRequest) (q *repository.CardQuery, matchable bool, err error) {
	q = &repository.CardQuery{
		Request: req,
		Limit:   req.Overfetch(),
		Offset:  (req.Page - 1) * req.Size,
	}

	if strings.TrimSpace(req.FreeText) != "" {
		phrase, ok := textnorm.NormalizeQuery(req.FreeText, req.QueryLanguage())
		if !ok {
			return q, false, nil
		}
		q.Phrase = phrase
		q.HasPhrase = true
	}

	if req.LevelMin != "" || req.LevelMax != "" {
		q.Framework = entity.FrameworkFor(req.QueryLanguage())
		levels, lerr := entity.ExpandLevelRange(q.Framework, req.LevelMin, req.LevelMax)
		if lerr != nil {
			return nil, false, lerr
		}
		q.AllowedLevels = levels
	}

	q.Plan = u.planner.Plan(ctx, len(req.SubtitleLanguages))
	return q, true, nil
}

// cachedValue returns the cached value for key if one exists and is still
// fresh under the configured TTL. Entries may outlive the TTL in the shared
// store, so freshness is re-checked against writtenAt here.
func cachedValue[T any](ctx context.Context, u *searchUsecase, key string) *T {
	payload, writtenAt, ok, err := u.cache.Get(ctx, key)
	if err != nil {
		u.logger.WithError(err).Warn("result cache read failed")
		return nil
	}
	if !ok || u.clock().Sub(writtenAt) > u.opts.CacheTTL {
		metrics.CacheMissesTotal.Inc()
		return nil
	}

	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		u.logger.WithError(err).Warn("result cache entry unreadable")
		metrics.CacheMissesTotal.Inc()
		return nil
	}
	metrics.CacheHitsTotal.Inc()
	return &value
}

// storeAsync writes the response to the cache off the request path. Degraded
// responses are never cached.
func (u *searchUsecase) storeAsync(key string, value any) {
	if resp, ok := value.(*entity.SearchResponse); ok && resp.Degraded {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		u.logger.WithError(err).Warn("result cache marshal failed")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), u.opts.CacheWriteTimeout)
		defer cancel()
		if err := u.cache.Set(ctx, key, payload, u.opts.CacheTTL); err != nil {
			u.logger.WithError(err).Warn("result cache write failed")
		}
	}()
}
