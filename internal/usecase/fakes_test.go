package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/subsearch/internal/entity"
	"github.com/eslsoft/subsearch/internal/repository"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var errStore = errors.New("store unavailable")

type fakeCardSearchRepo struct {
	candidates []entity.Candidate
	total      int64
	counts     []entity.SourceCount
	failSearch bool
	failCount  bool

	lastQuery *repository.CardQuery
}

func (f *fakeCardSearchRepo) SearchCandidates(_ context.Context, q *repository.CardQuery) ([]entity.Candidate, error) {
	f.lastQuery = q
	if f.failSearch {
		return nil, errStore
	}
	return f.candidates, nil
}

func (f *fakeCardSearchRepo) CountMatches(_ context.Context, q *repository.CardQuery) (int64, error) {
	f.lastQuery = q
	if f.failCount {
		return 0, errStore
	}
	return f.total, nil
}

func (f *fakeCardSearchRepo) CountBySource(_ context.Context, q *repository.CardQuery) ([]entity.SourceCount, error) {
	f.lastQuery = q
	if f.failSearch {
		return nil, errStore
	}
	return f.counts, nil
}

type fakeSubtitleRepo struct {
	mu       sync.Mutex
	texts    map[int64][]entity.SubtitleText
	scanRows []entity.SubtitleText
	failFor  map[int64]bool

	scanCalls int
}

func (f *fakeSubtitleRepo) TextsForCards(_ context.Context, cardIDs []int64, langs []entity.Language) ([]entity.SubtitleText, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.SubtitleText
	for _, id := range cardIDs {
		if f.failFor[id] {
			return nil, errStore
		}
		for _, st := range f.texts[id] {
			if len(langs) == 0 || containsLang(langs, st.Language) {
				out = append(out, st)
			}
		}
	}
	return out, nil
}

func (f *fakeSubtitleRepo) ScanAfter(_ context.Context, afterID int64, limit int32) ([]entity.SubtitleText, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanCalls++
	var out []entity.SubtitleText
	for _, row := range f.scanRows {
		if row.ID > afterID {
			out = append(out, row)
		}
		if int32(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func containsLang(langs []entity.Language, lang entity.Language) bool {
	for _, l := range langs {
		if l == lang {
			return true
		}
	}
	return false
}

type fakeRatingRepo struct {
	ratings map[int64][]entity.LevelRating
	fail    bool
}

func (f *fakeRatingRepo) ForCards(_ context.Context, cardIDs []int64) ([]entity.LevelRating, error) {
	if f.fail {
		return nil, errStore
	}
	var out []entity.LevelRating
	for _, id := range cardIDs {
		out = append(out, f.ratings[id]...)
	}
	return out, nil
}

type fakeTermRepo struct {
	mu      sync.Mutex
	store   map[string]int64 // term|lang -> frequency
	suggest []entity.SearchTerm
	batches [][]entity.SearchTerm
	failAt  int // fail the nth UpsertBatch call, 0 disables
	calls   int

	lastPrefix string
	lastLang   entity.Language
	lastLimit  int32
}

func (f *fakeTermRepo) UpsertBatch(_ context.Context, terms []entity.SearchTerm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return errStore
	}
	if f.store == nil {
		f.store = make(map[string]int64)
	}
	for _, term := range terms {
		f.store[term.Term+"|"+term.Language.Code()] += term.Frequency
	}
	f.batches = append(f.batches, terms)
	return nil
}

func (f *fakeTermRepo) Suggest(_ context.Context, prefix string, lang entity.Language, limit int32) ([]entity.SearchTerm, error) {
	f.lastPrefix = prefix
	f.lastLang = lang
	f.lastLimit = limit
	return f.suggest, nil
}

type fakeCoverageRepo struct {
	stats     repository.CoverageStats
	statsErr  error
	bulkRows  int64
	bulkCalls int

	cardIDs    []int64 // ascending ids the chunked repair walks
	rangeCalls int
}

func (f *fakeCoverageRepo) Stats(context.Context) (repository.CoverageStats, error) {
	return f.stats, f.statsErr
}

func (f *fakeCoverageRepo) BulkRepair(context.Context) (int64, error) {
	f.bulkCalls++
	return f.bulkRows, nil
}

func (f *fakeCoverageRepo) RepairRange(_ context.Context, afterCardID int64, span int32) (int64, int64, error) {
	f.rangeCalls++
	lastID := afterCardID
	var rows int64
	for _, id := range f.cardIDs {
		if id <= afterCardID {
			continue
		}
		lastID = id
		rows++
		if rows == int64(span) {
			break
		}
	}
	return lastID, rows, nil
}

type fakeCheckpointRepo struct {
	mu         sync.Mutex
	watermarks map[string]int64
	sets       []int64
}

func (f *fakeCheckpointRepo) Get(_ context.Context, job string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watermarks[job], nil
}

func (f *fakeCheckpointRepo) Set(_ context.Context, job string, watermark int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watermarks == nil {
		f.watermarks = make(map[string]int64)
	}
	f.watermarks[job] = watermark
	f.sets = append(f.sets, watermark)
	return nil
}

type cacheEntry struct {
	payload   []byte
	writtenAt time.Time
	ttl       time.Duration
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	clock   func() time.Time
	wrote   chan string
}

func newFakeCache(clock func() time.Time) *fakeCache {
	return &fakeCache{
		entries: make(map[string]cacheEntry),
		clock:   clock,
		wrote:   make(chan string, 8),
	}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	if !ok {
		return nil, time.Time{}, false, nil
	}
	return entry.payload, entry.writtenAt, true, nil
}

func (f *fakeCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	f.mu.Lock()
	f.entries[key] = cacheEntry{payload: payload, writtenAt: f.clock(), ttl: ttl}
	f.mu.Unlock()
	select {
	case f.wrote <- key:
	default:
	}
	return nil
}
