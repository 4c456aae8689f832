package usecase

import (
	"context"
	"testing"

	"github.com/eslsoft/subsearch/internal/repository"
)

func newCoverage(repo *fakeCoverageRepo, checkpoints *fakeCheckpointRepo) *coverageUsecase {
	uc := NewCoverageUsecase(repo, checkpoints, testLogger(), CoverageOptions{
		HealthyRatio:        0.5,
		MinIndexRows:        5000,
		BulkRepairCardLimit: 1000,
		RepairChunkSpan:     3,
	})
	return uc.(*coverageUsecase)
}

func TestPlanIndexedWhenHealthy(t *testing.T) {
	repo := &fakeCoverageRepo{stats: repository.CoverageStats{IndexRows: 16000, AvailableCards: 10000}}
	uc := newCoverage(repo, &fakeCheckpointRepo{})

	if plan := uc.Plan(context.Background(), 2); plan != repository.PlanIndexed {
		t.Fatalf("expected indexed plan, got %s", plan)
	}
}

func TestPlanFallbackWhenCoverageLow(t *testing.T) {
	// 6000 rows over 10000 cards estimates to 0.3 coverage.
	repo := &fakeCoverageRepo{stats: repository.CoverageStats{IndexRows: 6000, AvailableCards: 10000}}
	uc := newCoverage(repo, &fakeCheckpointRepo{})

	if plan := uc.Plan(context.Background(), 2); plan != repository.PlanFallback {
		t.Fatalf("expected fallback plan, got %s", plan)
	}
	select {
	case <-uc.repairCh:
	default:
		t.Error("unhealthy plan must enqueue a repair")
	}
}

func TestPlanFallbackBelowMinimumRows(t *testing.T) {
	// Ratio alone would pass; the absolute row floor must still reject it.
	repo := &fakeCoverageRepo{stats: repository.CoverageStats{IndexRows: 4000, AvailableCards: 2000}}
	uc := newCoverage(repo, &fakeCheckpointRepo{})

	if plan := uc.Plan(context.Background(), 1); plan != repository.PlanFallback {
		t.Fatalf("expected fallback plan, got %s", plan)
	}
}

func TestPlanFallbackWithoutLanguageFilter(t *testing.T) {
	repo := &fakeCoverageRepo{stats: repository.CoverageStats{IndexRows: 16000, AvailableCards: 10000}}
	uc := newCoverage(repo, &fakeCheckpointRepo{})

	if plan := uc.Plan(context.Background(), 0); plan != repository.PlanFallback {
		t.Fatalf("expected fallback plan, got %s", plan)
	}
	select {
	case <-uc.repairCh:
		t.Error("no repair should be enqueued when the index is not consulted")
	default:
	}
}

func TestPlanFallbackOnStatsError(t *testing.T) {
	repo := &fakeCoverageRepo{statsErr: errStore}
	uc := newCoverage(repo, &fakeCheckpointRepo{})

	if plan := uc.Plan(context.Background(), 2); plan != repository.PlanFallback {
		t.Fatalf("expected fallback plan, got %s", plan)
	}
}

func TestRepairSmallDatasetUsesBulkPath(t *testing.T) {
	repo := &fakeCoverageRepo{stats: repository.CoverageStats{AvailableCards: 500}, bulkRows: 900}
	uc := newCoverage(repo, &fakeCheckpointRepo{})

	if err := uc.Repair(context.Background()); err != nil {
		t.Fatalf("repair: %v", err)
	}
	if repo.bulkCalls != 1 {
		t.Errorf("expected one bulk repair, got %d", repo.bulkCalls)
	}
	if repo.rangeCalls != 0 {
		t.Errorf("expected no chunked repair, got %d calls", repo.rangeCalls)
	}
}

func TestRepairLargeDatasetWalksChunks(t *testing.T) {
	repo := &fakeCoverageRepo{
		stats:   repository.CoverageStats{AvailableCards: 100000},
		cardIDs: []int64{1, 2, 3, 10, 11, 12, 50},
	}
	checkpoints := &fakeCheckpointRepo{}
	uc := newCoverage(repo, checkpoints)

	if err := uc.Repair(context.Background()); err != nil {
		t.Fatalf("repair: %v", err)
	}
	// Span 3 over 7 ids: chunks end at 3, 12, 50, then an empty probe.
	if repo.rangeCalls != 4 {
		t.Errorf("expected 4 range calls, got %d", repo.rangeCalls)
	}
	// Watermark rewound for the next full pass.
	if got := checkpoints.watermarks[coverageRepairJob]; got != 0 {
		t.Errorf("expected watermark reset to 0, got %d", got)
	}
	wantSets := []int64{3, 12, 50, 0}
	if len(checkpoints.sets) != len(wantSets) {
		t.Fatalf("expected watermark history %v, got %v", wantSets, checkpoints.sets)
	}
	for i, want := range wantSets {
		if checkpoints.sets[i] != want {
			t.Errorf("watermark %d: expected %d, got %d", i, want, checkpoints.sets[i])
		}
	}
}

func TestRepairResumesFromCheckpoint(t *testing.T) {
	repo := &fakeCoverageRepo{
		stats:   repository.CoverageStats{AvailableCards: 100000},
		cardIDs: []int64{1, 2, 3, 10, 11, 12},
	}
	checkpoints := &fakeCheckpointRepo{watermarks: map[string]int64{coverageRepairJob: 3}}
	uc := newCoverage(repo, checkpoints)

	if err := uc.Repair(context.Background()); err != nil {
		t.Fatalf("repair: %v", err)
	}
	// Resume skips ids <= 3 entirely: one chunk ending at 12, one empty probe.
	if repo.rangeCalls != 2 {
		t.Errorf("expected 2 range calls, got %d", repo.rangeCalls)
	}
}
