package sqlbuilder

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildNumbersPlaceholders(t *testing.T) {
	b := New(0)
	b.Where("difficulty >= ?", 10).
		Where("difficulty <= ?", 60).
		WhereIn("language", Strings([]string{"en", "ja"}))

	sql, args, err := b.Build("SELECT id FROM cards", "ORDER BY id LIMIT ?", 25)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	want := "SELECT id FROM cards WHERE difficulty >= $1 AND difficulty <= $2 AND language IN ($3,$4) ORDER BY id LIMIT $5"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 5 {
		t.Errorf("len(args) = %d, want 5", len(args))
	}
}

func TestBuildWithoutConditions(t *testing.T) {
	sql, args, err := New(0).Build("SELECT count(*) FROM cards", "")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if strings.Contains(sql, "WHERE") {
		t.Errorf("unexpected WHERE in %q", sql)
	}
	if len(args) != 0 {
		t.Errorf("len(args) = %d, want 0", len(args))
	}
}

func TestWhereInEmptyNeverMatches(t *testing.T) {
	sql, _, err := New(0).WhereIn("id", nil).Build("SELECT id FROM cards", "")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if !strings.Contains(sql, "FALSE") {
		t.Errorf("expected never-matching predicate, got %q", sql)
	}
}

func TestParameterBudgetEnforced(t *testing.T) {
	b := New(3)
	b.Where("a = ?", 1).Where("b = ?", 2)
	if b.Err() != nil {
		t.Fatalf("unexpected error below budget: %v", b.Err())
	}
	b.Where("c = ? AND d = ?", 3, 4)
	if !errors.Is(b.Err(), ErrParameterBudget) {
		t.Fatalf("expected ErrParameterBudget, got %v", b.Err())
	}
	if _, _, err := b.Build("SELECT 1", ""); !errors.Is(err, ErrParameterBudget) {
		t.Fatalf("Build should surface budget error, got %v", err)
	}
}

func TestTailArgsCountAgainstBudget(t *testing.T) {
	b := New(1)
	b.Where("a = ?", 1)
	if _, _, err := b.Build("SELECT 1", "LIMIT ?", 10); !errors.Is(err, ErrParameterBudget) {
		t.Fatalf("expected ErrParameterBudget, got %v", err)
	}
}

func TestPlaceholderArgMismatch(t *testing.T) {
	b := New(0)
	b.Where("a = ?", 1, 2)
	if b.Err() == nil {
		t.Fatal("expected placeholder/arg mismatch error")
	}
}

func TestRemaining(t *testing.T) {
	b := New(10)
	b.Where("a = ?", 1)
	if got := b.Remaining(); got != 9 {
		t.Fatalf("Remaining() = %d, want 9", got)
	}
}
