package repository

import (
	"context"

	"github.com/eslsoft/subsearch/internal/entity"
)

// QueryPlan is the physical shape chosen for the multi-language coverage
// predicate.
type QueryPlan string

const (
	// PlanIndexed evaluates language coverage against the materialized
	// (card, language) presence table.
	PlanIndexed QueryPlan = "indexed"
	// PlanFallback evaluates coverage with a correlated subquery over the
	// subtitle texts directly. Always correct, just slower.
	PlanFallback QueryPlan = "fallback"
)

// CardQuery is the fully resolved input to the search statement: a
// normalized request plus everything the planner and level expansion
// decided.
type CardQuery struct {
	Request       *entity.SearchRequest
	Phrase        string
	HasPhrase     bool
	Framework     entity.Framework
	AllowedLevels []string
	Plan          QueryPlan
	Limit         int32
	Offset        int32
}

// CardSearchRepository executes the assembled search statement and its
// companion aggregates.
type CardSearchRepository interface {
	SearchCandidates(ctx context.Context, q *CardQuery) ([]entity.Candidate, error)
	CountMatches(ctx context.Context, q *CardQuery) (int64, error)
	CountBySource(ctx context.Context, q *CardQuery) ([]entity.SourceCount, error)
}
