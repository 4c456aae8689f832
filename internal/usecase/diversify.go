package usecase

import "github.com/eslsoft/subsearch/internal/entity"

// diversify reorders an over-fetched candidate page so no single content
// source dominates it. Groups keep their first-seen order and items keep
// their stable order within each group; selection is round-robin over
// per-group cursors. The round count is bounded so a pathological input
// cannot spin the loop.
func diversify(items []entity.SearchItem, size int) []entity.SearchItem {
	if size <= 0 || len(items) == 0 {
		return nil
	}

	var order []int64
	groups := make(map[int64][]entity.SearchItem)
	for _, item := range items {
		if _, seen := groups[item.SourceID]; !seen {
			order = append(order, item.SourceID)
		}
		groups[item.SourceID] = append(groups[item.SourceID], item)
	}

	// A single source cannot be interleaved; keep the stable order.
	if len(order) == 1 {
		if len(items) > size {
			return items[:size]
		}
		return items
	}

	cursors := make(map[int64]int, len(order))
	out := make([]entity.SearchItem, 0, size)
	maxRounds := size * 4
	for round := 0; round < maxRounds && len(out) < size; round++ {
		progressed := false
		for _, src := range order {
			if len(out) == size {
				break
			}
			cur := cursors[src]
			if cur >= len(groups[src]) {
				continue
			}
			out = append(out, groups[src][cur])
			cursors[src] = cur + 1
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return out
}
