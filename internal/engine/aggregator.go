package engine

import (
	"sort"

	"github.com/yahgos/payment-engine/internal/domain"
)

// Aggregate merges every worker's accounts into one report sorted by
// client id. Worker client sets are disjoint, so the merge is a plain
// append; the sort erases any trace of how clients were partitioned.
func Aggregate(workers []*Worker) []domain.Snapshot {
	total := 0
	for _, w := range workers {
		total += w.accounts.Len()
	}

	out := make([]domain.Snapshot, 0, total)
	for _, w := range workers {
		out = append(out, w.accounts.Snapshots()...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}
