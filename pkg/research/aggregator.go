package research

// Aggregator merges search hits across rounds and repositories,
// deduplicating on (repository, path). The first occurrence of a hit
// wins; later duplicates are dropped without recording their extra
// provenance. Insertion order of first appearance is preserved, so as
// long as callers merge fan-out results in (round, query issuance)
// order the final hit list is deterministic regardless of network
// arrival order.
type Aggregator struct {
	seen map[HitKey]struct{}
	hits []SearchHit
}

func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[HitKey]struct{})}
}

// Merge appends the not-yet-seen hits, preserving their relative order,
// and returns how many were newly added. Re-merging an already-merged
// set is a no-op returning zero.
func (a *Aggregator) Merge(hits []SearchHit) int {
	added := 0
	for _, h := range hits {
		key := h.Key()
		if _, dup := a.seen[key]; dup {
			continue
		}
		a.seen[key] = struct{}{}
		a.hits = append(a.hits, h)
		added++
	}
	return added
}

// Hits returns the merged hits in first-appearance order.
func (a *Aggregator) Hits() []SearchHit {
	return a.hits
}

func (a *Aggregator) Len() int {
	return len(a.hits)
}
