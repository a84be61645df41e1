package reconcile

import (
	"fmt"

	"github.com/roach88/rowmap/internal/record"
)

// Result is the reconciliation triple.
//
//   - Kept: desired rows whose identity matches a persisted row
//   - Added: desired rows whose identity matches no persisted row
//   - Deleted: persisted rows whose identity matches no desired row
//
// Added and Deleted are always disjoint by identity; Kept ∪ Added is the
// desired set.
type Result struct {
	Kept    record.Set
	Added   record.Set
	Deleted record.Set
}

// Partition splits desired and persisted rows by their identity projection on
// keys. The comparison is a plain O(n·m) scan, meant for bounded batches.
// Input order is preserved inside each partition.
func Partition(desired, persisted record.Set, keys []string) (Result, error) {
	if len(keys) == 0 {
		return Result{}, fmt.Errorf("partition: no compare keys")
	}

	desiredIDs := identities(desired, keys)
	persistedIDs := identities(persisted, keys)

	res := Result{
		Kept:    record.Set{},
		Added:   record.Set{},
		Deleted: record.Set{},
	}

	for i, p := range persisted {
		if !contains(desiredIDs, persistedIDs[i]) {
			res.Deleted = append(res.Deleted, p)
		}
	}
	for i, d := range desired {
		if contains(persistedIDs, desiredIDs[i]) {
			res.Kept = append(res.Kept, d)
		} else {
			res.Added = append(res.Added, d)
		}
	}

	return res, nil
}

func identities(s record.Set, keys []string) []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = Identity(r, keys)
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
