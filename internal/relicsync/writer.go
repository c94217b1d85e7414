package relicsync

// Plan decides which candidate documents actually need a write. A collection
// flagged missing takes every candidate as a blind insert; otherwise each
// candidate is compared field-for-field against the stored document with the
// same key, equal documents are skipped and the rest are upserted. An empty
// plan means the engine performs no store call for that collection.
func Plan[T any](existing, candidates []T, missing bool, key func(T) string, equal func(a, b T) bool) []T {
	if missing {
		return candidates
	}
	stored := make(map[string]T, len(existing))
	for _, doc := range existing {
		stored[key(doc)] = doc
	}
	var ops []T
	for _, cand := range candidates {
		if prev, ok := stored[key(cand)]; ok && equal(prev, cand) {
			continue
		}
		ops = append(ops, cand)
	}
	return ops
}
