package reconcile

import "sort"

// BuildIndex indexes items by the key returned from keyOf.
// Later items with the same key replace earlier ones.
func BuildIndex[T any](items []T, keyOf func(T) string) map[string]T {
	index := make(map[string]T, len(items))
	for _, item := range items {
		index[keyOf(item)] = item
	}
	return index
}

// Missing returns the sorted, deduplicated keys that are not present in index.
func Missing[T any](keys []string, index map[string]T) []string {
	seen := make(map[string]struct{})
	var missing []string
	for _, key := range keys {
		if _, ok := index[key]; ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		missing = append(missing, key)
	}
	sort.Strings(missing)
	return missing
}

// SortedKeys returns the keys of index in ascending order for deterministic output.
func SortedKeys[T any](index map[string]T) []string {
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
