package types

import "sort"

// SliceContains returns true if the given slice contains the given value.
func SliceContains[T comparable](slice []T, value T) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}

// SliceUnique returns a new slice with unique values from the given slice.
func SliceUnique[T comparable](slice []T) []T {
	visited := make(map[T]bool)
	var result []T
	for _, item := range slice {
		if _, ok := visited[item]; !ok {
			visited[item] = true
			result = append(result, item)
		}
	}
	return result
}

// SortedMapKeys returns the map keys in sorted order.
func SortedMapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RemovePointer dereferences a pointer, returning the zero value for nil.
func RemovePointer[T any](value *T) T {
	var res T
	if value == nil {
		return res
	}
	return *value
}
