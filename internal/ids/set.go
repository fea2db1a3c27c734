package ids

import "slices"

// Add appends v to s unless already present.
func Add[T comparable](s []T, v T) []T {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

// Remove deletes every occurrence of v from s, preserving order.
func Remove[T comparable](s []T, v T) []T {
	return slices.DeleteFunc(s, func(x T) bool { return x == v })
}

// Replace swaps every occurrence of old for v, dropping duplicates of v.
func Replace[T comparable](s []T, old, v T) []T {
	out := make([]T, 0, len(s))
	for _, x := range s {
		if x == old {
			x = v
		}
		if !slices.Contains(out, x) {
			out = append(out, x)
		}
	}
	return out
}
