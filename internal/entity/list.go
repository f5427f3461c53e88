package entity

import "github.com/google/uuid"

type Identifiable interface {
	GetID() uuid.UUID
}

// Prepend returns items with item in front; embedded lists are newest first.
func Prepend[S ~[]T, T any](items S, item T) S {
	out := make(S, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

// RemoveByID drops the first entry with the given id. When no entry matches
// the list is returned unchanged and removed is false.
func RemoveByID[S ~[]T, T Identifiable](items S, id uuid.UUID) (out S, removed bool) {
	for i, item := range items {
		if item.GetID() == id {
			out = make(S, 0, len(items)-1)
			out = append(out, items[:i]...)
			return append(out, items[i+1:]...), true
		}
	}
	return items, false
}

// FindByID returns the first entry with the given id.
func FindByID[S ~[]T, T Identifiable](items S, id uuid.UUID) (T, bool) {
	for _, item := range items {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}
