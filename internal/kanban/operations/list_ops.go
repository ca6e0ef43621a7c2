package operations

import "errors"

// ErrIndexOutOfRange is returned by the list helpers for a bad index
var ErrIndexOutOfRange = errors.New("index out of range")

// InsertAt returns a new slice with v inserted at i (0 <= i <= len(s))
func InsertAt[T any](s []T, i int, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, v)
	return append(out, s[i:]...)
}

// RemoveAt returns a new slice without the element at i
func RemoveAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s))
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

// Append returns a new slice with v at the end
func Append[T any](s []T, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, s...)
	return append(out, v)
}

// ReplaceAt returns a copy of s with element i set to v
func ReplaceAt[T any](s []T, i int, v T) ([]T, error) {
	if i < 0 || i >= len(s) {
		return nil, ErrIndexOutOfRange
	}
	out := append([]T(nil), s...)
	out[i] = v
	return out, nil
}

// Remove is RemoveAt with bounds checking
func Remove[T any](s []T, i int) ([]T, error) {
	if i < 0 || i >= len(s) {
		return nil, ErrIndexOutOfRange
	}
	return RemoveAt(s, i), nil
}
