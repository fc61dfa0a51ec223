package leakix

import (
	"errors"
	"iter"
)

// ErrEmptyIterator is returned by First when a sequence yields no records.
var ErrEmptyIterator = errors.New("iterator is empty")

// Collect drains a record sequence such as SearchAll or BulkExportStream
// into a slice of values. It stops on the first error and returns the
// records read so far along with it.
func Collect[T any](seq iter.Seq2[*T, error]) ([]T, error) {
	result := make([]T, 0)
	for item, err := range seq {
		if err != nil {
			return result, err
		}
		if item != nil {
			result = append(result, *item)
		}
	}
	return result, nil
}

// First returns the first record of a sequence. Breaking out after the
// first record closes any underlying stream.
func First[T any](seq iter.Seq2[*T, error]) (*T, error) {
	for item, err := range seq {
		return item, err
	}
	return nil, ErrEmptyIterator
}

// Take limits a sequence to at most n records. An error is passed through
// and ends the sequence.
func Take[T any](seq iter.Seq2[*T, error], n int) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		if n <= 0 {
			return
		}
		count := 0
		for item, err := range seq {
			if !yield(item, err) || err != nil {
				return
			}
			count++
			if count >= n {
				return
			}
		}
	}
}

// Filter yields only the records matching pred.
func Filter[T any](seq iter.Seq2[*T, error], pred func(*T) bool) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		for item, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			if pred(item) && !yield(item, nil) {
				return
			}
		}
	}
}
