package utils

import (
	"fmt"

	"git.handmade.network/hmn/forumsync/src/oops"
)

// Returns the provided value, or a default value if the input was zero.
func OrDefault[T comparable](v T, def T) T {
	var zero T
	if v == zero {
		return def
	} else {
		return v
	}
}

func IntMin(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func IntMax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func IntClamp(min, t, max int) int {
	return IntMax(min, IntMin(t, max))
}

func NumPages(numThings, thingsPerPage int) int {
	if thingsPerPage <= 0 {
		return 1
	}
	return IntMax((numThings+thingsPerPage-1)/thingsPerPage, 1)
}

// Splits s into consecutive slices of at most size elements. The chunks share
// s's backing array.
func Chunk[T any](s []T, size int) [][]T {
	if size <= 0 || len(s) <= size {
		if len(s) == 0 {
			return nil
		}
		return [][]T{s}
	}
	chunks := make([][]T, 0, (len(s)+size-1)/size)
	for size < len(s) {
		chunks = append(chunks, s[:size:size])
		s = s[size:]
	}
	return append(chunks, s)
}

/*
Recover a panic and convert it to a returned error. Call it like so:

	func MyFunc() (err error) {
		defer utils.RecoverPanicAsError(&err)
	}

If an error was already present, the panicked error will take precedence.
*/
func RecoverPanicAsError(err *error) {
	if r := recover(); r != nil {
		var recoveredErr error
		if rerr, ok := r.(error); ok {
			recoveredErr = rerr
		} else {
			recoveredErr = fmt.Errorf("panic with value: %v", r)
		}
		*err = oops.New(recoveredErr, "panic recovered as error")
	}
}
