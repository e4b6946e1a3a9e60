package snapshot

/*
Maybe holds a value that a page may or may not have shown. An invalid Maybe
means the page said nothing about the field, and whatever is already stored
should be left alone.

This is distinct from a nil pointer field in a snapshot, which means the page
positively showed that there is no value (e.g. a thread with no rating), and
the stored value should be cleared.
*/
type Maybe[T any] struct {
	Value T
	Valid bool
}

func Some[T any](v T) Maybe[T] {
	return Maybe[T]{Value: v, Valid: true}
}

func None[T any]() Maybe[T] {
	return Maybe[T]{}
}

// Get returns the value and whether it is present.
func (m Maybe[T]) Get() (T, bool) {
	return m.Value, m.Valid
}

func (m Maybe[T]) OrElse(def T) T {
	if m.Valid {
		return m.Value
	}
	return def
}
