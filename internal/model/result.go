package model

// Result carries read data together with a flag telling whether the data is a
// fallback produced after a storage failure.
type Result[T any] struct {
	Data     T
	Degraded bool
	Err      error
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

func Degraded[T any](fallback T, err error) Result[T] {
	return Result[T]{Data: fallback, Degraded: true, Err: err}
}
