package pool

import "sync"

// Slice pools for the per-fit scratch slices of the decline estimator and the
// per-row records of the export writers.
var (
	float64SlicePool = sync.Pool{
		New: func() any { return &[]float64{} },
	}
	stringSlicePool = sync.Pool{
		New: func() any { return &[]string{} },
	}
)

func getSlice[T any](p *sync.Pool, size int) ([]T, func()) {
	ptr, _ := p.Get().(*[]T)

	slice := *ptr
	if cap(slice) < size {
		slice = make([]T, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { p.Put(ptr) }
}

// GetFloat64Slice returns a float64 slice of length size and a release
// function that hands it back to the pool. The contents are not cleared.
//
// Example:
//
//	ts, release := pool.GetFloat64Slice(len(days))
//	defer release()
func GetFloat64Slice(size int) ([]float64, func()) {
	return getSlice[float64](&float64SlicePool, size)
}

// GetStringSlice returns a string slice of length size and a release function
// that hands it back to the pool. The contents are not cleared.
func GetStringSlice(size int) ([]string, func()) {
	return getSlice[string](&stringSlicePool, size)
}
