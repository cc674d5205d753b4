package pqwrite

import (
	"fmt"
	"unsafe"
)

// viewOf reinterprets a raw byte buffer as a slice of T without copying.
//
// The buffer must be an exact multiple of T's size and aligned for T; both
// are checked here because they are cheap. What cannot be checked is the
// remaining trust boundary: the producer owns the buffer, must keep it alive
// and unmutated for the lifetime of the view, and must have filled it with
// values of the declared type. Violating that is undefined behavior by
// contract, not a runtime error path.
func viewOf[T any](b []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(b)%size != 0 {
		panic(fmt.Sprintf("pqwrite: buffer of %d bytes is not a multiple of element size %d", len(b), size))
	}
	if len(b) == 0 {
		return nil
	}
	ptr := unsafe.Pointer(unsafe.SliceData(b))
	if uintptr(ptr)%uintptr(unsafe.Alignof(zero)) != 0 {
		panic(fmt.Sprintf("pqwrite: buffer is not aligned for element size %d", size))
	}
	return unsafe.Slice((*T)(ptr), len(b)/size)
}
