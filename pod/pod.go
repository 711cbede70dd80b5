// Package pod copies plain-old-data Go values to and from target memory using
// their in-memory layout. Types must not contain pointers, slices, maps,
// strings or interfaces; those are rejected.
package pod

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"gohook/process"
)

var (
	ErrNotPOD   = errors.New("type contains pointers; not POD-safe")
	ErrZeroSize = errors.New("type has zero size")
)

func SizeOf[T any]() process.ProcessMemorySize {
	var t T
	return process.ProcessMemorySize(unsafe.Sizeof(t))
}

func check[T any]() error {
	if SizeOf[T]() == 0 {
		return ErrZeroSize
	}
	var t T
	if typeHasPointers(reflect.TypeOf(t)) {
		return fmt.Errorf("%T: %w", t, ErrNotPOD)
	}
	return nil
}

// FromBytes copies the first sizeof(T) bytes of data into a new T
func FromBytes[T any](data []byte) (T, error) {
	var v T
	if err := check[T](); err != nil {
		return v, err
	}

	size := int(unsafe.Sizeof(v))
	if len(data) < size {
		return v, fmt.Errorf("%d bytes for a %d byte %T: %w", len(data), size, v, process.ErrPartialRead)
	}

	dst := unsafe.Slice((*byte)(unsafe.Pointer(&v)), size)
	copy(dst, data[:size])
	return v, nil
}

// Bytes returns the raw in-memory bytes of v
func Bytes[T any](v T) ([]byte, error) {
	if err := check[T](); err != nil {
		return nil, err
	}

	size := int(unsafe.Sizeof(v))
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(&v)), size))
	return out, nil
}

// ReadT reads one T at addr
func ReadT[T any](mp process.MemoryProvider, addr process.ProcessMemoryAddress) (T, error) {
	if err := check[T](); err != nil {
		var zero T
		return zero, err
	}

	data, err := mp.ReadMemory(addr, SizeOf[T]())
	if err != nil {
		var zero T
		return zero, fmt.Errorf("read at %s: %w", addr.ToString(), err)
	}
	return FromBytes[T](data)
}

// ReadSliceT reads count consecutive T values at addr in one read
func ReadSliceT[T any](mp process.MemoryProvider, addr process.ProcessMemoryAddress, count int) ([]T, error) {
	if count < 0 {
		return nil, errors.New("count must not be negative")
	}
	if err := check[T](); err != nil {
		return nil, err
	}

	size := int(SizeOf[T]())
	data, err := mp.ReadMemory(addr, process.ProcessMemorySize(size*count))
	if err != nil {
		return nil, fmt.Errorf("read %d elements at %s: %w", count, addr.ToString(), err)
	}

	result := make([]T, count)
	for i := range result {
		if result[i], err = FromBytes[T](data[i*size:]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// WriteT writes v at addr
func WriteT[T any](mw process.MemoryWriter, addr process.ProcessMemoryAddress, v T) error {
	data, err := Bytes(v)
	if err != nil {
		return err
	}
	return mw.WriteMemory(addr, data)
}

func typeHasPointers(rt reflect.Type) bool {
	if rt == nil {
		return true
	}

	switch rt.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Slice, reflect.Map,
		reflect.String, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	case reflect.Array:
		return typeHasPointers(rt.Elem())
	case reflect.Struct:
		for i := 0; i < rt.NumField(); i++ {
			if typeHasPointers(rt.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
