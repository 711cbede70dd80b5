package process

import (
	"encoding/binary"
	"fmt"
)

// PointerSize is the width of a pointer in the target. Only 64-bit targets are supported.
const PointerSize = 8

// ReadPointer reads a little-endian pointer at addr. A null pointer is an error.
func ReadPointer(mp MemoryProvider, addr ProcessMemoryAddress) (ProcessMemoryAddress, error) {
	if addr == 0 {
		return 0, fmt.Errorf("%w: read at 0x0", ErrInvalidPointer)
	}

	data, err := mp.ReadMemory(addr, PointerSize)
	if err != nil {
		return 0, err
	}

	ptr := ProcessMemoryAddress(binary.LittleEndian.Uint64(data))
	if ptr == 0 {
		return 0, fmt.Errorf("%w: null pointer at %s", ErrInvalidPointer, addr.ToString())
	}
	return ptr, nil
}

// ReadUINT32 reads a little-endian 32-bit value at addr
func ReadUINT32(mp MemoryProvider, addr ProcessMemoryAddress) (uint32, error) {
	data, err := mp.ReadMemory(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ReadPointerChain resolves a pointer path starting at base.
// Every offset except the last is added to the current address and dereferenced;
// the last offset is a raw displacement applied to the final pointer.
// With no offsets the result is base itself.
//
//	// base -> [ +0 ]ptrA -> [ +24 ]ptrB, result ptrB + 144
//	addr, err := ReadPointerChain(mp, base, 0, 24, 144)
func ReadPointerChain(mp MemoryProvider, base ProcessMemoryAddress, offsets ...int64) (ProcessMemoryAddress, error) {
	if len(offsets) == 0 {
		return base, nil
	}

	current := base
	for i := 0; i < len(offsets)-1; i++ {
		addr := current.Add(offsets[i])

		ptr, err := ReadPointer(mp, addr)
		if err != nil {
			return 0, fmt.Errorf("pointer chain step %d (addr=%s + off=%#x): %w", i, current.ToString(), offsets[i], err)
		}
		if !mp.IsValidAddress(ptr) {
			return 0, fmt.Errorf("pointer chain step %d: %w: %s", i, ErrAddressNotMapped, ptr.ToString())
		}
		current = ptr
	}

	return current.Add(offsets[len(offsets)-1]), nil
}
