package process

import (
	"gohook/process/memory_map"
)

// MemoryProvider is a read-only view of a target's address space plus module metadata.
//
// Implementations must either fully populate a read or fail; a partial read is
// reported as ErrPartialRead. Module lookups return zero when the module is
// absent, since that is an expected outcome while scanning. IsValidAddress must
// be cheap enough to call per scan, but callers cannot assume it is free.
//
// No implementation is race-free against the target: the target keeps running
// while it is read.
type MemoryProvider interface {
	// ReadMemory reads exactly size bytes at addr into a fresh buffer
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	// GetModuleBase returns the load address of a module, or 0 if not found
	GetModuleBase(name string) ProcessMemoryAddress

	// GetModuleSize returns the image size of a module, or 0 if not found
	GetModuleSize(name string) ProcessMemorySize

	// IsValidAddress checks if the given memory address is mapped and readable
	IsValidAddress(addr ProcessMemoryAddress) bool
}

// MemoryWriter is implemented by providers that can modify target memory.
type MemoryWriter interface {
	WriteMemory(addr ProcessMemoryAddress, data []byte) error
}

// MemoryReadWriter combines reading and writing.
type MemoryReadWriter interface {
	MemoryProvider
	MemoryWriter
}

// RegionLister is implemented by providers that can enumerate their mapped regions.
// The returned slice is a copy sorted by address.
type RegionLister interface {
	GetMemoryMap() ([]memory_map.MemoryMapItem, error)
}
