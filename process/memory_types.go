package process

import (
	"fmt"
)

// ProcessMemoryAddress represents a memory address within a target process.
// It is never dereferenced locally; all access goes through a MemoryProvider.
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// Add returns the address displaced by a signed offset
func (pma ProcessMemoryAddress) Add(offset int64) ProcessMemoryAddress {
	return ProcessMemoryAddress(int64(pma) + offset)
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// End returns the first address past a region of this size starting at base
func (pms ProcessMemorySize) End(base ProcessMemoryAddress) ProcessMemoryAddress {
	return base + ProcessMemoryAddress(pms)
}
