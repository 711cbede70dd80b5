package memory_map

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address uint64 `json:"address"`        // The starting address of the memory region
	Size    uint   `json:"size"`           // The size of the memory region in bytes
	Perms   string `json:"perms"`          // Permissions (e.g., "r-xp" for read, execute, private)
	Path    string `json:"path,omitempty"` // Backing file or module, empty for anonymous memory
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Path: %s", mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Path)
}

// End returns the first address past the region
func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

func (mmItem MemoryMapItem) IsExecutable() bool {
	return len(mmItem.Perms) > 2 && mmItem.Perms[2] == 'x'
}

// MemoryMap defines the interface for operations related to a process's memory map
type MemoryMap interface {
	// ReadMemoryMap reads and parses the memory map for a process
	ReadMemoryMap(pid int) ([]MemoryMapItem, error)
}

// Sort orders the memory map by address. IsValidAddress2 depends on it.
func Sort(memoryMap []MemoryMapItem) {
	sort.Slice(memoryMap, func(i, j int) bool {
		return memoryMap[i].Address < memoryMap[j].Address
	})
}

// IsValidAddress checks if an address is within any mapped region
func IsValidAddress(addr uint64, memoryMap []MemoryMapItem) bool {
	return GetMemoryRegionForAddress(addr, memoryMap) != nil
}

// IsValidAddress2 is IsValidAddress for a memory map sorted by address
func IsValidAddress2(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// GetMemoryRegionForAddress returns the memory region containing an address
func GetMemoryRegionForAddress(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	for i := range memoryMap {
		if addr >= memoryMap[i].Address && addr < memoryMap[i].End() {
			return &memoryMap[i]
		}
	}
	return nil
}

// ModuleRange returns the span covered by every mapping whose backing file has the
// given base name (case-insensitive). Zero values mean the module is not mapped.
func ModuleRange(name string, memoryMap []MemoryMapItem) (uint64, uint) {
	if name == "" {
		return 0, 0
	}

	var lo, hi uint64
	for _, item := range memoryMap {
		if item.Path == "" || !strings.EqualFold(filepath.Base(item.Path), name) {
			continue
		}
		if lo == 0 || item.Address < lo {
			lo = item.Address
		}
		if item.End() > hi {
			hi = item.End()
		}
	}

	if lo == 0 {
		return 0, 0
	}
	return lo, uint(hi - lo)
}
