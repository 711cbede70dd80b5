// Package process_blob provides a deterministic in-memory target: mapped regions
// and named modules held in local buffers. It backs tests and offline analysis of
// saved dumps.
package process_blob

import (
	"fmt"
	"sort"
	"sync"

	"gohook/process"
	"gohook/process/memory_map"
)

// ProcessBlob is an in-memory process image. It is safe for concurrent use.
type ProcessBlob struct {
	PID  process.ProcessID
	Name string

	mu      sync.RWMutex
	mm      []memory_map.MemoryMapItem // sorted by address
	blobs   map[uint64][]byte          // region address -> data
	modules map[string]Module
}

// Module is a named range inside the image
type Module struct {
	Base process.ProcessMemoryAddress `json:"base"`
	Size process.ProcessMemorySize    `json:"size"`
}

var _ process.MemoryReadWriter = (*ProcessBlob)(nil)
var _ process.RegionLister = (*ProcessBlob)(nil)

// NewProcessBlob creates an empty image
func NewProcessBlob() *ProcessBlob {
	return &ProcessBlob{
		blobs:   make(map[uint64][]byte),
		modules: make(map[string]Module),
	}
}

// AddRegion maps data at base with the given permissions ("rwxp" style).
// The data is copied. Overlapping an existing region is an error.
func (p *ProcessBlob) AddRegion(base process.ProcessMemoryAddress, data []byte, perms string) error {
	return p.addRegion(memory_map.MemoryMapItem{
		Address: uint64(base),
		Size:    uint(len(data)),
		Perms:   perms,
	}, data)
}

func (p *ProcessBlob) addRegion(item memory_map.MemoryMapItem, data []byte) error {
	if len(data) == 0 || item.Size != uint(len(data)) {
		return fmt.Errorf("region at 0x%x: %d bytes of data for size %d", item.Address, len(data), item.Size)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.mm {
		if item.Address < existing.End() && existing.Address < item.End() {
			return fmt.Errorf("region 0x%x overlaps 0x%x", item.Address, existing.Address)
		}
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	p.blobs[item.Address] = buf
	p.mm = append(p.mm, item)
	memory_map.Sort(p.mm)
	return nil
}

// AddModule registers a named module. Regions inside it are tagged with the name.
func (p *ProcessBlob) AddModule(name string, base process.ProcessMemoryAddress, size process.ProcessMemorySize) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.modules[name] = Module{Base: base, Size: size}
	for i := range p.mm {
		if p.mm[i].Address >= uint64(base) && p.mm[i].End() <= uint64(size.End(base)) {
			p.mm[i].Path = name
		}
	}
}

// Modules returns a copy of the module table
func (p *ProcessBlob) Modules() map[string]Module {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]Module, len(p.modules))
	for k, v := range p.modules {
		out[k] = v
	}
	return out
}

// ModuleNames lists the registered modules in name order
func (p *ProcessBlob) ModuleNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.modules))
	for name := range p.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *ProcessBlob) Info() process.ProcessInfo {
	return process.ProcessInfo{PID: p.PID, Name: p.Name}
}

// Close exists so a blob can stand in for a live process; it releases nothing
func (p *ProcessBlob) Close() error {
	return nil
}

// region returns the mapping and data holding [addr, addr+size). Caller holds mu.
func (p *ProcessBlob) region(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) (*memory_map.MemoryMapItem, []byte, error) {
	item := memory_map.IsValidAddress2(uint64(addr), p.mm)
	if item == nil {
		return nil, nil, process.ErrAddressNotMapped
	}

	data, ok := p.blobs[item.Address]
	if !ok {
		return nil, nil, fmt.Errorf("no data for region 0x%x", item.Address)
	}

	offset := uint64(addr) - item.Address
	if offset+uint64(size) > uint64(len(data)) {
		return nil, nil, fmt.Errorf("%w: %d bytes at %s crosses region end", process.ErrPartialRead, size, addr.ToString())
	}
	return item, data[offset : offset+uint64(size)], nil
}

// ReadMemory copies size bytes at addr. The range must lie inside one readable region.
func (p *ProcessBlob) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	item, data, err := p.region(addr, size)
	if err != nil {
		return nil, err
	}
	if !item.IsReadable() {
		return nil, fmt.Errorf("region %s: %w", item.String(), process.ErrAddressNotMapped)
	}

	result := make([]byte, size)
	copy(result, data)
	return result, nil
}

// WriteMemory overwrites bytes at addr. The region must be writable.
func (p *ProcessBlob) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	item, dst, err := p.region(addr, process.ProcessMemorySize(len(data)))
	if err != nil {
		return err
	}
	if !item.IsWritable() {
		return fmt.Errorf("%w: region at 0x%x (%s)", process.ErrNotWritable, item.Address, item.Perms)
	}

	copy(dst, data)
	return nil
}

// Protect changes the permissions of the region starting at base
func (p *ProcessBlob) Protect(base process.ProcessMemoryAddress, perms string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.mm {
		if p.mm[i].Address == uint64(base) {
			p.mm[i].Perms = perms
			return nil
		}
	}
	return process.ErrAddressNotMapped
}

func (p *ProcessBlob) GetModuleBase(name string) process.ProcessMemoryAddress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modules[name].Base
}

func (p *ProcessBlob) GetModuleSize(name string) process.ProcessMemorySize {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modules[name].Size
}

func (p *ProcessBlob) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	item := memory_map.IsValidAddress2(uint64(addr), p.mm)
	return item != nil && item.IsReadable()
}

func (p *ProcessBlob) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)
	return result, nil
}
