//go:build linux

// Package process_linux reads and writes the memory of a live Linux process
// through process_vm_readv/process_vm_writev and /proc/<pid>/maps.
package process_linux

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gohook/process"
	"gohook/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// minValidAddress rejects the null page and the low guard area
const minValidAddress = 0x10000

// LinuxProcess is a process.MemoryProvider for a running process. The memory
// map is cached at Open and refreshed by UpdateMemoryMap.
type LinuxProcess struct {
	info process.ProcessInfo
	log  *logger.Logger

	mu sync.Mutex
	mm []memory_map.MemoryMapItem
}

// Open attaches to pid and reads its memory map
func Open(pid process.ProcessID) (*LinuxProcess, error) {
	info, err := processInfo(pid)
	if err != nil {
		return nil, err
	}

	p := &LinuxProcess{
		info: info,
		log:  logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid))),
	}

	if err := p.UpdateMemoryMap(); err != nil {
		return nil, fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.log.Infoln("Process opened", info.Name)
	return p, nil
}

// OpenByName attaches to the lowest PID whose name matches
func OpenByName(name string) (*LinuxProcess, error) {
	info, err := OneByName(name)
	if err != nil {
		return nil, fmt.Errorf("find process %s: %w", name, err)
	}
	return Open(info.PID)
}

// processInfo reads the name and executable path of pid from /proc
func processInfo(pid process.ProcessID) (process.ProcessInfo, error) {
	procPath := fmt.Sprintf("/proc/%d", pid)

	comm, err := os.ReadFile(filepath.Join(procPath, "comm"))
	if err != nil {
		return process.ProcessInfo{}, fmt.Errorf("process with PID %d: %w", pid, err)
	}

	// kernel threads and zombies have no exe
	exe, _ := os.Readlink(filepath.Join(procPath, "exe"))

	return process.ProcessInfo{
		PID:  pid,
		Name: strings.TrimSpace(string(comm)),
		Exe:  exe,
	}, nil
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mm = nil
	p.log.Infoln("Process closed")
	return nil
}

func (p *LinuxProcess) PID() process.ProcessID {
	return p.info.PID
}

func (p *LinuxProcess) Info() process.ProcessInfo {
	return p.info
}

func (p *LinuxProcess) UpdateMemoryMap() error {
	mm, err := memory_map.NewLinuxMemoryMap().ReadMemoryMap(int(p.info.PID))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	p.mu.Lock()
	p.mm = mm
	p.mu.Unlock()

	return nil
}

// region returns the cached mapping containing addr
func (p *LinuxProcess) region(addr process.ProcessMemoryAddress) (memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mm == nil {
		return memory_map.MemoryMapItem{}, process.ErrProcessNotOpen
	}
	if addr < minValidAddress {
		return memory_map.MemoryMapItem{}, process.ErrAddressNotMapped
	}

	item := memory_map.IsValidAddress2(uint64(addr), p.mm)
	if item == nil {
		return memory_map.MemoryMapItem{}, process.ErrAddressNotMapped
	}
	return *item, nil
}

func (p *LinuxProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	item, err := p.region(addr)
	return err == nil && item.IsReadable()
}

// GetMemoryMap returns a copy of the cached memory map
func (p *LinuxProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mm == nil {
		return nil, process.ErrProcessNotOpen
	}

	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

func (p *LinuxProcess) moduleRange(name string) (uint64, uint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return memory_map.ModuleRange(name, p.mm)
}

// GetModuleBase returns the lowest address mapped from a file with the given base name
func (p *LinuxProcess) GetModuleBase(name string) process.ProcessMemoryAddress {
	base, _ := p.moduleRange(name)
	return process.ProcessMemoryAddress(base)
}

// GetModuleSize returns the span of all mappings of the named file
func (p *LinuxProcess) GetModuleSize(name string) process.ProcessMemorySize {
	_, size := p.moduleRange(name)
	return process.ProcessMemorySize(size)
}

// ModuleNames lists the base names of every file-backed mapping
func (p *LinuxProcess) ModuleNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]bool)
	for _, item := range p.mm {
		if !strings.HasPrefix(item.Path, "/") {
			continue
		}
		seen[filepath.Base(item.Path)] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
