//go:build windows

// Package process_windows reads and writes the memory of a live Windows process
// through ReadProcessMemory/WriteProcessMemory and VirtualQueryEx.
package process_windows

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unsafe"

	"gohook/process"
	"gohook/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

const accessRights = windows.PROCESS_QUERY_INFORMATION |
	windows.PROCESS_VM_READ |
	windows.PROCESS_VM_WRITE |
	windows.PROCESS_VM_OPERATION

// memMapped is MEMORY_BASIC_INFORMATION.Type for file mapping views
const memMapped = 0x40000

type module struct {
	base process.ProcessMemoryAddress
	size process.ProcessMemorySize
}

// WindowsProcess is a process.MemoryProvider for a running process. Regions and
// modules are cached at Open and refreshed by UpdateMemoryMap.
type WindowsProcess struct {
	info   process.ProcessInfo
	handle windows.Handle
	log    *logger.Logger

	mu      sync.Mutex
	mm      []memory_map.MemoryMapItem
	modules map[string]module
}

// Open attaches to pid
func Open(pid process.ProcessID) (*WindowsProcess, error) {
	handle, err := windows.OpenProcess(accessRights, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("OpenProcess %d: %w", pid, err)
	}

	p := &WindowsProcess{
		info:   process.ProcessInfo{PID: pid},
		handle: handle,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid))),
	}

	if err := p.UpdateMemoryMap(); err != nil {
		windows.CloseHandle(handle)
		return nil, err
	}

	p.log.Infoln("Process opened", p.info.Name)
	return p, nil
}

// OpenByName attaches to the lowest PID whose image name matches
func OpenByName(name string) (*WindowsProcess, error) {
	info, err := OneByName(name)
	if err != nil {
		return nil, fmt.Errorf("find process %s: %w", name, err)
	}
	return Open(info.PID)
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(p.handle)
	p.handle = 0
	p.mm = nil
	p.modules = nil

	p.log.Infoln("Process closed")
	return err
}

func (p *WindowsProcess) PID() process.ProcessID {
	return p.info.PID
}

func (p *WindowsProcess) Info() process.ProcessInfo {
	return p.info
}

// UpdateMemoryMap walks the committed regions with VirtualQueryEx and reloads the module list
func (p *WindowsProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return process.ErrProcessNotOpen
	}

	modules, err := p.loadModules()
	if err != nil {
		return err
	}

	var (
		mm   []memory_map.MemoryMapItem
		addr uintptr
		mbi  windows.MemoryBasicInformation
	)
	for {
		if err := windows.VirtualQueryEx(p.handle, addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
			break
		}

		base := mbi.BaseAddress
		size := mbi.RegionSize
		if size == 0 {
			break
		}

		if mbi.State == windows.MEM_COMMIT {
			mm = append(mm, memory_map.MemoryMapItem{
				Address: uint64(base),
				Size:    uint(size),
				Perms:   perms(mbi.Protect, mbi.Type),
				Path:    moduleAt(modules, process.ProcessMemoryAddress(base)),
			})
		}

		addr = base + size
		if addr < base {
			break
		}
	}

	memory_map.Sort(mm)
	p.mm = mm
	p.modules = modules
	return nil
}

func (p *WindowsProcess) loadModules() (map[string]module, error) {
	var handles [1024]windows.Handle
	var needed uint32
	if err := windows.EnumProcessModules(p.handle, &handles[0], uint32(unsafe.Sizeof(handles[0]))*uint32(len(handles)), &needed); err != nil {
		return nil, fmt.Errorf("EnumProcessModules: %w", err)
	}

	count := int(needed / uint32(unsafe.Sizeof(handles[0])))
	if count > len(handles) {
		count = len(handles)
	}

	modules := make(map[string]module, count)
	for i := 0; i < count; i++ {
		var mi windows.ModuleInfo
		if err := windows.GetModuleInformation(p.handle, handles[i], &mi, uint32(unsafe.Sizeof(mi))); err != nil {
			p.log.Debugln("GetModuleInformation failed", err)
			continue
		}

		var name [windows.MAX_PATH]uint16
		if err := windows.GetModuleBaseName(p.handle, handles[i], &name[0], windows.MAX_PATH); err != nil {
			p.log.Debugln("GetModuleBaseName failed", err)
			continue
		}

		moduleName := windows.UTF16ToString(name[:])
		modules[strings.ToLower(moduleName)] = module{
			base: process.ProcessMemoryAddress(mi.BaseOfDll),
			size: process.ProcessMemorySize(mi.SizeOfImage),
		}

		// the first module is the executable image
		if i == 0 && p.info.Name == "" {
			p.info.Name = moduleName
		}
	}

	return modules, nil
}

func moduleAt(modules map[string]module, addr process.ProcessMemoryAddress) string {
	for name, m := range modules {
		if addr >= m.base && addr < m.size.End(m.base) {
			return name
		}
	}
	return ""
}

// perms renders a page protection in /proc/<pid>/maps style
func perms(protect, typ uint32) string {
	if protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) != 0 {
		return "---p"
	}

	r, w, x := "-", "-", "-"
	switch protect &^ (windows.PAGE_NOCACHE | windows.PAGE_WRITECOMBINE) {
	case windows.PAGE_READONLY:
		r = "r"
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		r, w = "r", "w"
	case windows.PAGE_EXECUTE:
		x = "x"
	case windows.PAGE_EXECUTE_READ:
		r, x = "r", "x"
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		r, w, x = "r", "w", "x"
	}

	shared := "p"
	if typ == memMapped {
		shared = "s"
	}
	return r + w + x + shared
}

func (p *WindowsProcess) region(addr process.ProcessMemoryAddress) (memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return memory_map.MemoryMapItem{}, process.ErrProcessNotOpen
	}

	item := memory_map.IsValidAddress2(uint64(addr), p.mm)
	if item == nil {
		return memory_map.MemoryMapItem{}, process.ErrAddressNotMapped
	}
	return *item, nil
}

func (p *WindowsProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	item, err := p.region(addr)
	return err == nil && item.IsReadable()
}

// GetMemoryMap returns a copy of the cached region list
func (p *WindowsProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return nil, process.ErrProcessNotOpen
	}

	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

// GetModuleBase looks the module up case-insensitively, as the loader does
func (p *WindowsProcess) GetModuleBase(name string) process.ProcessMemoryAddress {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.modules[strings.ToLower(name)].base
}

func (p *WindowsProcess) GetModuleSize(name string) process.ProcessMemorySize {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.modules[strings.ToLower(name)].size
}

func (p *WindowsProcess) ModuleNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.modules))
	for name := range p.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
