//go:build windows

package process_windows

import (
	"fmt"

	"gohook/process"

	"golang.org/x/sys/windows"
)

// ReadMemory reads exactly size bytes at addr
func (p *WindowsProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	region, err := p.region(addr)
	if err != nil {
		return nil, err
	}
	if !region.IsReadable() {
		return nil, fmt.Errorf("region %s: %w", region.String(), process.ErrAddressNotMapped)
	}

	buf := make([]byte, size)
	var read uintptr
	if err := windows.ReadProcessMemory(p.handle, uintptr(addr), &buf[0], uintptr(len(buf)), &read); err != nil {
		return nil, fmt.Errorf("ReadProcessMemory at %s: %w", addr.ToString(), err)
	}
	if read != uintptr(len(buf)) {
		return nil, fmt.Errorf("ReadProcessMemory at %s: %d of %d bytes: %w", addr.ToString(), read, len(buf), process.ErrPartialRead)
	}

	return buf, nil
}

// WriteMemory writes data at addr. Pages that are not writable, such as code,
// are made writable for the duration of the write and then restored.
func (p *WindowsProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	region, err := p.region(addr)
	if err != nil {
		return err
	}

	if !region.IsWritable() {
		var old uint32
		if err := windows.VirtualProtectEx(p.handle, uintptr(addr), uintptr(len(data)), windows.PAGE_EXECUTE_READWRITE, &old); err != nil {
			return fmt.Errorf("VirtualProtectEx at %s: %v: %w", addr.ToString(), err, process.ErrNotWritable)
		}
		defer func() {
			var ignored uint32
			if err := windows.VirtualProtectEx(p.handle, uintptr(addr), uintptr(len(data)), old, &ignored); err != nil {
				p.log.Warn("Failed to restore protection at", addr.ToString(), err)
			}
		}()
	}

	var written uintptr
	if err := windows.WriteProcessMemory(p.handle, uintptr(addr), &data[0], uintptr(len(data)), &written); err != nil {
		return fmt.Errorf("WriteProcessMemory at %s: %w", addr.ToString(), err)
	}
	if written != uintptr(len(data)) {
		return fmt.Errorf("WriteProcessMemory at %s: only wrote %d of %d bytes", addr.ToString(), written, len(data))
	}

	return nil
}
