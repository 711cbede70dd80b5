//go:build linux

package process_linux

import (
	"fmt"
	"unsafe"

	"gohook/process"

	"golang.org/x/sys/unix"
)

// process_vm transfers len(local) bytes between local and remoteAddr in pid.
// trap selects SYS_PROCESS_VM_READV or SYS_PROCESS_VM_WRITEV.
func process_vm(trap uintptr, pid process.ProcessID, local []byte, remoteAddr process.ProcessMemoryAddress) (int, error) {
	localIov := unix.Iovec{
		Base: &local[0],
		Len:  uint64(len(local)),
	}
	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  len(local),
	}

	n, _, errno := unix.Syscall6(
		trap,
		uintptr(pid),
		uintptr(unsafe.Pointer(&localIov)),
		1,
		uintptr(unsafe.Pointer(&remoteIov)),
		1,
		0,
	)
	if errno != 0 {
		return 0, errno
	}

	return int(n), nil
}

// ReadMemory reads exactly size bytes at addr
func (p *LinuxProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
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

	data := make([]byte, size)
	n, err := process_vm(unix.SYS_PROCESS_VM_READV, p.info.PID, data, addr)
	if err != nil {
		return nil, fmt.Errorf("process_vm_readv at %s: %w", addr.ToString(), err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("process_vm_readv at %s: %d of %d bytes: %w", addr.ToString(), n, len(data), process.ErrPartialRead)
	}

	return data, nil
}

// WriteMemory writes data at addr. The target page must already be writable;
// protections are not changed.
func (p *LinuxProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	region, err := p.region(addr)
	if err != nil {
		return err
	}
	if !region.IsWritable() {
		return fmt.Errorf("region %s: %w", region.String(), process.ErrNotWritable)
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	n, err := process_vm(unix.SYS_PROCESS_VM_WRITEV, p.info.PID, buf, addr)
	if err != nil {
		return fmt.Errorf("process_vm_writev at %s: %w", addr.ToString(), err)
	}
	if n != len(buf) {
		return fmt.Errorf("process_vm_writev at %s: only wrote %d of %d bytes", addr.ToString(), n, len(buf))
	}

	return nil
}
