//go:build windows

package process_windows

import (
	"errors"
	"os"
	"sort"
	"strings"
	"unsafe"

	"gohook/process"

	"golang.org/x/sys/windows"
)

// ListByName returns all processes whose image name equals name, ignoring
// case, ordered by PID. The calling process is never included.
func ListByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, errors.New("empty name")
	}

	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, err
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snapshot, &entry); err != nil {
		return nil, err
	}

	self := uint32(os.Getpid())
	var out []process.ProcessInfo
	for {
		exe := windows.UTF16ToString(entry.ExeFile[:])
		if entry.ProcessID != self && strings.EqualFold(exe, name) {
			out = append(out, process.ProcessInfo{PID: process.ProcessID(entry.ProcessID), Name: exe})
		}

		if err := windows.Process32Next(snapshot, &entry); err != nil {
			if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
				break
			}
			return nil, err
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].PID < out[j].PID
	})
	return out, nil
}

// OneByName returns the lowest-PID match for name, or os.ErrNotExist if none
func OneByName(name string) (process.ProcessInfo, error) {
	ps, err := ListByName(name)
	if err != nil {
		return process.ProcessInfo{}, err
	}
	if len(ps) == 0 {
		return process.ProcessInfo{}, os.ErrNotExist
	}
	return ps[0], nil
}
