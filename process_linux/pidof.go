//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gohook/process"
)

// ListByName returns all processes whose comm or exe basename equals name,
// ordered by PID. The match is case-sensitive, like pidof. The calling process
// is never included.
func ListByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, errors.New("empty name")
	}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}

	selfPID := os.Getpid()
	var out []process.ProcessInfo

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 || pid == selfPID {
			continue
		}

		// processes exit while we walk /proc
		info, err := processInfo(process.ProcessID(pid))
		if err != nil {
			continue
		}

		if info.Name == name || (info.Exe != "" && filepath.Base(info.Exe) == name) {
			out = append(out, info)
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
