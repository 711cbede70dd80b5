package scanner

import (
	"context"
	"fmt"

	"gohook/pattern"
	"gohook/process"
)

// visitFunc receives each match in ascending address order. Returning false stops the walk.
type visitFunc func(addr process.ProcessMemoryAddress, matched []byte) bool

// walk reads [start, start+size) as snapshot windows and reports every match.
// Consecutive windows overlap by length-1 bytes, so a match straddling a window
// boundary is seen exactly once, in the first window that holds all of it.
func (s *PatternScanner) walk(ctx context.Context, m *matcher, start process.ProcessMemoryAddress, size process.ProcessMemorySize, visit visitFunc) error {
	length := process.ProcessMemorySize(m.length)
	if size < length {
		return nil
	}

	window := s.windowSize
	if window < length {
		window = length
	}
	overlap := length - 1

	var offset process.ProcessMemorySize
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := size - offset
		if n > window {
			n = window
		}

		addr := start + process.ProcessMemoryAddress(offset)
		snapshot, err := s.provider.ReadMemory(addr, n)
		if err != nil {
			return fmt.Errorf("read %d bytes at %s: %w", n, addr.ToString(), err)
		}
		if process.ProcessMemorySize(len(snapshot)) != n {
			return fmt.Errorf("read %d bytes at %s, got %d: %w", n, addr.ToString(), len(snapshot), process.ErrPartialRead)
		}

		for i := m.find(snapshot, 0); i >= 0; i = m.find(snapshot, i+1) {
			matched := make([]byte, m.length)
			copy(matched, snapshot[i:i+m.length])
			if !visit(addr+process.ProcessMemoryAddress(i), matched) {
				return nil
			}
		}

		if offset+n >= size {
			return nil
		}
		offset += n - overlap
	}
}

func (s *PatternScanner) first(ctx context.Context, p *pattern.Pattern, start process.ProcessMemoryAddress, size process.ProcessMemorySize) (pattern.Result, bool, error) {
	var (
		result pattern.Result
		found  bool
	)

	m := newMatcher(p, s.algorithm)
	err := s.walk(ctx, m, start, size, func(addr process.ProcessMemoryAddress, matched []byte) bool {
		result = pattern.Result{Address: addr, PatternName: p.Name(), MatchedBytes: matched}
		found = true
		return false
	})
	if err != nil {
		return pattern.Result{}, false, err
	}

	return result, found, nil
}

// ScanSingle returns the lowest-address match of p in [start, start+size).
// A region shorter than the pattern is a miss, not an error.
func (s *PatternScanner) ScanSingle(p *pattern.Pattern, start process.ProcessMemoryAddress, size process.ProcessMemorySize) (pattern.Result, bool, error) {
	if !s.provider.IsValidAddress(start) {
		return pattern.Result{}, false, fmt.Errorf("scan %q at %s: %w", p.Name(), start.ToString(), process.ErrAddressNotMapped)
	}

	return s.first(context.Background(), p, start, size)
}

// ScanModule scans the whole image of the named module
func (s *PatternScanner) ScanModule(p *pattern.Pattern, name string) (pattern.Result, bool, error) {
	base := s.provider.GetModuleBase(name)
	size := s.provider.GetModuleSize(name)
	if base == 0 || size == 0 {
		return pattern.Result{}, false, fmt.Errorf("scan %q in %s: %w", p.Name(), name, process.ErrModuleNotFound)
	}

	return s.ScanSingle(p, base, size)
}

// ScanMultiple scans the same range for each pattern. Results keep the input order
// and omit patterns that did not match.
func (s *PatternScanner) ScanMultiple(patterns []*pattern.Pattern, start process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]pattern.Result, error) {
	results := make([]pattern.Result, 0, len(patterns))
	for _, p := range patterns {
		result, found, err := s.ScanSingle(p, start, size)
		if err != nil {
			return results, err
		}
		if found {
			results = append(results, result)
		}
	}

	return results, nil
}

// ScanAll returns every match of p in [start, start+size) in ascending address order.
// Matches may overlap.
func (s *PatternScanner) ScanAll(p *pattern.Pattern, start process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]pattern.Result, error) {
	if !s.provider.IsValidAddress(start) {
		return nil, fmt.Errorf("scan %q at %s: %w", p.Name(), start.ToString(), process.ErrAddressNotMapped)
	}

	var results []pattern.Result
	m := newMatcher(p, s.algorithm)
	err := s.walk(context.Background(), m, start, size, func(addr process.ProcessMemoryAddress, matched []byte) bool {
		results = append(results, pattern.Result{Address: addr, PatternName: p.Name(), MatchedBytes: matched})
		return true
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}
