// Package search finds pointer paths from a base address to a value, producing
// offsets that process.ReadPointerChain can follow later. Paths are the usual
// way to reach heap data whose address changes between runs.
package search

import (
	"bytes"
	"encoding/binary"
	"errors"

	"gohook/process"
)

var ErrNoTarget = errors.New("no search target specified")

// Searcher holds configuration for the search
type Searcher struct {
	MaxStructSize process.ProcessMemorySize
	MaxDepth      int
	MinAlignment  int
	MaxResults    int
	SearchFor     func([]byte) bool
}

// Option is a function that configures a Searcher
type Option func(*Searcher)

func WithMaxStructSize(size process.ProcessMemorySize) Option {
	return func(s *Searcher) {
		s.MaxStructSize = size
	}
}

func WithMaxDepth(depth int) Option {
	return func(s *Searcher) {
		s.MaxDepth = depth
	}
}

func WithMinAlignment(align int) Option {
	return func(s *Searcher) {
		s.MinAlignment = align
	}
}

// WithMaxResults stops the search after n paths; 0 means no limit
func WithMaxResults(n int) Option {
	return func(s *Searcher) {
		s.MaxResults = n
	}
}

// WithBytes searches for an exact byte sequence
func WithBytes(value []byte) Option {
	want := append([]byte(nil), value...)
	return func(s *Searcher) {
		s.SearchFor = func(data []byte) bool {
			return bytes.HasPrefix(data, want)
		}
	}
}

// WithUint32 searches for a little-endian 32-bit value
func WithUint32(value uint32) Option {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	return WithBytes(buf[:])
}

// Result is one path to a match. Offsets go straight to
// process.ReadPointerChain(mp, base, Offsets...).
type Result struct {
	Offsets []int64
	Address process.ProcessMemoryAddress
}

// read returns up to MaxStructSize bytes at addr. Structures near the end of a
// mapping are cut to the longest readable whole number of MinAlignment units.
func (s *Searcher) read(mp process.MemoryProvider, addr process.ProcessMemoryAddress) []byte {
	data, err := mp.ReadMemory(addr, s.MaxStructSize)
	if err == nil {
		return data
	}

	unit := s.MinAlignment
	lo, hi := 0, int(s.MaxStructSize)/unit
	data = nil
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		chunk, err := mp.ReadMemory(addr, process.ProcessMemorySize(mid*unit))
		if err != nil {
			hi = mid
			continue
		}
		lo, data = mid, chunk
	}
	return data
}

// Search walks structures reachable from base, following valid pointers up to
// MaxDepth levels, and returns every path whose final offset holds the value.
// Each structure is visited once.
func Search(mp process.MemoryProvider, base process.ProcessMemoryAddress, options ...Option) ([]Result, error) {
	s := &Searcher{
		MaxStructSize: 256,
		MaxDepth:      3,
		MinAlignment:  4,
	}

	for _, opt := range options {
		opt(s)
	}

	if s.SearchFor == nil {
		return nil, ErrNoTarget
	}
	if s.MinAlignment <= 0 {
		s.MinAlignment = 1
	}

	var results []Result
	visited := make(map[process.ProcessMemoryAddress]bool)

	var walk func(addr process.ProcessMemoryAddress, depth int, path []int64) bool
	walk = func(addr process.ProcessMemoryAddress, depth int, path []int64) bool {
		if visited[addr] {
			return true
		}
		visited[addr] = true

		data := s.read(mp, addr)

		for offset := 0; offset+s.MinAlignment <= len(data); offset += s.MinAlignment {
			if s.SearchFor(data[offset:]) {
				results = append(results, Result{
					Offsets: append(append([]int64(nil), path...), int64(offset)),
					Address: addr + process.ProcessMemoryAddress(offset),
				})
				if s.MaxResults > 0 && len(results) >= s.MaxResults {
					return false
				}
			}

			if depth >= s.MaxDepth || offset%process.PointerSize != 0 || offset+process.PointerSize > len(data) {
				continue
			}

			ptr := process.ProcessMemoryAddress(binary.LittleEndian.Uint64(data[offset:]))
			if ptr == 0 || !mp.IsValidAddress(ptr) {
				continue
			}

			next := append(append([]int64(nil), path...), int64(offset))
			if !walk(ptr, depth+1, next) {
				return false
			}
		}
		return true
	}

	walk(base, 0, nil)
	return results, nil
}
