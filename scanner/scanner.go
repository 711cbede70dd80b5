// Package scanner locates patterns in a target's memory through a
// process.MemoryProvider.
//
// Every byte range is read as one or more snapshot windows, fully copied before
// any matching starts. Matching never goes back to live memory, so a result
// always describes bytes that existed together in one read. The target keeps
// running, so results are only valid as of that read.
package scanner

import (
	"errors"
	"fmt"

	"gohook/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// DefaultWindowSize bounds a single snapshot read
const DefaultWindowSize = process.ProcessMemorySize(1 << 20)

// ErrNoRegions is returned by whole-process scans when the provider cannot list
// regions and no main module is configured
var ErrNoRegions = errors.New("no memory regions to scan")

// Algorithm selects how a snapshot is searched
type Algorithm int

const (
	// AlgorithmSkip uses a bad-character skip table built from the rightmost
	// run of fixed bytes, falling back to AlgorithmNaive when that run is shorter than 2
	AlgorithmSkip Algorithm = iota

	// AlgorithmNaive tests every offset in order
	AlgorithmNaive
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmSkip:
		return "skip"
	case AlgorithmNaive:
		return "naive"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// PatternScanner searches memory of one provider for patterns. Scans only read
// its fields, so concurrent scans are safe as long as nobody calls SetAlgorithm.
type PatternScanner struct {
	provider   process.MemoryProvider
	algorithm  Algorithm
	windowSize process.ProcessMemorySize
	mainModule string
	log        *logger.Logger
}

// Option is a function that configures a PatternScanner
type Option func(*PatternScanner)

func WithAlgorithm(a Algorithm) Option {
	return func(s *PatternScanner) {
		s.algorithm = a
	}
}

// WithWindowSize sets the snapshot window. It is raised to the pattern length when smaller.
func WithWindowSize(size process.ProcessMemorySize) Option {
	return func(s *PatternScanner) {
		s.windowSize = size
	}
}

// WithMainModule names the module scanned by ScanEntireProcess when the provider
// cannot enumerate its regions
func WithMainModule(name string) Option {
	return func(s *PatternScanner) {
		s.mainModule = name
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(s *PatternScanner) {
		s.log = log
	}
}

// New creates a PatternScanner owning provider for its lifetime
func New(provider process.MemoryProvider, options ...Option) *PatternScanner {
	s := &PatternScanner{
		provider:   provider,
		algorithm:  AlgorithmSkip,
		windowSize: DefaultWindowSize,
	}

	for _, opt := range options {
		opt(s)
	}

	if s.windowSize == 0 {
		s.windowSize = DefaultWindowSize
	}
	if s.log == nil {
		s.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "scanner"))
	}

	return s
}

// Provider returns the memory provider the scanner reads from
func (s *PatternScanner) Provider() process.MemoryProvider {
	return s.provider
}

// Algorithm returns the configured search algorithm
func (s *PatternScanner) Algorithm() Algorithm {
	return s.algorithm
}

// SetAlgorithm switches the search algorithm for subsequent scans
func (s *PatternScanner) SetAlgorithm(a Algorithm) {
	s.algorithm = a
}
