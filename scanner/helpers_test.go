package scanner

import (
	"testing"

	"gohook/pattern"
	"gohook/process"
	"gohook/process_blob"

	"github.com/Moonlight-Companies/gologger/logger"
)

func newTestScanner(t *testing.T, mp process.MemoryProvider, options ...Option) *PatternScanner {
	t.Helper()
	options = append([]Option{WithLogger(logger.NewLogger("scanner-test"))}, options...)
	return New(mp, options...)
}

func mustPattern(t *testing.T, text string) *pattern.Pattern {
	t.Helper()
	p, err := pattern.Parse(text, text)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return p
}

// blobWith maps data read-only at base
func blobWith(t *testing.T, base process.ProcessMemoryAddress, data []byte) *process_blob.ProcessBlob {
	t.Helper()
	p := process_blob.NewProcessBlob()
	if err := p.AddRegion(base, data, "r--p"); err != nil {
		t.Fatalf("AddRegion: %v", err)
	}
	return p
}

// countingProvider records how often the scanner reads memory
type countingProvider struct {
	process.MemoryProvider
	reads int
}

func (c *countingProvider) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	c.reads++
	return c.MemoryProvider.ReadMemory(addr, size)
}

// moduleOnly hides the region listing of the wrapped provider
type moduleOnly struct {
	mp process.MemoryProvider
}

func (m moduleOnly) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	return m.mp.ReadMemory(addr, size)
}

func (m moduleOnly) GetModuleBase(name string) process.ProcessMemoryAddress {
	return m.mp.GetModuleBase(name)
}

func (m moduleOnly) GetModuleSize(name string) process.ProcessMemorySize {
	return m.mp.GetModuleSize(name)
}

func (m moduleOnly) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	return m.mp.IsValidAddress(addr)
}
