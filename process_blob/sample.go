package process_blob

import (
	"encoding/binary"

	"gohook/process"
)

// Layout of the sample target built by NewSampleTarget
const (
	SampleModule     = "supertux.exe"
	SampleModuleBase = process.ProcessMemoryAddress(0x400000)
	SampleModuleSize = process.ProcessMemorySize(0x100000)

	SampleHealthOffset   = 0x12345
	SampleCoinOffset     = 0x23456
	SamplePrologueOffset = 0x34567

	SampleHeapBase = process.ProcessMemoryAddress(0x500000)
	SampleHeapSize = 0x10000

	SampleHealthValueOffset = 0x1000
	SampleCoinValueOffset   = 0x1004
)

// SamplePattern is a named signature known to be present in the sample target
type SamplePattern struct {
	Name        string
	Text        string
	Description string
}

// SamplePatterns lists the signatures planted by NewSampleTarget
var SamplePatterns = []SamplePattern{
	{Name: "Health Access", Text: "8B 05 ?? ?? ?? ??", Description: "mov eax, [health_ptr]"},
	{Name: "Coin Update", Text: "01 1D ?? ?? ?? ??", Description: "add [coin_count], ebx"},
	{Name: "Function Prologue", Text: "55 8B EC", Description: "push ebp; mov ebp, esp"},
}

// NewSampleTarget builds a small game-like image: one NOP-filled code module with
// three planted instruction sequences and a heap holding health and coin counters.
func NewSampleTarget() *ProcessBlob {
	p := NewProcessBlob()
	p.Name = SampleModule

	code := make([]byte, SampleModuleSize)
	for i := range code {
		code[i] = 0x90
	}
	copy(code[SampleHealthOffset:], []byte{0x8B, 0x05, 0x78, 0x56, 0x34, 0x12})
	copy(code[SampleCoinOffset:], []byte{0x01, 0x1D, 0xBC, 0x9A, 0x78, 0x56})
	copy(code[SamplePrologueOffset:], []byte{0x55, 0x8B, 0xEC})

	heap := make([]byte, SampleHeapSize)
	binary.LittleEndian.PutUint32(heap[SampleHealthValueOffset:], 100)
	binary.LittleEndian.PutUint32(heap[SampleCoinValueOffset:], 50)

	// fixed, non-overlapping layout: these cannot fail
	_ = p.AddRegion(SampleModuleBase, code, "r-xp")
	_ = p.AddRegion(SampleHeapBase, heap, "rw-p")
	p.AddModule(SampleModule, SampleModuleBase, SampleModuleSize)

	return p
}
