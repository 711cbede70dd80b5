package pattern

import (
	"fmt"

	"gohook/process"
)

// Result is a successful match. MatchedBytes are the bytes read at Address in the
// snapshot the match was found in; the live target may have changed since.
type Result struct {
	Address      process.ProcessMemoryAddress
	PatternName  string
	MatchedBytes []byte
}

func (r Result) String() string {
	return fmt.Sprintf("%s at %s (% X)", r.PatternName, r.Address.ToString(), r.MatchedBytes)
}

// CalculateOffset returns the match address displaced by offset
func (r Result) CalculateOffset(offset int64) process.ProcessMemoryAddress {
	return r.Address.Add(offset)
}

// ReadPointerChain follows a pointer path starting at the match address.
// See process.ReadPointerChain for the offset semantics.
func (r Result) ReadPointerChain(mp process.MemoryProvider, offsets ...int64) (process.ProcessMemoryAddress, error) {
	return process.ReadPointerChain(mp, r.Address, offsets...)
}
