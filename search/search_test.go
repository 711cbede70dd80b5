package search

import (
	"encoding/binary"
	"errors"
	"testing"

	"gohook/process"
	"gohook/process_blob"
)

// newGraph lays out base -> +0x10 player -> +0x08 stats, health at stats+0x0c
func newGraph(t *testing.T) *process_blob.ProcessBlob {
	t.Helper()
	mem := make([]byte, 0x3000)
	binary.LittleEndian.PutUint64(mem[0x0010:], 0x101000)
	binary.LittleEndian.PutUint64(mem[0x1008:], 0x102000)
	binary.LittleEndian.PutUint32(mem[0x200c:], 4242)

	// cycle back to base must not loop forever
	binary.LittleEndian.PutUint64(mem[0x2010:], 0x100000)

	p := process_blob.NewProcessBlob()
	if err := p.AddRegion(0x100000, mem, "rw-p"); err != nil {
		t.Fatalf("AddRegion: %v", err)
	}
	return p
}

func TestSearchFindsPath(t *testing.T) {
	mem := newGraph(t)

	results, err := Search(mem, 0x100000, WithUint32(4242))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results: %v", len(results), results)
	}

	r := results[0]
	if len(r.Offsets) != 3 || r.Offsets[0] != 0x10 || r.Offsets[1] != 0x08 || r.Offsets[2] != 0x0c {
		t.Fatalf("offsets = %#x", r.Offsets)
	}
	if r.Address != 0x10200c {
		t.Errorf("address = %s", r.Address.ToString())
	}

	addr, err := process.ReadPointerChain(mem, 0x100000, r.Offsets...)
	if err != nil {
		t.Fatalf("ReadPointerChain: %v", err)
	}
	if addr != r.Address {
		t.Errorf("chain resolves to %s, want %s", addr.ToString(), r.Address.ToString())
	}
}

func TestSearchDepthLimit(t *testing.T) {
	results, err := Search(newGraph(t), 0x100000, WithUint32(4242), WithMaxDepth(1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("found %v beyond depth 1", results)
	}
}

func TestSearchNoTarget(t *testing.T) {
	if _, err := Search(newGraph(t), 0x100000); !errors.Is(err, ErrNoTarget) {
		t.Errorf("err = %v, want ErrNoTarget", err)
	}
}

func TestSearchMaxResults(t *testing.T) {
	// zero matches at every aligned offset
	results, err := Search(newGraph(t), 0x100000, WithUint32(0), WithMaxResults(3))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
}

func TestSearchNearRegionEnd(t *testing.T) {
	mem := newGraph(t)

	// a structure 0x80 bytes before the end of the mapping, value in its last word
	var value [4]byte
	binary.LittleEndian.PutUint32(value[:], 7777)
	if err := mem.WriteMemory(0x102ff8, value[:]); err != nil {
		t.Fatalf("WriteMemory: %v", err)
	}
	var ptr [8]byte
	binary.LittleEndian.PutUint64(ptr[:], 0x102f80)
	if err := mem.WriteMemory(0x100018, ptr[:]); err != nil {
		t.Fatalf("WriteMemory: %v", err)
	}

	results, err := Search(mem, 0x102f80, WithUint32(7777), WithMaxDepth(0))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Address != 0x102ff8 || results[0].Offsets[0] != 0x78 {
		t.Fatalf("short structure: %v", results)
	}

	results, err = Search(mem, 0x100000, WithUint32(7777))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results: %v", len(results), results)
	}
	addr, err := process.ReadPointerChain(mem, 0x100000, results[0].Offsets...)
	if err != nil || addr != 0x102ff8 {
		t.Errorf("chain %#x resolves to %s, %v", results[0].Offsets, addr.ToString(), err)
	}
}
