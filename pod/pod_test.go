package pod

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"gohook/process"
	"gohook/process_blob"
)

type playerStats struct {
	Health uint32
	Coins  uint32
}

func TestReadSampleStats(t *testing.T) {
	target := process_blob.NewSampleTarget()

	stats, err := ReadT[playerStats](target, process_blob.SampleHeapBase+process_blob.SampleHealthValueOffset)
	if err != nil {
		t.Fatalf("ReadT: %v", err)
	}
	if stats.Health != 100 || stats.Coins != 50 {
		t.Errorf("stats = %+v, want health 100 coins 50", stats)
	}

	values, err := ReadSliceT[uint32](target, process_blob.SampleHeapBase+process_blob.SampleHealthValueOffset, 2)
	if err != nil {
		t.Fatalf("ReadSliceT: %v", err)
	}
	if values[0] != 100 || values[1] != 50 {
		t.Errorf("values = %v", values)
	}
}

func TestWriteT(t *testing.T) {
	target := process_blob.NewSampleTarget()
	addr := process_blob.SampleHeapBase + process_blob.SampleHealthValueOffset

	if err := WriteT(target, addr, playerStats{Health: 999, Coins: 7}); err != nil {
		t.Fatalf("WriteT: %v", err)
	}
	raw, err := target.ReadMemory(addr, 8)
	if err != nil {
		t.Fatalf("ReadMemory: %v", err)
	}
	if want := []byte{0xE7, 0x03, 0, 0, 7, 0, 0, 0}; !bytes.Equal(raw, want) {
		t.Errorf("raw = % X, want % X", raw, want)
	}

	// code is not writable
	if err := WriteT(target, process_blob.SampleModuleBase, uint32(1)); !errors.Is(err, process.ErrNotWritable) {
		t.Errorf("write to code err = %v, want ErrNotWritable", err)
	}
}

func TestRejectsPointers(t *testing.T) {
	type withString struct {
		ID   uint32
		Name string
	}
	if _, err := FromBytes[withString](make([]byte, 64)); !errors.Is(err, ErrNotPOD) {
		t.Errorf("string field err = %v, want ErrNotPOD", err)
	}
	if _, err := FromBytes[[4]*int](make([]byte, 64)); !errors.Is(err, ErrNotPOD) {
		t.Errorf("pointer array err = %v, want ErrNotPOD", err)
	}
	if _, err := FromBytes[uint64](make([]byte, 4)); !errors.Is(err, process.ErrPartialRead) {
		t.Errorf("short buffer err = %v, want ErrPartialRead", err)
	}
}

func TestTable(t *testing.T) {
	table := NewTable(
		ColumnSpec{Header: "Name"},
		ColumnSpec{Header: "Address", MinWidth: 10},
	)
	table.AddRow("health", "0x412345")
	table.AddRow("\033[31mcoins\033[0m")

	var sb strings.Builder
	if err := table.Render(&sb); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := "Name   Address\n" +
		"------ ----------\n" +
		"health 0x412345\n" +
		"\033[31mcoins\033[0m  -\n"
	if sb.String() != want {
		t.Errorf("Render =\n%q\nwant\n%q", sb.String(), want)
	}
}
