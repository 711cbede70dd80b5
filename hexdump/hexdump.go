// Package hexdump renders memory snapshots as hex with an ASCII column.
// Spans of interest, such as a pattern match, can be highlighted.
package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gohook/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// Span marks Length bytes starting at Offset into the dumped data
type Span struct {
	Offset int
	Length int
}

func (s Span) contains(i int) bool {
	return i >= s.Offset && i < s.Offset+s.Length
}

// Options controls the layout of a dump
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// StartAddress is printed for the first byte
	StartAddress uint64

	// ShowASCII determines whether to show the ASCII representation
	ShowASCII bool

	// Highlight lists spans drawn in the highlight colors
	Highlight []Span

	// Color enables ANSI colors; without it highlighted bytes are bracketed
	Color bool

	// MaxLines is the maximum number of lines to show (0 for no limit)
	MaxLines int
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
		ShowASCII:    true,
		Color:        true,
	}
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}

	lines := 0
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		if options.MaxLines > 0 && lines >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-offset)
			return
		}

		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		formatLine(writer, data[offset:end], offset, options)
		lines++
	}
}

func highlighted(options Options, i int) bool {
	for _, span := range options.Highlight {
		if span.contains(i) {
			return true
		}
	}
	return false
}

func mark(options Options, s string) string {
	if options.Color {
		return coloransi.Color(coloransi.ColorOrange, coloransi.ColorPurple, s)
	}
	return "[" + s + "]"
}

func formatLine(writer io.Writer, line []byte, offset int, options Options) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%016x  ", options.StartAddress+uint64(offset))

	for i := 0; i < options.BytesPerLine; i++ {
		if i > 0 {
			sb.WriteByte(' ')
			if i == options.BytesPerLine/2 {
				sb.WriteString("| ")
			}
		}
		if i >= len(line) {
			sb.WriteString("  ")
			continue
		}

		hex := fmt.Sprintf("%02x", line[i])
		if highlighted(options, offset+i) {
			hex = mark(options, hex)
		}
		sb.WriteString(hex)
	}

	if options.ShowASCII {
		sb.WriteString("  |")
		for i, b := range line {
			c := "."
			if b >= 0x20 && b < 0x7f {
				c = string(rune(b))
			}
			if highlighted(options, offset+i) && options.Color {
				c = mark(options, c)
			}
			sb.WriteString(c)
		}
		sb.WriteString("|")
	}

	fmt.Fprintln(writer, sb.String())
}

// DumpBytes creates a simple hex dump with default options
func DumpBytes(data []byte) string {
	return Dump(data, DefaultOptions())
}

// DumpMemory reads size bytes at addr through mp and dumps them with their
// real addresses
func DumpMemory(mp process.MemoryProvider, addr process.ProcessMemoryAddress, size process.ProcessMemorySize, options Options) (string, error) {
	data, err := mp.ReadMemory(addr, size)
	if err != nil {
		return "", fmt.Errorf("read %d bytes at %s: %w", size, addr.ToString(), err)
	}

	options.StartAddress = uint64(addr)
	return Dump(data, options), nil
}

// DumpMatch dumps the bytes around a match at addr of the given length,
// highlighting the match. The context is clamped to the readable range.
func DumpMatch(mp process.MemoryProvider, addr process.ProcessMemoryAddress, length int, context int, options Options) (string, error) {
	start := addr
	if uint64(addr) >= uint64(context) && mp.IsValidAddress(addr-process.ProcessMemoryAddress(context)) {
		start = addr - process.ProcessMemoryAddress(context)
	}

	size := process.ProcessMemorySize(int(addr-start) + length + context)
	data, err := mp.ReadMemory(start, size)
	if err != nil {
		// the trailing context may run off the mapping
		size = process.ProcessMemorySize(int(addr-start) + length)
		if data, err = mp.ReadMemory(start, size); err != nil {
			return "", fmt.Errorf("read %d bytes at %s: %w", size, start.ToString(), err)
		}
	}

	options.StartAddress = uint64(start)
	options.Highlight = append(options.Highlight, Span{Offset: int(addr - start), Length: length})
	return Dump(data, options), nil
}
