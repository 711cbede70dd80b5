// Package process defines the address types and the memory capability that
// scanners and hook engines use to reach into a target process.
package process

import "errors"

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrPartialRead is returned when fewer bytes than requested could be read.
	// A partial read is never a successful read.
	ErrPartialRead = errors.New("partial read")

	// ErrModuleNotFound is returned when a named module has no base address or size.
	ErrModuleNotFound = errors.New("module not found")

	ErrInvalidPointer = errors.New("invalid pointer read")

	ErrNotWritable = errors.New("memory not writable")
)
