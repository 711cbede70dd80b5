package hook

import "gohook/process"

// Engine physically patches code. Implementations report every outcome as a
// Status and must leave the target untouched when an operation fails.
type Engine interface {
	Initialize() Status
	Uninitialize() Status

	// CreateHook prepares a redirect from target to routine without activating it
	// and returns the address that reaches the unmodified function.
	CreateHook(target, routine process.ProcessMemoryAddress) (process.ProcessMemoryAddress, Status)

	EnableHook(target process.ProcessMemoryAddress) Status
	DisableHook(target process.ProcessMemoryAddress) Status

	// RemoveHook undoes CreateHook, restoring the original bytes
	RemoveHook(target process.ProcessMemoryAddress) Status
}
