// Package hook tracks interceptions installed at target addresses.
//
// A Manager owns one table of hook records and delegates the actual code
// patching to an Engine. There is at most one record per target address.
// Every table operation runs under one lock, because engines patch executable
// memory in ways that must not interleave, even across different addresses.
//
// Installing, enabling, disabling or removing a hook rewrites code the target
// may be executing. Callers must make sure no target thread is inside the
// patched bytes, typically by suspending the target's threads first.
package hook

import "fmt"

// Status is the outcome of an engine or manager operation. Every value other
// than StatusOK is also an error, so callers can use errors.Is against it.
type Status int

const (
	StatusOK Status = iota
	StatusAlreadyInitialized
	StatusNotInitialized
	StatusAlreadyCreated
	StatusNotCreated
	StatusAlreadyEnabled
	StatusAlreadyDisabled
	StatusMemoryAllocationFailure
	StatusProtectionChangeFailure
	StatusModuleNotFound
	StatusFunctionNotFound
)

var statusNames = map[Status]string{
	StatusOK:                      "ok",
	StatusAlreadyInitialized:      "already initialized",
	StatusNotInitialized:          "not initialized",
	StatusAlreadyCreated:          "hook already created",
	StatusNotCreated:              "hook not created",
	StatusAlreadyEnabled:          "hook already enabled",
	StatusAlreadyDisabled:         "hook already disabled",
	StatusMemoryAllocationFailure: "memory allocation failure",
	StatusProtectionChangeFailure: "memory protection change failure",
	StatusModuleNotFound:          "module not found",
	StatusFunctionNotFound:        "function not found",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) Error() string {
	return "hook: " + s.String()
}

// Err returns nil for StatusOK and the status itself otherwise
func (s Status) Err() error {
	if s == StatusOK {
		return nil
	}
	return s
}
