package hook

import (
	"fmt"

	"gohook/process"
)

// Type is how the interception redirects control
type Type int

const (
	TypeBranch Type = iota
	TypeCall
	TypeVTable
)

func (t Type) String() string {
	switch t {
	case TypeBranch:
		return "branch"
	case TypeCall:
		return "call"
	case TypeVTable:
		return "vtable"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType accepts the names printed by Type.String
func ParseType(s string) (Type, error) {
	switch s {
	case "branch", "jmp":
		return TypeBranch, nil
	case "call":
		return TypeCall, nil
	case "vtable":
		return TypeVTable, nil
	default:
		return 0, fmt.Errorf("unknown hook type %q", s)
	}
}

// State is where a hook is in its lifecycle.
// Uninstalled -> Installed -> Enabled <-> Disabled, and Removed once the record is gone.
type State int

const (
	StateUninstalled State = iota
	StateInstalled
	StateEnabled
	StateDisabled
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateUninstalled:
		return "uninstalled"
	case StateInstalled:
		return "installed"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	case StateRemoved:
		return "removed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Record is one entry of the hook table
type Record struct {
	Name    string
	Target  process.ProcessMemoryAddress
	Routine process.ProcessMemoryAddress

	// Original is the entry point of the unmodified function, valid while the record exists
	Original process.ProcessMemoryAddress

	Type  Type
	State State
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s -> %s [%s, %s]", r.Name, r.Target.ToString(), r.Routine.ToString(), r.Type, r.State)
}
