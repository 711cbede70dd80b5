package hook

import (
	"errors"

	"gohook/process"
)

// FunctionHook controls a single target through a Manager. Operations report
// success as a bool and keep the failure for LastError. Close removes the hook
// if it is still installed, so a FunctionHook is used with defer:
//
//	fh := hook.NewFunctionHook(m, "health", target, routine, hook.TypeBranch)
//	defer fh.Close()
type FunctionHook struct {
	manager *Manager

	name    string
	target  process.ProcessMemoryAddress
	routine process.ProcessMemoryAddress
	typ     Type

	installed bool
	original  process.ProcessMemoryAddress
	lastErr   error
}

func NewFunctionHook(manager *Manager, name string, target, routine process.ProcessMemoryAddress, typ Type) *FunctionHook {
	return &FunctionHook{
		manager: manager,
		name:    name,
		target:  target,
		routine: routine,
		typ:     typ,
	}
}

func (fh *FunctionHook) result(err error) bool {
	fh.lastErr = err
	return err == nil
}

func (fh *FunctionHook) Install() bool {
	record, err := fh.manager.Install(fh.target, fh.routine, fh.typ, fh.name)
	if err != nil {
		return fh.result(err)
	}

	fh.installed = true
	fh.original = record.Original
	return fh.result(nil)
}

// owned reports whether the record at target is still the one Install created.
// A record removed behind this hook's back, or replaced by another install,
// drops ownership.
func (fh *FunctionHook) owned() bool {
	if !fh.installed {
		return false
	}

	record, ok := fh.manager.Lookup(fh.target)
	if ok && record.Routine == fh.routine && record.Original == fh.original {
		return true
	}

	fh.release()
	return false
}

func (fh *FunctionHook) release() {
	fh.installed = false
	fh.original = 0
}

func (fh *FunctionHook) Enable() bool {
	if !fh.owned() {
		return fh.result(StatusNotCreated)
	}
	return fh.result(fh.manager.Enable(fh.target))
}

func (fh *FunctionHook) Disable() bool {
	if !fh.owned() {
		return fh.result(StatusNotCreated)
	}
	return fh.result(fh.manager.Disable(fh.target))
}

func (fh *FunctionHook) Remove() bool {
	if !fh.owned() {
		return fh.result(StatusNotCreated)
	}

	if err := fh.manager.Remove(fh.target); err != nil {
		if errors.Is(err, StatusNotCreated) {
			fh.release()
		}
		return fh.result(err)
	}

	fh.release()
	return fh.result(nil)
}

// Close removes the hook if this FunctionHook installed it and still owns it
func (fh *FunctionHook) Close() error {
	if !fh.owned() {
		return nil
	}
	if !fh.Remove() {
		if errors.Is(fh.lastErr, StatusNotCreated) {
			return nil
		}
		return fh.lastErr
	}
	return nil
}

// LastError returns the failure of the most recent operation, or nil
func (fh *FunctionHook) LastError() error {
	return fh.lastErr
}

// IsInstalled reports whether the hook this FunctionHook installed is still in
// the manager's table
func (fh *FunctionHook) IsInstalled() bool {
	return fh.owned()
}

func (fh *FunctionHook) IsEnabled() bool {
	if !fh.owned() {
		return false
	}
	record, ok := fh.manager.Lookup(fh.target)
	return ok && record.State == StateEnabled
}

// Original returns the entry point of the unmodified function, or 0 once the
// hook is no longer installed
func (fh *FunctionHook) Original() process.ProcessMemoryAddress {
	if !fh.owned() {
		return 0
	}
	return fh.original
}

func (fh *FunctionHook) Target() process.ProcessMemoryAddress {
	return fh.target
}

func (fh *FunctionHook) Name() string {
	return fh.name
}
