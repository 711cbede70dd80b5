package hook

import (
	"sync"

	"gohook/process"
)

// DefaultTrampolineBase is where MemoryEngine starts handing out trampolines
const DefaultTrampolineBase = process.ProcessMemoryAddress(0x10000000)

// trampolineStride is the space reserved per trampoline
const trampolineStride = 0x20

type memoryHook struct {
	routine    process.ProcessMemoryAddress
	trampoline process.ProcessMemoryAddress
	enabled    bool
}

// MemoryEngine is a deterministic engine that patches nothing. It keeps the
// same bookkeeping a real engine would and can be told to fail, which makes
// it suitable for tests and for demonstrating the hook lifecycle.
type MemoryEngine struct {
	mu          sync.Mutex
	initialized bool
	hooks       map[process.ProcessMemoryAddress]*memoryHook
	next        process.ProcessMemoryAddress
	failNext    Status
}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		hooks: make(map[process.ProcessMemoryAddress]*memoryHook),
		next:  DefaultTrampolineBase,
	}
}

// FailNext makes the next create, enable, disable or remove call return status
// without changing anything
func (e *MemoryEngine) FailNext(status Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.failNext = status
}

func (e *MemoryEngine) injected() Status {
	status := e.failNext
	e.failNext = StatusOK
	return status
}

func (e *MemoryEngine) Initialize() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return StatusAlreadyInitialized
	}
	e.initialized = true
	return StatusOK
}

// Uninitialize drops every hook the engine still holds
func (e *MemoryEngine) Uninitialize() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return StatusNotInitialized
	}
	e.initialized = false
	e.hooks = make(map[process.ProcessMemoryAddress]*memoryHook)
	return StatusOK
}

func (e *MemoryEngine) CreateHook(target, routine process.ProcessMemoryAddress) (process.ProcessMemoryAddress, Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return 0, StatusNotInitialized
	}
	if status := e.injected(); status != StatusOK {
		return 0, status
	}
	if target == 0 {
		return 0, StatusFunctionNotFound
	}
	if _, ok := e.hooks[target]; ok {
		return 0, StatusAlreadyCreated
	}

	h := &memoryHook{routine: routine, trampoline: e.next}
	e.next += trampolineStride
	e.hooks[target] = h

	return h.trampoline, StatusOK
}

func (e *MemoryEngine) EnableHook(target process.ProcessMemoryAddress) Status {
	return e.setEnabled(target, true)
}

func (e *MemoryEngine) DisableHook(target process.ProcessMemoryAddress) Status {
	return e.setEnabled(target, false)
}

func (e *MemoryEngine) setEnabled(target process.ProcessMemoryAddress, enabled bool) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return StatusNotInitialized
	}
	if status := e.injected(); status != StatusOK {
		return status
	}

	h, ok := e.hooks[target]
	if !ok {
		return StatusNotCreated
	}
	if h.enabled == enabled {
		if enabled {
			return StatusAlreadyEnabled
		}
		return StatusAlreadyDisabled
	}

	h.enabled = enabled
	return StatusOK
}

func (e *MemoryEngine) RemoveHook(target process.ProcessMemoryAddress) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return StatusNotInitialized
	}
	if status := e.injected(); status != StatusOK {
		return status
	}
	if _, ok := e.hooks[target]; !ok {
		return StatusNotCreated
	}

	delete(e.hooks, target)
	return StatusOK
}

// IsEnabled reports whether the engine has the redirect at target active
func (e *MemoryEngine) IsEnabled(target process.ProcessMemoryAddress) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.hooks[target]
	return ok && h.enabled
}

// Len returns the number of hooks the engine holds
func (e *MemoryEngine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.hooks)
}
