package hook

import (
	"encoding/binary"
	"math"
	"sync"

	"gohook/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// BranchSize is the length of the relative jump PatchEngine writes
const BranchSize = 5

const opJmpRel32 = 0xE9

type patch struct {
	routine process.ProcessMemoryAddress
	stolen  []byte
	enabled bool
}

// PatchEngine redirects a target by overwriting its first BranchSize bytes with
// "jmp rel32" to the routine. The overwritten bytes are kept and written back
// on disable and remove.
//
// There is no trampoline: the original address is the target itself, so the
// original code is only callable while the hook is disabled.
type PatchEngine struct {
	mem process.MemoryReadWriter
	log *logger.Logger

	mu          sync.Mutex
	initialized bool
	patches     map[process.ProcessMemoryAddress]*patch
}

// NewPatchEngine patches through mem. A nil log gets a default logger.
func NewPatchEngine(mem process.MemoryReadWriter, log *logger.Logger) *PatchEngine {
	if log == nil {
		log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "patch-engine"))
	}

	return &PatchEngine{
		mem:     mem,
		log:     log,
		patches: make(map[process.ProcessMemoryAddress]*patch),
	}
}

// branch encodes a jump from target to routine, or reports that the
// displacement does not fit in 32 bits
func branch(target, routine process.ProcessMemoryAddress) ([]byte, bool) {
	rel := int64(routine) - int64(target) - BranchSize
	if rel < math.MinInt32 || rel > math.MaxInt32 {
		return nil, false
	}

	code := make([]byte, BranchSize)
	code[0] = opJmpRel32
	binary.LittleEndian.PutUint32(code[1:], uint32(int32(rel)))
	return code, true
}

func (e *PatchEngine) Initialize() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return StatusAlreadyInitialized
	}
	e.initialized = true
	return StatusOK
}

// Uninitialize restores every patch still active and forgets all hooks
func (e *PatchEngine) Uninitialize() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return StatusNotInitialized
	}

	result := StatusOK
	for target, p := range e.patches {
		if p.enabled {
			if err := e.mem.WriteMemory(target, p.stolen); err != nil {
				e.log.Warn("Failed to restore", target.ToString(), err)
				result = StatusProtectionChangeFailure
			}
		}
	}

	e.patches = make(map[process.ProcessMemoryAddress]*patch)
	e.initialized = false
	return result
}

func (e *PatchEngine) CreateHook(target, routine process.ProcessMemoryAddress) (process.ProcessMemoryAddress, Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return 0, StatusNotInitialized
	}
	if _, ok := e.patches[target]; ok {
		return 0, StatusAlreadyCreated
	}
	if _, ok := branch(target, routine); !ok {
		return 0, StatusMemoryAllocationFailure
	}

	stolen, err := e.mem.ReadMemory(target, BranchSize)
	if err != nil {
		e.log.Debugln("Cannot read target", target.ToString(), err)
		return 0, StatusFunctionNotFound
	}

	e.patches[target] = &patch{routine: routine, stolen: stolen}
	return target, StatusOK
}

func (e *PatchEngine) EnableHook(target process.ProcessMemoryAddress) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return StatusNotInitialized
	}
	p, ok := e.patches[target]
	if !ok {
		return StatusNotCreated
	}
	if p.enabled {
		return StatusAlreadyEnabled
	}

	code, _ := branch(target, p.routine)
	if err := e.mem.WriteMemory(target, code); err != nil {
		e.log.Debugln("Cannot patch target", target.ToString(), err)
		return StatusProtectionChangeFailure
	}

	p.enabled = true
	return StatusOK
}

func (e *PatchEngine) DisableHook(target process.ProcessMemoryAddress) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return StatusNotInitialized
	}
	p, ok := e.patches[target]
	if !ok {
		return StatusNotCreated
	}
	if !p.enabled {
		return StatusAlreadyDisabled
	}

	if err := e.mem.WriteMemory(target, p.stolen); err != nil {
		e.log.Debugln("Cannot restore target", target.ToString(), err)
		return StatusProtectionChangeFailure
	}

	p.enabled = false
	return StatusOK
}

func (e *PatchEngine) RemoveHook(target process.ProcessMemoryAddress) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return StatusNotInitialized
	}
	p, ok := e.patches[target]
	if !ok {
		return StatusNotCreated
	}

	if p.enabled {
		if err := e.mem.WriteMemory(target, p.stolen); err != nil {
			e.log.Debugln("Cannot restore target", target.ToString(), err)
			return StatusProtectionChangeFailure
		}
	}

	delete(e.patches, target)
	return StatusOK
}
