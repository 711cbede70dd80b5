package hook

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gohook/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Manager is the hook table for one engine. Create it with NewManager and
// release it with Close, which removes every hook still in the table.
type Manager struct {
	engine Engine
	log    *logger.Logger

	mu      sync.Mutex
	records map[process.ProcessMemoryAddress]*Record
}

// Option is a function that configures a Manager
type Option func(*Manager)

func WithLogger(log *logger.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager initializes engine and returns an empty table. An engine that is
// already initialized is accepted.
func NewManager(engine Engine, options ...Option) (*Manager, error) {
	m := &Manager{
		engine:  engine,
		records: make(map[process.ProcessMemoryAddress]*Record),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.log == nil {
		m.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "hook"))
	}

	if status := engine.Initialize(); status != StatusOK && status != StatusAlreadyInitialized {
		return nil, fmt.Errorf("initialize engine: %w", status)
	}

	return m, nil
}

// Install creates a disabled hook redirecting target to routine. The record
// exists only if the engine succeeded.
func (m *Manager) Install(target, routine process.ProcessMemoryAddress, typ Type, name string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[target]; ok {
		return Record{}, StatusAlreadyCreated
	}

	original, status := m.engine.CreateHook(target, routine)
	if status != StatusOK {
		return Record{}, status
	}

	record := &Record{
		Name:     name,
		Target:   target,
		Routine:  routine,
		Original: original,
		Type:     typ,
		State:    StateInstalled,
	}
	m.records[target] = record

	m.log.Infoln("Installed", record.String())
	return *record, nil
}

// Enable activates the redirect at target
func (m *Manager) Enable(target process.ProcessMemoryAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[target]
	if !ok {
		return StatusNotCreated
	}
	if record.State == StateEnabled {
		return StatusAlreadyEnabled
	}

	if status := m.engine.EnableHook(target); status != StatusOK {
		return status
	}
	record.State = StateEnabled

	m.log.Infoln("Enabled", record.Name, "at", target.ToString())
	return nil
}

// Disable deactivates the redirect at target, keeping the record
func (m *Manager) Disable(target process.ProcessMemoryAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[target]
	if !ok {
		return StatusNotCreated
	}

	return m.disable(record)
}

func (m *Manager) disable(record *Record) error {
	if record.State != StateEnabled {
		return StatusAlreadyDisabled
	}

	if status := m.engine.DisableHook(record.Target); status != StatusOK {
		return status
	}
	record.State = StateDisabled

	m.log.Infoln("Disabled", record.Name, "at", record.Target.ToString())
	return nil
}

// Remove restores the original code at target and deletes the record. An
// enabled hook is disabled first. If the engine fails the record is kept.
func (m *Manager) Remove(target process.ProcessMemoryAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[target]
	if !ok {
		return StatusNotCreated
	}

	return m.remove(record)
}

func (m *Manager) remove(record *Record) error {
	if record.State == StateEnabled {
		if err := m.disable(record); err != nil {
			return err
		}
	}

	if status := m.engine.RemoveHook(record.Target); status != StatusOK {
		return status
	}
	delete(m.records, record.Target)
	record.State = StateRemoved

	m.log.Infoln("Removed", record.Name, "at", record.Target.ToString())
	return nil
}

// Lookup returns a copy of the record for target
func (m *Manager) Lookup(target process.ProcessMemoryAddress) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[target]
	if !ok {
		return Record{}, false
	}
	return *record, true
}

// Records returns copies of all records ordered by target address
func (m *Manager) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]Record, 0, len(m.records))
	for _, record := range m.records {
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Target < records[j].Target
	})

	return records
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.records)
}

// Close removes every hook and uninitializes the engine. The table is empty
// afterwards even when the engine reports failures; those are joined into the
// returned error.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, record := range m.records {
		if err := m.remove(record); err != nil {
			m.log.Warn("Failed to remove", record.Name, "at", record.Target.ToString(), err)
			errs = append(errs, fmt.Errorf("remove %s: %w", record.Target.ToString(), err))
			delete(m.records, record.Target)
		}
	}

	if status := m.engine.Uninitialize(); status != StatusOK && status != StatusNotInitialized {
		errs = append(errs, fmt.Errorf("uninitialize engine: %w", status))
	}

	return errors.Join(errs...)
}
