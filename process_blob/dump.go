package process_blob

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gohook/process"
	"gohook/process/memory_map"

	"github.com/Moonlight-Companies/gologger/logger"
)

const (
	metadataFile  = "metadata.json"
	memoryMapFile = "process_memory_map.json"

	// MaxDumpRegionSize bounds a single saved region
	MaxDumpRegionSize = 100 * 1024 * 1024
)

type dumpMetadata struct {
	PID     process.ProcessID `json:"pid"`
	Name    string            `json:"name"`
	Modules map[string]Module `json:"modules,omitempty"`
}

// ModuleSource is a provider that can name the modules it knows about
type ModuleSource interface {
	ModuleNames() []string
}

// DumpSource is what SaveProvider needs from a live target
type DumpSource interface {
	process.MemoryProvider
	process.RegionLister
}

func blobFilename(dirname string, region memory_map.MemoryMapItem) string {
	return filepath.Join(dirname, fmt.Sprintf("blob_0x%x_%d.bin", region.Address, region.Size))
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Save writes the image to dirname as metadata, memory map and one file per region
func (p *ProcessBlob) Save(dirname string) error {
	if err := os.MkdirAll(dirname, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	meta := dumpMetadata{PID: p.PID, Name: p.Name, Modules: p.modules}
	if err := writeJSON(filepath.Join(dirname, metadataFile), meta); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dirname, memoryMapFile), p.mm); err != nil {
		return err
	}

	for _, region := range p.mm {
		if err := os.WriteFile(blobFilename(dirname, region), p.blobs[region.Address], 0644); err != nil {
			return fmt.Errorf("failed to write region 0x%x: %w", region.Address, err)
		}
	}
	return nil
}

// Load reads an image written by Save or SaveProvider.
// Regions listed without a blob file are left unmapped.
func Load(dirname string) (*ProcessBlob, error) {
	var meta dumpMetadata
	if err := readJSON(filepath.Join(dirname, metadataFile), &meta); err != nil {
		return nil, err
	}

	var mm []memory_map.MemoryMapItem
	if err := readJSON(filepath.Join(dirname, memoryMapFile), &mm); err != nil {
		return nil, err
	}

	p := NewProcessBlob()
	p.PID = meta.PID
	p.Name = meta.Name

	for _, region := range mm {
		data, err := os.ReadFile(blobFilename(dirname, region))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read region 0x%x: %w", region.Address, err)
		}
		if err := p.addRegion(region, data); err != nil {
			return nil, err
		}
	}

	for name, m := range meta.Modules {
		p.modules[name] = m
	}
	return p, nil
}

// SaveProvider dumps every readable region of a live target into dirname in the
// format Load understands. Unreadable and oversized regions are skipped.
func SaveProvider(dirname string, src DumpSource, info process.ProcessInfo, log *logger.Logger) error {
	if err := os.MkdirAll(dirname, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	mm, err := src.GetMemoryMap()
	if err != nil {
		return fmt.Errorf("failed to get memory map: %w", err)
	}

	meta := dumpMetadata{PID: info.PID, Name: info.Name, Modules: make(map[string]Module)}
	if ms, ok := src.(ModuleSource); ok {
		for _, name := range ms.ModuleNames() {
			if base, size := src.GetModuleBase(name), src.GetModuleSize(name); base != 0 && size != 0 {
				meta.Modules[name] = Module{Base: base, Size: size}
			}
		}
	}

	var saved []memory_map.MemoryMapItem
	skipped := 0
	for _, region := range mm {
		if !region.IsReadable() || region.Size > MaxDumpRegionSize {
			skipped++
			continue
		}

		data, err := src.ReadMemory(process.ProcessMemoryAddress(region.Address), process.ProcessMemorySize(region.Size))
		if err != nil {
			log.Debugln("Failed to read memory region at", fmt.Sprintf("%x", region.Address), err)
			skipped++
			continue
		}

		if err := os.WriteFile(blobFilename(dirname, region), data, 0644); err != nil {
			return fmt.Errorf("failed to write region 0x%x: %w", region.Address, err)
		}
		saved = append(saved, region)
	}

	if err := writeJSON(filepath.Join(dirname, metadataFile), meta); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dirname, memoryMapFile), saved); err != nil {
		return err
	}

	log.Infoln("Process dump saved:", len(saved), "regions saved,", skipped, "skipped")
	return nil
}
