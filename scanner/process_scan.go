package scanner

import (
	"context"
	"fmt"
	"runtime"

	"gohook/pattern"
	"gohook/process"
	"gohook/process/memory_map"

	"golang.org/x/sync/errgroup"
)

// regions returns the readable regions of the target in ascending order
func (s *PatternScanner) regions() ([]memory_map.MemoryMapItem, error) {
	lister, ok := s.provider.(process.RegionLister)
	if !ok {
		if s.mainModule == "" {
			return nil, ErrNoRegions
		}

		base := s.provider.GetModuleBase(s.mainModule)
		size := s.provider.GetModuleSize(s.mainModule)
		if base == 0 || size == 0 {
			return nil, fmt.Errorf("main module %s: %w", s.mainModule, process.ErrModuleNotFound)
		}

		return []memory_map.MemoryMapItem{{
			Address: uint64(base),
			Size:    uint(size),
			Perms:   "r--p",
			Path:    s.mainModule,
		}}, nil
	}

	mm, err := lister.GetMemoryMap()
	if err != nil {
		return nil, fmt.Errorf("failed to get memory map: %w", err)
	}
	memory_map.Sort(mm)

	readable := make([]memory_map.MemoryMapItem, 0, len(mm))
	for _, region := range mm {
		if region.IsReadable() {
			readable = append(readable, region)
		}
	}

	return readable, nil
}

// ScanEntireProcess returns the lowest-address match of p across every readable
// region. Regions that fail to read are skipped.
func (s *PatternScanner) ScanEntireProcess(p *pattern.Pattern) (pattern.Result, bool, error) {
	regions, err := s.regions()
	if err != nil {
		return pattern.Result{}, false, err
	}

	s.log.Infoln("Scanning", len(regions), "regions for", p.Name())

	for _, region := range regions {
		result, found, err := s.first(context.Background(), p, process.ProcessMemoryAddress(region.Address), process.ProcessMemorySize(region.Size))
		if err != nil {
			s.log.Debugln("Skipping region", region.String(), err)
			continue
		}
		if found {
			s.log.Infoln("Found", p.Name(), "at", result.Address.ToString())
			return result, true, nil
		}
	}

	s.log.Infoln("No match for", p.Name())
	return pattern.Result{}, false, nil
}

// ScanEntireProcessParallel scans regions on up to maxdop workers. The reported
// match is the lowest-address one, the same as ScanEntireProcess would return.
func (s *PatternScanner) ScanEntireProcessParallel(ctx context.Context, p *pattern.Pattern, maxdop int) (pattern.Result, bool, error) {
	if maxdop <= 1 {
		return s.ScanEntireProcess(p)
	}

	if numCPU := runtime.NumCPU(); maxdop > numCPU {
		maxdop = numCPU
		s.log.Debugln("Limiting maxdop to number of CPUs:", maxdop)
	}

	regions, err := s.regions()
	if err != nil {
		return pattern.Result{}, false, err
	}

	s.log.Infoln("Scanning", len(regions), "regions for", p.Name(), "with maxdop", maxdop)

	type regionResult struct {
		result pattern.Result
		found  bool
	}
	results := make([]regionResult, len(regions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxdop)

	for i, region := range regions {
		g.Go(func() error {
			result, found, err := s.first(gctx, p, process.ProcessMemoryAddress(region.Address), process.ProcessMemorySize(region.Size))
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Debugln("Skipping region", region.String(), err)
				return nil
			}
			results[i] = regionResult{result: result, found: found}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return pattern.Result{}, false, err
	}

	for _, r := range results {
		if r.found {
			s.log.Infoln("Found", p.Name(), "at", r.result.Address.ToString())
			return r.result, true, nil
		}
	}

	s.log.Infoln("No match for", p.Name())
	return pattern.Result{}, false, nil
}
