package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gohook/hexdump"
	"gohook/pattern"
	"gohook/process"
	"gohook/scanner"
	"gohook/target"

	"github.com/Moonlight-Companies/gologger/logger"
)

func main() {
	pidFlag := flag.Int("pid", 0, "Process ID to attach to")
	nameFlag := flag.String("name", "", "Process name to attach to")
	dumpFlag := flag.String("dump", "", "Scan a saved dump directory instead of a live process")
	sampleFlag := flag.Bool("sample", false, "Scan the built-in sample image")
	aobFlag := flag.String("aob", "", "Array of bytes to scan for (e.g., '8B 05 ?? ?? ?? ??')")
	moduleFlag := flag.String("module", "", "Only scan this module")
	allFlag := flag.Bool("all", false, "Report every match instead of the first")
	naiveFlag := flag.Bool("naive", false, "Use the naive matcher instead of the skip table")
	maxdopFlag := flag.Int("maxdop", 1, "Regions scanned in parallel")
	contextFlag := flag.Int("context", 16, "Bytes of context shown around each match")
	flag.Parse()

	if *aobFlag == "" {
		fmt.Println("Error: --aob is required")
		flag.Usage()
		os.Exit(1)
	}

	p, err := pattern.Parse(*aobFlag, "aob")
	if err != nil {
		fmt.Printf("Error parsing AOB: %v\n", err)
		os.Exit(1)
	}

	proc, err := target.Open(target.Source{PID: *pidFlag, Name: *nameFlag, Dump: *dumpFlag, Sample: *sampleFlag})
	if err != nil {
		fmt.Printf("Error opening target: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	defer proc.Close()

	info := proc.Info()
	fmt.Printf("Attached to %s (pid %d)\n", info.Name, info.PID)
	fmt.Printf("Scanning for pattern: %s\n", p)

	options := []scanner.Option{
		scanner.WithMainModule(info.Name),
		scanner.WithLogger(logger.NewLogger("aob-scan")),
	}
	if *naiveFlag {
		options = append(options, scanner.WithAlgorithm(scanner.AlgorithmNaive))
	}
	s := scanner.New(proc, options...)

	results, err := scan(s, proc, p, *moduleFlag, *allFlag, *maxdopFlag)
	if err != nil {
		fmt.Printf("Error scanning memory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d matches:\n", len(results))
	for _, result := range results {
		fmt.Printf("Match at %s:\n", result.Address.ToString())

		dump, err := hexdump.DumpMatch(proc, result.Address, p.Len(), *contextFlag, hexdump.DefaultOptions())
		if err != nil {
			fmt.Printf("  %v\n", err)
			continue
		}
		fmt.Print(dump)
	}
}

func scan(s *scanner.PatternScanner, proc target.Target, p *pattern.Pattern, module string, all bool, maxdop int) ([]pattern.Result, error) {
	if module != "" {
		if !all {
			result, found, err := s.ScanModule(p, module)
			return single(result, found, err)
		}

		base, size := proc.GetModuleBase(module), proc.GetModuleSize(module)
		if base == 0 || size == 0 {
			return nil, fmt.Errorf("%s: %w", module, process.ErrModuleNotFound)
		}
		return s.ScanAll(p, base, size)
	}

	if !all {
		result, found, err := s.ScanEntireProcessParallel(context.Background(), p, maxdop)
		return single(result, found, err)
	}

	regions, err := proc.GetMemoryMap()
	if err != nil {
		return nil, err
	}

	var results []pattern.Result
	for _, region := range regions {
		if !region.IsReadable() {
			continue
		}
		matches, err := s.ScanAll(p, process.ProcessMemoryAddress(region.Address), process.ProcessMemorySize(region.Size))
		if err != nil {
			fmt.Printf("Skipping region %s: %v\n", region.String(), err)
			continue
		}
		results = append(results, matches...)
	}
	return results, nil
}

func single(result pattern.Result, found bool, err error) ([]pattern.Result, error) {
	if err != nil || !found {
		return nil, err
	}
	return []pattern.Result{result}, nil
}
