package main

import (
	"flag"
	"fmt"
	"os"

	"gohook/process_blob"
	"gohook/target"

	"github.com/Moonlight-Companies/gologger/logger"
)

func main() {
	pidFlag := flag.Int("pid", 0, "Process ID to attach to")
	nameFlag := flag.String("name", "", "Process name to attach to")
	sampleFlag := flag.Bool("sample", false, "Save the built-in sample image")
	outputFlag := flag.String("output", "", "Output directory for the dump")
	flag.Parse()

	if *outputFlag == "" {
		fmt.Println("Error: --output is required")
		flag.Usage()
		os.Exit(1)
	}

	proc, err := target.Open(target.Source{PID: *pidFlag, Name: *nameFlag, Sample: *sampleFlag})
	if err != nil {
		fmt.Printf("Error opening target: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	defer proc.Close()

	info := proc.Info()
	fmt.Printf("Attached to %s (pid %d)\n", info.Name, info.PID)

	log := logger.NewLogger(fmt.Sprintf("dump-%d", info.PID))
	fmt.Printf("Saving dump to %s...\n", *outputFlag)
	if err := process_blob.SaveProvider(*outputFlag, proc, info, log); err != nil {
		fmt.Printf("Error saving dump: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Dump saved successfully.")
}
