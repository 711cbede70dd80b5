package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"gohook/hook"
	"gohook/process_blob"
	"gohook/scanner"
	"gohook/target"

	"github.com/Moonlight-Companies/gologger/logger"
)

func main() {
	pidFlag := flag.Int("pid", 0, "Process ID to attach to")
	nameFlag := flag.String("name", "", "Process name to attach to")
	dumpFlag := flag.String("dump", "", "Load a saved dump directory")
	patchFlag := flag.Bool("patch", false, "Write real branch patches instead of recording hooks in memory")
	noColorFlag := flag.Bool("no-color", false, "Disable colored hexdumps")
	flag.Parse()

	src := target.Source{PID: *pidFlag, Name: *nameFlag, Dump: *dumpFlag}
	if src == (target.Source{}) {
		src.Sample = true
	}

	proc, err := target.Open(src)
	if err != nil {
		fmt.Printf("Error opening target: %v\n", err)
		os.Exit(1)
	}
	defer proc.Close()

	log := logger.NewLogger("trainer")
	info := proc.Info()

	var engine hook.Engine = hook.NewMemoryEngine()
	if *patchFlag {
		// the sample code is mapped read-only like a real image
		if blob, ok := proc.(*process_blob.ProcessBlob); ok && src.Sample {
			if err := blob.Protect(process_blob.SampleModuleBase, "rwxp"); err != nil {
				log.Warn("Failed to unprotect sample code", err)
			}
		}
		engine = hook.NewPatchEngine(proc, log)
	}
	manager, err := hook.NewManager(engine, hook.WithLogger(log))
	if err != nil {
		fmt.Printf("Error initializing hooks: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := manager.Close(); err != nil {
			log.Warn("Failed to close hooks", err)
		}
	}()

	c := &console{
		target:  proc,
		scanner: scanner.New(proc, scanner.WithMainModule(info.Name), scanner.WithLogger(log)),
		manager: manager,
		out:     os.Stdout,
		color:   !*noColorFlag,
	}

	fmt.Printf("=== Trainer attached to %s (pid %d) ===\n", info.Name, info.PID)
	fmt.Println("Type 'help' for available commands")

	input := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !input.Scan() {
			fmt.Println()
			return
		}
		if !c.execute(input.Text()) {
			return
		}
	}
}
