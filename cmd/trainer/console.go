package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gohook/hexdump"
	"gohook/hook"
	"gohook/pattern"
	"gohook/pod"
	"gohook/process"
	"gohook/process_blob"
	"gohook/scanner"
	"gohook/search"
	"gohook/target"
)

// routineOffset places the default detour just past the target, close enough
// for a rel32 branch
const routineOffset = 0x100

const defaultDumpSize = 64

var errUsage = errors.New("usage")

type command struct {
	name  string
	args  string
	help  string
	run   func(c *console, args []string) error
	alias []string
}

var commands []command

func init() {
	commands = []command{
		{name: "help", alias: []string{"?"}, help: "Show this help", run: (*console).help},
		{name: "exit", alias: []string{"quit"}, help: "Exit the trainer"},
		{name: "scan", args: "<pattern>", help: "Scan the whole target for a pattern", run: (*console).scan},
		{name: "patterns", help: "Scan the main module for the known patterns", run: (*console).patterns},
		{name: "hook", args: "<addr> [name] [routine]", help: "Install and enable a hook", run: (*console).hook},
		{name: "unhook", args: "<addr>", help: "Remove a hook", run: (*console).unhook},
		{name: "hooks", help: "Show installed hooks", run: (*console).hooks},
		{name: "memory", args: "<addr> [size]", help: "Dump memory at an address", run: (*console).memory},
		{name: "value", args: "<addr>", help: "Read a 32-bit value", run: (*console).value},
		{name: "poke", args: "<addr> <value>", help: "Write a 32-bit value", run: (*console).poke},
		{name: "paths", args: "<base> <value>", help: "Find pointer paths from base to a 32-bit value", run: (*console).paths},
		{name: "test", help: "Run the scan and hook demonstration", run: (*console).demo},
	}
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
		for _, a := range cmd.alias {
			if a == name {
				return cmd, true
			}
		}
	}
	return command{}, false
}

type console struct {
	target  target.Target
	scanner *scanner.PatternScanner
	manager *hook.Manager
	out     io.Writer
	color   bool

	// most recent matches, newest last
	results []pattern.Result
}

// execute runs one input line and reports whether the session should continue
func (c *console) execute(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}

	name, rest, _ := strings.Cut(line, " ")
	cmd, ok := lookup(strings.ToLower(name))
	if !ok {
		fmt.Fprintf(c.out, "Unknown command: %s\n", name)
		fmt.Fprintln(c.out, "Type 'help' for available commands")
		return true
	}
	if cmd.run == nil {
		fmt.Fprintln(c.out, "Exiting...")
		return false
	}

	args := strings.Fields(rest)
	if cmd.name == "scan" {
		// pattern text keeps its spaces
		args = nil
		if text := strings.Trim(strings.TrimSpace(rest), `"'`); text != "" {
			args = []string{text}
		}
	}

	if err := cmd.run(c, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(c.out, "Usage: %s %s\n", cmd.name, cmd.args)
		} else {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}
	return true
}

func (c *console) help(args []string) error {
	fmt.Fprintln(c.out, "Available commands:")
	for _, cmd := range commands {
		names := strings.Join(append([]string{cmd.name}, cmd.alias...), ", ")
		fmt.Fprintf(c.out, "  %-32s %s\n", strings.TrimSpace(names+" "+cmd.args), cmd.help)
	}
	return nil
}

func (c *console) remember(results ...pattern.Result) {
	const keep = 10
	c.results = append(c.results, results...)
	if len(c.results) > keep {
		c.results = c.results[len(c.results)-keep:]
	}
}

func (c *console) scan(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	p, err := pattern.Parse(args[0], "user")
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Scanning for pattern: %s\n", p)
	result, found, err := c.scanner.ScanEntireProcess(p)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(c.out, "Pattern not found")
		return nil
	}

	c.remember(result)
	fmt.Fprintf(c.out, "Pattern found at: %s\n", result.Address.ToString())
	fmt.Fprintf(c.out, "Matched bytes: % X\n", result.MatchedBytes)
	return nil
}

func (c *console) patterns(args []string) error {
	info := c.target.Info()
	base, size := c.target.GetModuleBase(info.Name), c.target.GetModuleSize(info.Name)
	if base == 0 || size == 0 {
		return fmt.Errorf("%s: %w", info.Name, process.ErrModuleNotFound)
	}

	list := make([]*pattern.Pattern, 0, len(process_blob.SamplePatterns))
	for _, sp := range process_blob.SamplePatterns {
		p, err := pattern.Parse(sp.Text, sp.Name)
		if err != nil {
			return err
		}
		list = append(list, p)
	}

	results, err := c.scanner.ScanMultiple(list, base, size)
	if err != nil {
		return err
	}
	c.remember(results...)

	found := make(map[string]pattern.Result, len(results))
	for _, r := range results {
		found[r.PatternName] = r
	}

	table := pod.NewTable(
		pod.ColumnSpec{Header: "Name"},
		pod.ColumnSpec{Header: "Pattern"},
		pod.ColumnSpec{Header: "Address", BlankValue: "not found"},
		pod.ColumnSpec{Header: "Description"},
	)
	for _, sp := range process_blob.SamplePatterns {
		addr := ""
		if r, ok := found[sp.Name]; ok {
			addr = r.Address.ToString()
		}
		table.AddRow(sp.Name, sp.Text, addr, sp.Description)
	}

	fmt.Fprintf(c.out, "Known patterns in %s:\n", info.Name)
	if err := table.Render(c.out); err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Recent scan results:")
	if len(c.results) == 0 {
		fmt.Fprintln(c.out, "  none")
	}
	for i, r := range c.results {
		fmt.Fprintf(c.out, "  %d. %s\n", i+1, r)
	}
	return nil
}

// parseAddress reads a hex address with an optional 0x prefix
func parseAddress(s string) (process.ProcessMemoryAddress, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return process.ProcessMemoryAddress(v), nil
}

// parseValue reads a decimal value, or hex with a 0x prefix
func parseValue(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return uint32(v), nil
}

func (c *console) hook(args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return errUsage
	}
	target, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	name := fmt.Sprintf("hook_%x", uint64(target))
	if len(args) > 1 {
		name = args[1]
	}
	routine := target + routineOffset
	if len(args) > 2 {
		if routine, err = parseAddress(args[2]); err != nil {
			return err
		}
	}

	if _, err := c.manager.Install(target, routine, hook.TypeBranch, name); err != nil {
		return fmt.Errorf("failed to create hook: %w", err)
	}
	if err := c.manager.Enable(target); err != nil {
		fmt.Fprintf(c.out, "Hook created but failed to enable: %v\n", err)
		return nil
	}

	fmt.Fprintf(c.out, "Hook %s created and enabled at %s\n", name, target.ToString())
	return nil
}

func (c *console) unhook(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	target, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	if err := c.manager.Remove(target); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Hook at %s removed\n", target.ToString())
	return nil
}

func (c *console) hooks(args []string) error {
	records := c.manager.Records()
	if len(records) == 0 {
		fmt.Fprintln(c.out, "No active hooks")
		return nil
	}

	table := pod.NewTable(
		pod.ColumnSpec{Header: "Name"},
		pod.ColumnSpec{Header: "Target"},
		pod.ColumnSpec{Header: "Routine"},
		pod.ColumnSpec{Header: "Original"},
		pod.ColumnSpec{Header: "Type"},
		pod.ColumnSpec{Header: "State"},
	)
	for _, r := range records {
		table.AddRow(r.Name, r.Target.ToString(), r.Routine.ToString(), r.Original.ToString(), r.Type.String(), r.State.String())
	}
	return table.Render(c.out)
}

func (c *console) memory(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	size := process.ProcessMemorySize(defaultDumpSize)
	if len(args) > 1 {
		n, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil || n == 0 {
			return fmt.Errorf("invalid size %q", args[1])
		}
		size = process.ProcessMemorySize(n)
	}

	options := hexdump.DefaultOptions()
	options.Color = c.color
	dump, err := hexdump.DumpMemory(c.target, addr, size, options)
	if err != nil {
		return fmt.Errorf("failed to read memory at %s: %w", addr.ToString(), err)
	}

	fmt.Fprintf(c.out, "Memory at %s:\n", addr.ToString())
	fmt.Fprint(c.out, dump)
	return nil
}

func (c *console) value(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	v, err := pod.ReadT[uint32](c.target, addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s = %d (0x%X)\n", addr.ToString(), v, v)
	return nil
}

func (c *console) poke(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	v, err := parseValue(args[1])
	if err != nil {
		return err
	}

	if err := pod.WriteT(c.target, addr, v); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s <- %d\n", addr.ToString(), v)
	return nil
}

func (c *console) paths(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	base, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	v, err := parseValue(args[1])
	if err != nil {
		return err
	}

	results, err := search.Search(c.target, base, search.WithUint32(v), search.WithMaxResults(16))
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(c.out, "No paths found")
		return nil
	}

	for _, r := range results {
		offsets := make([]string, len(r.Offsets))
		for i, o := range r.Offsets {
			offsets[i] = fmt.Sprintf("+0x%X", o)
		}
		fmt.Fprintf(c.out, "%s %s -> %s\n", base.ToString(), strings.Join(offsets, " "), r.Address.ToString())
	}
	return nil
}

// demo scans for a known pattern and cycles a hook on the match
func (c *console) demo(args []string) error {
	sp := process_blob.SamplePatterns[0]
	p, err := pattern.Parse(sp.Text, sp.Name)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Test 1: Pattern Scanning")
	result, found, err := c.scanner.ScanEntireProcess(p)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(c.out, "  FAIL %s not found\n", sp.Name)
		return nil
	}
	c.remember(result)
	fmt.Fprintf(c.out, "  ok   found %s at %s\n", sp.Name, result.Address.ToString())

	fmt.Fprintln(c.out, "Test 2: Hook Lifecycle")
	fh := hook.NewFunctionHook(c.manager, "demo", result.Address, result.Address+routineOffset, hook.TypeBranch)
	defer func() {
		if err := fh.Close(); err != nil {
			fmt.Fprintf(c.out, "  FAIL close: %v\n", err)
		}
	}()

	steps := []struct {
		name string
		run  func() bool
	}{
		{"install", fh.Install},
		{"enable", fh.Enable},
		{"disable", fh.Disable},
		{"remove", fh.Remove},
	}
	for _, step := range steps {
		if !step.run() {
			fmt.Fprintf(c.out, "  FAIL %s: %v\n", step.name, fh.LastError())
			return nil
		}
		fmt.Fprintf(c.out, "  ok   %s\n", step.name)
	}
	return nil
}
