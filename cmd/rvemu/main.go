// Command rvemu builds a machine from a yaml description and opens a
// line-oriented monitor over its CSR file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/openhart/rvemu/internal/hartconfig"
	"github.com/openhart/rvemu/internal/rv"
)

var dumpList = []string{
	"misa", "mhartid", "mstatus", "mtvec", "mepc", "mcause", "mbadaddr",
	"mie", "mip", "mideleg", "medeleg", "mscratch",
	"sstatus", "stvec", "sepc", "scause", "sbadaddr", "sie", "sip",
	"sscratch", "satp",
}

func main() {
	configPath := flag.String("config", "", "machine description yaml")
	verbose := flag.Bool("v", false, "debug logging")
	dump := flag.Bool("dump", false, "dump the reset CSR file and exit")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := hartconfig.Default()
	if *configPath != "" {
		var err error
		cfg, err = hartconfig.Load(*configPath)
		if err != nil {
			slog.Error("loading machine config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}

	opts, err := cfg.MachineOptions()
	if err != nil {
		slog.Error("invalid machine config", "error", err)
		os.Exit(1)
	}

	m, err := rv.NewMachine(opts)
	if err != nil {
		slog.Error("building machine", "error", err)
		os.Exit(1)
	}

	if *dump {
		dumpCSRs(m.Harts[0])
		return
	}

	monitor(m)
}

func dumpCSRs(cpu *rv.CPU) {
	for _, name := range dumpList {
		no, ok := rv.LookupCSR(name)
		if !ok {
			continue
		}
		val, err := cpu.Csrr(no)
		if err != nil {
			fmt.Printf("%-12s <illegal>\n", name)
			continue
		}
		fmt.Printf("%-12s 0x%016x\n", name, val)
	}
}

func monitor(m *rv.Machine) {
	cpu := m.Harts[0]
	sc := bufio.NewScanner(os.Stdin)

	fmt.Println("rvemu monitor; commands: read <csr>, write <csr> <val>, set <csr> <val>, clear <csr> <val>, dump, reset, quit")
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			return
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "q":
			return
		case "dump":
			dumpCSRs(cpu)
		case "reset":
			m.Reset()
		case "read", "r":
			if len(fields) != 2 {
				fmt.Println("usage: read <csr>")
				continue
			}
			no, ok := resolveCSR(fields[1])
			if !ok {
				fmt.Printf("unknown CSR %q\n", fields[1])
				continue
			}
			val, err := cpu.Csrr(no)
			if err != nil {
				fmt.Printf("%s: illegal CSR access\n", rv.CSRName(no))
				continue
			}
			fmt.Printf("%s = 0x%x\n", rv.CSRName(no), val)
		case "write", "w", "set", "clear":
			if len(fields) != 3 {
				fmt.Printf("usage: %s <csr> <val>\n", fields[0])
				continue
			}
			no, ok := resolveCSR(fields[1])
			if !ok {
				fmt.Printf("unknown CSR %q\n", fields[1])
				continue
			}
			val, err := strconv.ParseUint(fields[2], 0, 64)
			if err != nil {
				fmt.Printf("bad value %q\n", fields[2])
				continue
			}
			var old uint64
			switch fields[0] {
			case "set":
				old, err = cpu.Csrrs(no, val)
			case "clear":
				old, err = cpu.Csrrc(no, val)
			default:
				old, err = cpu.Csrrw(no, val, ^uint64(0))
			}
			if err != nil {
				fmt.Printf("%s: illegal CSR access\n", rv.CSRName(no))
				continue
			}
			fmt.Printf("%s: 0x%x -> written\n", rv.CSRName(no), old)
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func resolveCSR(s string) (uint16, bool) {
	if no, ok := rv.LookupCSR(s); ok {
		return no, true
	}
	n, err := strconv.ParseUint(s, 0, 12)
	if err != nil {
		return 0, false
	}
	return uint16(n), true
}
