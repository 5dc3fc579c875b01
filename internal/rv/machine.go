package rv

import (
	"fmt"
	"log/slog"
)

// RAMBase is the default physical load address of memory.
const RAMBase uint64 = 0x8000_0000

// MachineOptions configures a machine.
type MachineOptions struct {
	XLen          int
	Misa          uint64
	PrivVer       uint64
	Harts         int
	RAMBase       uint64
	RAMSize       uint64
	HasMMU        bool
	Deterministic bool
}

// Machine wires one or more harts to their shared interrupt controller,
// physical memory, per-hart MMUs and core-local timers, and a single
// platform interrupt controller routed to hart 0.
type Machine struct {
	Harts  []*CPU
	MMUs   []*MMU
	Clints []*Clint
	Plic   *Plic
	RAM    *RAM
	IntC   *IntController
}

// NewMachine builds a machine from the options. Zero-value fields take
// defaults: one RV64 hart, 16 MiB of RAM at RAMBase, priv-1.10.
func NewMachine(opts MachineOptions) (*Machine, error) {
	if opts.Harts == 0 {
		opts.Harts = 1
	}
	if opts.Harts < 1 {
		return nil, fmt.Errorf("invalid hart count %d", opts.Harts)
	}
	if opts.RAMBase == 0 {
		opts.RAMBase = RAMBase
	}
	if opts.RAMSize == 0 {
		opts.RAMSize = 16 << 20
	}

	m := &Machine{
		RAM:  NewRAM(opts.RAMBase, opts.RAMSize),
		IntC: NewIntController(),
	}

	for id := 0; id < opts.Harts; id++ {
		cpu, err := NewCPU(Options{
			XLen:    opts.XLen,
			Misa:    opts.Misa,
			PrivVer: opts.PrivVer,
			Mhartid: uint64(id),
			HasMMU:  opts.HasMMU,
			IntC:    m.IntC,
		})
		if err != nil {
			return nil, err
		}

		mmu := NewMMU(cpu, m.RAM)
		cpu.MMU = mmu

		clint := NewClint(cpu, m.IntC, opts.Deterministic)
		cpu.Clock = clint

		m.Harts = append(m.Harts, cpu)
		m.MMUs = append(m.MMUs, mmu)
		m.Clints = append(m.Clints, clint)
	}

	m.Plic = NewPlic(m.Harts[0], m.IntC)

	slog.Debug("machine created",
		"harts", opts.Harts,
		"xlen", m.Harts[0].XLen,
		"priv_ver", fmt.Sprintf("%#x", m.Harts[0].PrivVer),
		"mmu", opts.HasMMU)

	return m, nil
}

// Reset resets every hart. The interrupt controller, timers and RAM
// contents survive, matching a CPU-only reset line.
func (m *Machine) Reset() {
	for _, cpu := range m.Harts {
		cpu.Reset()
	}
	slog.Debug("machine reset", "harts", len(m.Harts))
}
