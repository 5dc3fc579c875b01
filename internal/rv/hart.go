// Package rv implements the control plane of a RISC-V hart: the CSR file,
// its access engine, and the collaborators it drives (TLB, interrupt
// controller, core-local timer, PMP).
package rv

import (
	"fmt"
	"sync/atomic"
)

// TLBFlusher is the MMU face the CSR layer needs: a single fire-and-forget
// invalidation of all cached translations.
type TLBFlusher interface {
	FlushTLB()
}

// TickSource supplies the values behind cycle, time and instret. When
// Deterministic reports true the counters are backed by the hart's retired
// instruction count instead of host time.
type TickSource interface {
	HostTicks() uint64
	Deterministic() bool
}

// CPU holds the architectural state of one hart that is addressed through
// CSR numbers, plus the wiring to its collaborators.
type CPU struct {
	// XLen is 32 or 64.
	XLen int

	PC      uint64
	LoadRes uint64

	// Floating point accessories. fcsr is a composite of both.
	Frm    uint64
	Fflags uint64

	Badaddr uint64

	// Identity, fixed at creation
	UserVer  uint64
	PrivVer  uint64
	MisaMask uint64
	Misa     uint64
	Mhartid  uint64

	// Current privilege level
	Priv uint8

	// Machine trap state. mip lives in an atomic so device threads can
	// inject interrupts; see IntController.
	Mstatus uint64
	mip     atomic.Uint64
	Mie     uint64
	Mideleg uint64
	Medeleg uint64

	Mtvec    uint64
	Mepc     uint64
	Mcause   uint64
	Mbadaddr uint64 // mtval since priv-1.10
	Mscratch uint64

	// Supervisor trap state. sstatus/sie/sip are windows onto the machine
	// registers and have no storage of their own.
	Stvec    uint64
	Sepc     uint64
	Scause   uint64
	Sbadaddr uint64 // stval since priv-1.10
	Sscratch uint64

	// Translation root
	Sptbr uint64 // until priv-1.9.1
	Satp  uint64 // since priv-1.10

	// Counter enables
	Scounteren uint64
	Mcounteren uint64

	// Retired instruction count, also backing cycle/time in deterministic
	// mode
	Instret uint64

	// Physical memory protection
	Pmp Pmp

	// HasMMU gates the translation root CSR: without an MMU satp reads
	// zero and writes are dropped.
	HasMMU bool

	// WFI flag, set while waiting for an interrupt
	WFI bool

	// Collaborators, preserved across Reset
	MMU   TLBFlusher
	IntC  *IntController
	Clock TickSource

	wfiWake chan struct{}
}

// Options configures a hart at creation. The zero value is an RV64 machine
// hart on priv-1.10 with every extension of misaDefault.
type Options struct {
	XLen     int    // 32 or 64; default 64
	Misa     uint64 // extension bits; default IMAFDCSU
	PrivVer  uint64 // default PrivVersion1_10_0
	Mhartid  uint64
	HasMMU   bool
	IntC     *IntController // shared between harts; default new
	Clock    TickSource
}

const misaDefault = MisaI | MisaM | MisaA | MisaF | MisaD | MisaC | MisaS | MisaU

// NewCPU creates a hart with the given identity. The identity fields
// (misa mask, priv version, hart id) never change afterwards.
func NewCPU(opts Options) (*CPU, error) {
	if opts.XLen == 0 {
		opts.XLen = 64
	}
	if opts.XLen != 32 && opts.XLen != 64 {
		return nil, fmt.Errorf("unsupported xlen %d", opts.XLen)
	}
	if opts.Misa == 0 {
		opts.Misa = misaDefault
	}
	if opts.PrivVer == 0 {
		opts.PrivVer = PrivVersion1_10_0
	}
	if opts.PrivVer != PrivVersion1_09_1 && opts.PrivVer != PrivVersion1_10_0 {
		return nil, fmt.Errorf("unsupported privileged spec version %#x", opts.PrivVer)
	}
	if opts.IntC == nil {
		opts.IntC = NewIntController()
	}

	mxl := MXL64
	if opts.XLen == 32 {
		mxl = MXL32
	}
	misa := opts.Misa | mxl<<(opts.XLen-2)

	cpu := &CPU{
		XLen:     opts.XLen,
		UserVer:  UserVersion2_02_0,
		PrivVer:  opts.PrivVer,
		MisaMask: misa,
		Misa:     misa,
		Mhartid:  opts.Mhartid,
		Priv:     PrivMachine,
		HasMMU:   opts.HasMMU,
		IntC:     opts.IntC,
		Clock:    opts.Clock,
		wfiWake:  make(chan struct{}, 1),
	}
	return cpu, nil
}

// Reset zeros all mutable architectural state. Identity fields and the
// collaborator wiring survive, as do the interrupt controller and timer.
func (cpu *CPU) Reset() {
	cpu.PC = 0
	cpu.LoadRes = 0
	cpu.Frm = 0
	cpu.Fflags = 0
	cpu.Badaddr = 0
	cpu.Misa = cpu.MisaMask
	cpu.Priv = PrivMachine
	cpu.Mstatus = 0
	cpu.mip.Store(0)
	cpu.Mie = 0
	cpu.Mideleg = 0
	cpu.Medeleg = 0
	cpu.Mtvec = 0
	cpu.Mepc = 0
	cpu.Mcause = 0
	cpu.Mbadaddr = 0
	cpu.Mscratch = 0
	cpu.Stvec = 0
	cpu.Sepc = 0
	cpu.Scause = 0
	cpu.Sbadaddr = 0
	cpu.Sscratch = 0
	cpu.Sptbr = 0
	cpu.Satp = 0
	cpu.Scounteren = 0
	cpu.Mcounteren = 0
	cpu.Instret = 0
	cpu.Pmp = Pmp{}
	cpu.WFI = false
	if cpu.MMU != nil {
		cpu.MMU.FlushTLB()
	}
}

// hasExt reports whether the hart implements the given misa extension.
func (cpu *CPU) hasExt(ext uint64) bool {
	return cpu.Misa&ext != 0
}

// Mip returns the interrupt pending bitmap. Safe to call from any thread.
func (cpu *CPU) Mip() uint64 {
	return cpu.mip.Load()
}

// notifyWFI wakes a hart parked in wfi so it re-evaluates delivery.
func (cpu *CPU) notifyWFI() {
	select {
	case cpu.wfiWake <- struct{}{}:
	default:
	}
}

// WFIWake is the channel signalled whenever the pending bitmap changes.
func (cpu *CPU) WFIWake() <-chan struct{} {
	return cpu.wfiWake
}

// mstatusSD returns the SD bit for this hart's XLEN.
func (cpu *CPU) mstatusSD() uint64 {
	if cpu.XLen == 32 {
		return 1 << 31
	}
	return 1 << 63
}

// sstatusMask returns the mstatus bits visible through the sstatus window
// for this hart's privileged spec version.
func (cpu *CPU) sstatusMask() uint64 {
	mask := SstatusSIE | SstatusSPIE | SstatusUIE | SstatusUPIE |
		SstatusSPP | SstatusFS | SstatusXS | SstatusSUM | cpu.mstatusSD()
	if cpu.PrivVer >= PrivVersion1_10_0 {
		mask |= SstatusMXR
	}
	return mask
}

// tlbFlush asks the MMU to drop all cached translations. Harts without an
// MMU still accept the call; translation-affecting CSR writes do not care.
func (cpu *CPU) tlbFlush() {
	if cpu.MMU != nil {
		cpu.MMU.FlushTLB()
	}
}

// GetFflags returns the accrued floating point exception flags.
func (cpu *CPU) GetFflags() uint64 {
	return cpu.Fflags & FcsrFlagsMask
}

// SetFflags stores the accrued floating point exception flags.
func (cpu *CPU) SetFflags(val uint64) {
	cpu.Fflags = val & FcsrFlagsMask
}

// ExceptionError represents a synchronous trap raised by the hart.
type ExceptionError struct {
	Cause uint64
	Tval  uint64
}

func (e ExceptionError) Error() string {
	return fmt.Sprintf("exception: cause=%d tval=0x%x", e.Cause, e.Tval)
}

// Exception creates an exception with the given cause and tval.
func Exception(cause uint64, tval uint64) error {
	return ExceptionError{Cause: cause, Tval: tval}
}

// errIllegalCSR is the single error kind that crosses the CSR accessor
// boundary. The instruction decoder substitutes the faulting encoding as
// tval when it raises.
func errIllegalCSR() error {
	return Exception(CauseIllegalInsn, 0)
}
