package rv

// Trap delivery: the CSR file's two consumers on the trap path. Interrupt
// causes carry the top bit of xcause; the rest is the code.

// interruptBit returns the interrupt flag bit of xcause for this XLEN.
func (cpu *CPU) interruptBit() uint64 {
	if cpu.XLen == 32 {
		return 1 << 31
	}
	return 1 << 63
}

// InterruptCause builds an xcause value for an interrupt code.
func (cpu *CPU) InterruptCause(code uint64) uint64 {
	return cpu.interruptBit() | code
}

// CheckInterrupt reports whether an enabled pending interrupt should be
// taken, and with which cause. Machine interrupts outrank supervisor ones;
// within a level, external before software before timer.
func (cpu *CPU) CheckInterrupt() (bool, uint64) {
	pending := cpu.Mip() & cpu.Mie
	if pending == 0 {
		return false, 0
	}

	mEnabled := cpu.Priv < PrivMachine || cpu.Mstatus&MstatusMIE != 0
	sEnabled := cpu.Priv < PrivSupervisor ||
		(cpu.Priv == PrivSupervisor && cpu.Mstatus&MstatusSIE != 0)

	if mPending := pending &^ cpu.Mideleg; mEnabled && mPending != 0 {
		return true, cpu.InterruptCause(highestInterrupt(mPending))
	}
	if sPending := pending & cpu.Mideleg; sEnabled && sPending != 0 {
		return true, cpu.InterruptCause(highestInterrupt(sPending))
	}
	return false, 0
}

var interruptOrder = []struct {
	bit  uint64
	code uint64
}{
	{MipMEIP, IntMExternal},
	{MipMSIP, IntMSoftware},
	{MipMTIP, IntMTimer},
	{MipSEIP, IntSExternal},
	{MipSSIP, IntSSoftware},
	{MipSTIP, IntSTimer},
}

func highestInterrupt(pending uint64) uint64 {
	for _, o := range interruptOrder {
		if pending&o.bit != 0 {
			return o.code
		}
	}
	return 0
}

// HandleTrap delivers a trap: captures epc/cause/tval, shuffles the
// interrupt-enable stack, switches privilege and jumps to the trap vector.
// Traps from S or U whose cause is delegated land in supervisor mode.
func (cpu *CPU) HandleTrap(cause, tval uint64) {
	isInterrupt := cause&cpu.interruptBit() != 0
	code := cause &^ cpu.interruptBit()

	delegate := false
	if cpu.Priv <= PrivSupervisor && code < 64 {
		if isInterrupt {
			delegate = cpu.Mideleg&(1<<code) != 0
		} else {
			delegate = cpu.Medeleg&(1<<code) != 0
		}
	}

	if delegate {
		cpu.Sepc = cpu.PC
		cpu.Scause = cause
		cpu.Sbadaddr = tval

		if cpu.Mstatus&MstatusSIE != 0 {
			cpu.Mstatus |= MstatusSPIE
		} else {
			cpu.Mstatus &^= MstatusSPIE
		}
		cpu.Mstatus &^= MstatusSIE

		if cpu.Priv == PrivSupervisor {
			cpu.Mstatus |= MstatusSPP
		} else {
			cpu.Mstatus &^= MstatusSPP
		}

		cpu.Priv = PrivSupervisor
		cpu.PC = cpu.Stvec
		return
	}

	cpu.Mepc = cpu.PC
	cpu.Mcause = cause
	cpu.Mbadaddr = tval

	if cpu.Mstatus&MstatusMIE != 0 {
		cpu.Mstatus |= MstatusMPIE
	} else {
		cpu.Mstatus &^= MstatusMPIE
	}
	cpu.Mstatus &^= MstatusMIE

	cpu.Mstatus = cpu.Mstatus&^MstatusMPP | uint64(cpu.Priv)<<MstatusMPPShift

	cpu.Priv = PrivMachine
	cpu.PC = cpu.Mtvec
}

// ReturnFromTrap implements mret/sret at the CSR level: restores the
// previous privilege and interrupt-enable state and returns the pc to
// resume at.
func (cpu *CPU) ReturnFromTrap(from uint8) uint64 {
	if from == PrivSupervisor {
		prev := PrivUser
		if cpu.Mstatus&MstatusSPP != 0 {
			prev = PrivSupervisor
		}
		if cpu.Mstatus&MstatusSPIE != 0 {
			cpu.Mstatus |= MstatusSIE
		} else {
			cpu.Mstatus &^= MstatusSIE
		}
		cpu.Mstatus |= MstatusSPIE
		cpu.Mstatus &^= MstatusSPP
		cpu.Priv = prev
		return cpu.Sepc
	}

	prev := uint8((cpu.Mstatus & MstatusMPP) >> MstatusMPPShift)
	if cpu.Mstatus&MstatusMPIE != 0 {
		cpu.Mstatus |= MstatusMIE
	} else {
		cpu.Mstatus &^= MstatusMIE
	}
	cpu.Mstatus |= MstatusMPIE
	cpu.Mstatus &^= MstatusMPP
	cpu.Priv = prev
	return cpu.Mepc
}
