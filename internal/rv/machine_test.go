package rv

import (
	"sync"
	"testing"
)

func TestNewMachineDefaults(t *testing.T) {
	m, err := NewMachine(MachineOptions{})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if len(m.Harts) != 1 {
		t.Fatalf("harts: got %d", len(m.Harts))
	}

	cpu := m.Harts[0]
	misa, err := cpu.Csrr(CSRMisa)
	if err != nil {
		t.Fatalf("misa read: %v", err)
	}
	if misa>>62 != MXL64 {
		t.Fatalf("MXL: got %d", misa>>62)
	}
	if misa&MisaS == 0 || misa&MisaU == 0 {
		t.Fatalf("misa missing S/U: %#x", misa)
	}
	if cpu.Clock == nil || cpu.MMU == nil || cpu.IntC == nil {
		t.Fatal("collaborators not wired")
	}
}

func TestMultiHartIdentity(t *testing.T) {
	m, err := NewMachine(MachineOptions{Harts: 4})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	for i, cpu := range m.Harts {
		id, err := cpu.Csrr(CSRMhartid)
		if err != nil {
			t.Fatalf("mhartid: %v", err)
		}
		if id != uint64(i) {
			t.Errorf("hart %d: mhartid %d", i, id)
		}
		if cpu.IntC != m.IntC {
			t.Errorf("hart %d has its own interrupt controller", i)
		}
	}
}

func TestClintTimerInterrupt(t *testing.T) {
	m, err := NewMachine(MachineOptions{Deterministic: true})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	cpu, clint := m.Harts[0], m.Clints[0]
	cpu.Instret = 100

	clint.SetTimecmp(50)
	if cpu.Mip()&MipMTIP == 0 {
		t.Fatal("MTIP not raised with mtime past mtimecmp")
	}

	clint.SetTimecmp(200)
	if cpu.Mip()&MipMTIP != 0 {
		t.Fatal("MTIP not lowered after reprogramming mtimecmp")
	}

	clint.SetMSIP(true)
	if cpu.Mip()&MipMSIP == 0 {
		t.Fatal("MSIP doorbell not raised")
	}
	clint.SetMSIP(false)
	if cpu.Mip()&MipMSIP != 0 {
		t.Fatal("MSIP doorbell not lowered")
	}
}

func TestDeterministicCounters(t *testing.T) {
	m, err := NewMachine(MachineOptions{Deterministic: true})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	cpu := m.Harts[0]
	cpu.Instret = 777

	got, err := cpu.Csrr(CSRCycle)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if got != 777 {
		t.Fatalf("deterministic cycle: got %d", got)
	}
}

func TestHostTickCounters(t *testing.T) {
	m, err := NewMachine(MachineOptions{})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	cpu := m.Harts[0]

	a, err := cpu.Csrr(CSRTime)
	if err != nil {
		t.Fatalf("time: %v", err)
	}
	b, err := cpu.Csrr(CSRTime)
	if err != nil {
		t.Fatalf("time: %v", err)
	}
	if b < a {
		t.Fatalf("time went backwards: %d -> %d", a, b)
	}
}

func TestPlicRoutesExternalInterrupts(t *testing.T) {
	m, err := NewMachine(MachineOptions{})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	cpu, plic := m.Harts[0], m.Plic

	plic.SetPriority(5, 7)
	plic.SetEnable(PlicCtxSupervisor, 5, true)
	plic.SetPending(5, true)
	if cpu.Mip()&MipSEIP == 0 {
		t.Fatal("SEIP not raised")
	}
	if cpu.Mip()&MipMEIP != 0 {
		t.Fatal("MEIP raised without machine-context enable")
	}

	if src := plic.Claim(PlicCtxSupervisor); src != 5 {
		t.Fatalf("claim: got %d, want 5", src)
	}
	if cpu.Mip()&MipSEIP != 0 {
		t.Fatal("SEIP still pending after claim")
	}
	plic.Complete(PlicCtxSupervisor, 5)

	// Sources whose priority does not exceed the threshold are not
	// claimable.
	plic.SetThreshold(PlicCtxSupervisor, 7)
	plic.SetPending(5, true)
	if cpu.Mip()&MipSEIP != 0 {
		t.Fatal("SEIP raised below threshold")
	}
	if src := plic.Claim(PlicCtxSupervisor); src != 0 {
		t.Fatalf("claim below threshold: got %d", src)
	}
}

func TestInterruptDeliveryPriority(t *testing.T) {
	m, err := NewMachine(MachineOptions{})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	cpu := m.Harts[0]

	if err := cpu.Csrw(CSRMie, MipMSIP|MipMTIP|MipSSIP); err != nil {
		t.Fatalf("mie write: %v", err)
	}
	if err := cpu.Csrw(CSRMstatus, MstatusMIE); err != nil {
		t.Fatalf("mstatus write: %v", err)
	}

	m.IntC.Raise(cpu, MipMTIP|MipMSIP)
	take, cause := cpu.CheckInterrupt()
	if !take {
		t.Fatal("enabled pending interrupt not taken")
	}
	if cause != cpu.InterruptCause(IntMSoftware) {
		t.Fatalf("cause: got %#x, want software before timer", cause)
	}

	// With MIE clear in machine mode, nothing is taken.
	if err := cpu.Csrw(CSRMstatus, 0); err != nil {
		t.Fatalf("mstatus write: %v", err)
	}
	if take, _ := cpu.CheckInterrupt(); take {
		t.Fatal("interrupt taken with MIE clear in machine mode")
	}
}

func TestDelegatedInterruptDelivery(t *testing.T) {
	m, err := NewMachine(MachineOptions{})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	cpu := m.Harts[0]

	cpu.Csrw(CSRMideleg, MipSSIP)
	cpu.Csrw(CSRMie, MipSSIP)
	m.IntC.Raise(cpu, MipSSIP)

	// A delegated interrupt is invisible while in machine mode.
	if take, _ := cpu.CheckInterrupt(); take {
		t.Fatal("delegated interrupt taken in machine mode")
	}

	cpu.Priv = PrivSupervisor
	cpu.Mstatus |= MstatusSIE
	take, cause := cpu.CheckInterrupt()
	if !take || cause != cpu.InterruptCause(IntSSoftware) {
		t.Fatalf("delegated interrupt: take=%v cause=%#x", take, cause)
	}
}

func TestTrapDelegation(t *testing.T) {
	m, err := NewMachine(MachineOptions{})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	cpu := m.Harts[0]

	cpu.Csrw(CSRMedeleg, 1<<CauseEcallFromU)
	cpu.Csrw(CSRStvec, 0x4000)
	cpu.Csrw(CSRMtvec, 0x8000)

	cpu.Priv = PrivUser
	cpu.PC = 0x1234
	cpu.HandleTrap(CauseEcallFromU, 0)

	if cpu.Priv != PrivSupervisor {
		t.Fatalf("delegated trap landed in %d", cpu.Priv)
	}
	if cpu.Sepc != 0x1234 || cpu.Scause != CauseEcallFromU {
		t.Fatalf("sepc=%#x scause=%#x", cpu.Sepc, cpu.Scause)
	}
	if cpu.PC != 0x4000 {
		t.Fatalf("PC: got %#x, want stvec", cpu.PC)
	}
	if cpu.Mstatus&MstatusSPP != 0 {
		t.Fatal("SPP records S for a trap from U")
	}

	// An undelegated cause from the same mode goes to machine.
	cpu.Priv = PrivUser
	cpu.PC = 0x5678
	cpu.HandleTrap(CauseIllegalInsn, 0xbad)
	if cpu.Priv != PrivMachine {
		t.Fatalf("undelegated trap landed in %d", cpu.Priv)
	}
	if cpu.Mepc != 0x5678 || cpu.Mbadaddr != 0xbad {
		t.Fatalf("mepc=%#x mtval=%#x", cpu.Mepc, cpu.Mbadaddr)
	}
	if (cpu.Mstatus&MstatusMPP)>>MstatusMPPShift != uint64(PrivUser) {
		t.Fatal("MPP does not record the trapped-from privilege")
	}
	if cpu.PC != 0x8000 {
		t.Fatalf("PC: got %#x, want mtvec", cpu.PC)
	}
}

func TestReturnFromTrap(t *testing.T) {
	m, err := NewMachine(MachineOptions{})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	cpu := m.Harts[0]

	cpu.Csrw(CSRMstatus, MstatusMIE)
	cpu.Csrw(CSRMtvec, 0x8000)
	cpu.Priv = PrivSupervisor
	cpu.PC = 0x1000
	cpu.HandleTrap(CauseEcallFromS, 0)

	if cpu.Mstatus&MstatusMIE != 0 {
		t.Fatal("MIE not cleared on trap entry")
	}

	pc := cpu.ReturnFromTrap(PrivMachine)
	if pc != 0x1000 {
		t.Fatalf("mret pc: got %#x", pc)
	}
	if cpu.Priv != PrivSupervisor {
		t.Fatalf("mret privilege: got %d", cpu.Priv)
	}
	if cpu.Mstatus&MstatusMIE == 0 {
		t.Fatal("MIE not restored from MPIE")
	}
}

func TestWFIWakeOnInjection(t *testing.T) {
	m, err := NewMachine(MachineOptions{})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	cpu := m.Harts[0]

	// Drain any stale wakeup.
	select {
	case <-cpu.WFIWake():
	default:
	}

	m.IntC.Raise(cpu, MipSSIP)
	select {
	case <-cpu.WFIWake():
	default:
		t.Fatal("interrupt injection did not signal the wfi channel")
	}
}

// Device threads and the hart may touch mip concurrently; run under the
// race detector.
func TestConcurrentMipTraffic(t *testing.T) {
	m, err := NewMachine(MachineOptions{})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	cpu := m.Harts[0]

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.IntC.Raise(cpu, MipSTIP)
			m.IntC.Lower(cpu, MipSTIP)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if _, err := cpu.Csrrs(CSRMip, MipSSIP); err != nil {
				t.Errorf("csrrs mip: %v", err)
				return
			}
			if _, err := cpu.Csrrc(CSRMip, MipSSIP); err != nil {
				t.Errorf("csrrc mip: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	if cpu.Mip()&MipSTIP != 0 {
		t.Fatal("STIP left pending")
	}
}
