package rv

import (
	"sync"
	"time"
)

// Clint is the core-local interruptor: the machine timer and software
// interrupt doorbell for one hart. It also serves as the hart's tick
// source for the cycle/time/instret CSRs.
type Clint struct {
	cpu *CPU
	ic  *IntController

	mu       sync.Mutex
	mtimecmp uint64

	startTime time.Time
	nsPerTick uint64

	deterministic bool
}

// NewClint creates a core-local interruptor for the hart. With
// deterministic set, the counter CSRs draw from the retired instruction
// count instead of host time.
func NewClint(cpu *CPU, ic *IntController, deterministic bool) *Clint {
	return &Clint{
		cpu:           cpu,
		ic:            ic,
		startTime:     time.Now(),
		nsPerTick:     100, // 10 MHz timebase
		mtimecmp:      ^uint64(0),
		deterministic: deterministic,
	}
}

// HostTicks returns the current value of the free-running timebase.
func (c *Clint) HostTicks() uint64 {
	return uint64(time.Since(c.startTime).Nanoseconds()) / c.nsPerTick
}

// Deterministic reports whether counters are backed by instruction
// counting.
func (c *Clint) Deterministic() bool {
	return c.deterministic
}

// Mtime returns the timer value compared against mtimecmp.
func (c *Clint) Mtime() uint64 {
	if c.deterministic {
		return c.cpu.Instret
	}
	return c.HostTicks()
}

// SetTimecmp programs the timer compare value and re-evaluates MTIP.
func (c *Clint) SetTimecmp(val uint64) {
	c.mu.Lock()
	c.mtimecmp = val
	c.mu.Unlock()
	c.Tick()
}

// Timecmp returns the programmed compare value.
func (c *Clint) Timecmp() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mtimecmp
}

// SetMSIP raises or lowers the machine software interrupt doorbell.
func (c *Clint) SetMSIP(pending bool) {
	if pending {
		c.ic.Raise(c.cpu, MipMSIP)
	} else {
		c.ic.Lower(c.cpu, MipMSIP)
	}
}

// Tick compares the timer against mtimecmp and updates MTIP.
func (c *Clint) Tick() {
	c.mu.Lock()
	cmp := c.mtimecmp
	c.mu.Unlock()

	if c.Mtime() >= cmp {
		c.ic.Raise(c.cpu, MipMTIP)
	} else {
		c.ic.Lower(c.cpu, MipMTIP)
	}
}
