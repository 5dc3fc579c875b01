package rv

import "sync"

// Platform-level interrupt controller. External sources funnel through it
// into the hart's SEIP/MEIP bits, which is why those bits stay hardware
// controlled on the mip/sip write path.

// PlicSources is the number of interrupt sources. Source 0 is reserved.
const PlicSources = 64

// PLIC contexts
const (
	PlicCtxMachine    = 0
	PlicCtxSupervisor = 1
)

// Plic aggregates external interrupt sources for one hart's machine and
// supervisor contexts.
type Plic struct {
	cpu *CPU
	ic  *IntController

	mu        sync.Mutex
	priority  [PlicSources]uint32
	pending   uint64
	enable    [2]uint64
	threshold [2]uint32
	claimed   [2]uint32
}

// NewPlic creates a PLIC routing into the given hart.
func NewPlic(cpu *CPU, ic *IntController) *Plic {
	return &Plic{cpu: cpu, ic: ic}
}

// SetPriority sets a source's priority (0 disables the source).
func (p *Plic) SetPriority(source uint32, prio uint32) {
	if source == 0 || source >= PlicSources {
		return
	}
	p.mu.Lock()
	p.priority[source] = prio & 7
	p.update()
	p.mu.Unlock()
}

// SetEnable routes a source into a context.
func (p *Plic) SetEnable(context int, source uint32, enabled bool) {
	if context >= 2 || source == 0 || source >= PlicSources {
		return
	}
	p.mu.Lock()
	if enabled {
		p.enable[context] |= 1 << source
	} else {
		p.enable[context] &^= 1 << source
	}
	p.update()
	p.mu.Unlock()
}

// SetThreshold sets a context's priority threshold.
func (p *Plic) SetThreshold(context int, threshold uint32) {
	if context >= 2 {
		return
	}
	p.mu.Lock()
	p.threshold[context] = threshold & 7
	p.update()
	p.mu.Unlock()
}

// SetPending marks a source as pending or not. Device threads call this.
func (p *Plic) SetPending(source uint32, pending bool) {
	if source == 0 || source >= PlicSources {
		return
	}
	p.mu.Lock()
	if pending {
		p.pending |= 1 << source
	} else {
		p.pending &^= 1 << source
	}
	p.update()
	p.mu.Unlock()
}

// Claim returns the highest-priority pending source for the context and
// clears its pending bit, or zero when nothing is claimable.
func (p *Plic) Claim(context int) uint32 {
	if context >= 2 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var bestSource, bestPriority uint32
	for source := uint32(1); source < PlicSources; source++ {
		if p.pending&(1<<source) == 0 || p.enable[context]&(1<<source) == 0 {
			continue
		}
		if p.priority[source] <= p.threshold[context] {
			continue
		}
		if p.priority[source] > bestPriority {
			bestPriority = p.priority[source]
			bestSource = source
		}
	}

	if bestSource != 0 {
		p.pending &^= 1 << bestSource
		p.claimed[context] = bestSource
	}
	p.update()
	return bestSource
}

// Complete signals the end of handling for a claimed source.
func (p *Plic) Complete(context int, source uint32) {
	if context >= 2 || source == 0 || source >= PlicSources {
		return
	}
	p.mu.Lock()
	if p.claimed[context] == source {
		p.claimed[context] = 0
	}
	p.update()
	p.mu.Unlock()
}

// update recomputes MEIP/SEIP from the pending/enable/threshold state.
// Called with p.mu held.
func (p *Plic) update() {
	if p.claimable(PlicCtxMachine) {
		p.ic.Raise(p.cpu, MipMEIP)
	} else {
		p.ic.Lower(p.cpu, MipMEIP)
	}
	if p.claimable(PlicCtxSupervisor) {
		p.ic.Raise(p.cpu, MipSEIP)
	} else {
		p.ic.Lower(p.cpu, MipSEIP)
	}
}

// claimable reports whether a context has a pending source above its
// threshold.
func (p *Plic) claimable(context int) bool {
	for source := uint32(1); source < PlicSources; source++ {
		if p.pending&(1<<source) == 0 || p.enable[context]&(1<<source) == 0 {
			continue
		}
		if p.priority[source] > p.threshold[context] {
			return true
		}
	}
	return false
}
