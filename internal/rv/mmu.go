package rv

// Page table entry flags
const (
	PteV uint64 = 1 << 0 // Valid
	PteR uint64 = 1 << 1 // Readable
	PteW uint64 = 1 << 2 // Writable
	PteX uint64 = 1 << 3 // Executable
	PteU uint64 = 1 << 4 // User accessible
	PteG uint64 = 1 << 5 // Global
	PteA uint64 = 1 << 6 // Accessed
	PteD uint64 = 1 << 7 // Dirty
)

// Paging geometry
const (
	PageSize  = 4096
	PageShift = 12
)

// Access kinds for Translate
const (
	AccessRead = iota
	AccessWrite
	AccessFetch
)

// Memory is the physical memory the page walker reads PTEs from.
type Memory interface {
	Read32(addr uint64) (uint32, error)
	Write32(addr uint64, val uint32) error
	Read64(addr uint64) (uint64, error)
	Write64(addr uint64, val uint64) error
}

// TLBEntry caches one translation.
type TLBEntry struct {
	Valid    bool
	VPN      uint64
	PPN      uint64
	Flags    uint64
	PageSize uint64
	ASID     uint16
}

// MMU translates virtual addresses for one hart. The CSR layer drives it
// through exactly one call, FlushTLB; everything else is the memory path's
// business.
type MMU struct {
	cpu *CPU
	mem Memory

	tlb [512]TLBEntry
}

// NewMMU creates an MMU for the hart backed by the given physical memory.
func NewMMU(cpu *CPU, mem Memory) *MMU {
	return &MMU{cpu: cpu, mem: mem}
}

// FlushTLB invalidates every cached translation.
func (mmu *MMU) FlushTLB() {
	for i := range mmu.tlb {
		mmu.tlb[i].Valid = false
	}
}

// walkGeometry describes one paging mode.
type walkGeometry struct {
	levels  int
	vpnBits uint
	pteSize uint64
}

var (
	geomSv32 = walkGeometry{levels: 2, vpnBits: 10, pteSize: 4}
	geomSv39 = walkGeometry{levels: 3, vpnBits: 9, pteSize: 8}
	geomSv48 = walkGeometry{levels: 4, vpnBits: 9, pteSize: 8}
	geomSv57 = walkGeometry{levels: 5, vpnBits: 9, pteSize: 8}
)

// rootTranslation decodes the active paging mode, root page table address
// and ASID from the hart's translation CSRs. enabled is false in bare
// mode. The root register is satp on priv-1.10 and sptbr plus mstatus.VM
// before that.
func (mmu *MMU) rootTranslation() (geom walkGeometry, root uint64, asid uint16, enabled bool) {
	cpu := mmu.cpu
	if cpu.PrivVer >= PrivVersion1_10_0 {
		mode := satpMode(cpu.XLen, cpu.Satp)
		if cpu.XLen == 32 {
			if mode != SatpModeSv32 {
				return walkGeometry{}, 0, 0, false
			}
			return geomSv32, (cpu.Satp & Satp32PpnMask) << PageShift,
				uint16((cpu.Satp & Satp32AsidMask) >> Satp32AsidShift), true
		}
		switch mode {
		case SatpModeSv39:
			geom = geomSv39
		case SatpModeSv48:
			geom = geomSv48
		case SatpModeSv57:
			geom = geomSv57
		default:
			return walkGeometry{}, 0, 0, false
		}
		return geom, (cpu.Satp & Satp64PpnMask) << PageShift,
			uint16((cpu.Satp & Satp64AsidMask) >> Satp64AsidShift), true
	}

	switch (cpu.Mstatus & MstatusVM) >> MstatusVMShift {
	case VM109Sv32:
		geom = geomSv32
	case VM109Sv39:
		geom = geomSv39
	case VM109Sv48:
		geom = geomSv48
	default:
		return walkGeometry{}, 0, 0, false
	}
	return geom, cpu.Sptbr << PageShift, 0, true
}

// effectivePriv returns the privilege the access is performed at. Loads
// and stores from machine mode honor MPRV by running at MPP's privilege;
// fetches never do.
func (mmu *MMU) effectivePriv(access int) uint8 {
	priv := mmu.cpu.Priv
	if priv == PrivMachine && access != AccessFetch && mmu.cpu.Mstatus&MstatusMPRV != 0 {
		priv = uint8((mmu.cpu.Mstatus & MstatusMPP) >> MstatusMPPShift)
	}
	return priv
}

// Translate translates a virtual address to a physical address, checking
// page permissions and PMP along the way.
func (mmu *MMU) Translate(vaddr uint64, access int) (uint64, error) {
	cpu := mmu.cpu
	priv := mmu.effectivePriv(access)

	geom, root, asid, enabled := mmu.rootTranslation()
	if !enabled || priv == PrivMachine {
		if !cpu.Pmp.Check(vaddr, 1, priv, pmpAccess(access)) {
			return 0, accessFault(access, vaddr)
		}
		return vaddr, nil
	}

	vpn := vaddr >> PageShift
	idx := vpn & uint64(len(mmu.tlb)-1)
	entry := &mmu.tlb[idx]

	if entry.Valid && entry.VPN == vpn && (entry.ASID == asid || entry.Flags&PteG != 0) {
		if err := mmu.checkPermissions(entry.Flags, access, priv, vaddr); err != nil {
			return 0, err
		}
		if entry.Flags&PteA == 0 || (access == AccessWrite && entry.Flags&PteD == 0) {
			// Force a walk so the walker sets A/D.
			entry.Valid = false
		} else {
			pageOffset := vaddr & (entry.PageSize - 1)
			return entry.PPN<<PageShift | pageOffset, nil
		}
	}

	paddr, flags, pageSize, err := mmu.walk(vaddr, access, priv, geom, root)
	if err != nil {
		return 0, err
	}

	entry.Valid = true
	entry.VPN = vpn
	entry.PPN = paddr >> PageShift
	entry.Flags = flags
	entry.PageSize = pageSize
	entry.ASID = asid

	return paddr, nil
}

// walk performs the page table walk.
func (mmu *MMU) walk(vaddr uint64, access int, priv uint8, geom walkGeometry, root uint64) (uint64, uint64, uint64, error) {
	vpnMask := uint64(1)<<geom.vpnBits - 1

	// Virtual addresses must be the sign extension of the top VPN bit.
	if mmu.cpu.XLen == 64 {
		top := uint(PageShift) + uint(geom.levels)*geom.vpnBits - 1
		hi := vaddr >> top
		if hi != 0 && hi != ^uint64(0)>>top {
			return 0, 0, 0, pageFault(access, vaddr)
		}
	}

	tableAddr := root
	var pageSize uint64 = PageSize

	for level := geom.levels - 1; level >= 0; level-- {
		vpnShift := uint(PageShift) + uint(level)*geom.vpnBits
		vpn := (vaddr >> vpnShift) & vpnMask
		pteAddr := tableAddr + vpn*geom.pteSize

		if !mmu.cpu.Pmp.Check(pteAddr, geom.pteSize, PrivSupervisor, PmpAccessRead) {
			return 0, 0, 0, accessFault(access, vaddr)
		}

		pte, err := mmu.readPTE(pteAddr, geom.pteSize)
		if err != nil {
			return 0, 0, 0, accessFault(access, vaddr)
		}

		if pte&PteV == 0 || (pte&PteR == 0 && pte&PteW != 0) {
			return 0, 0, 0, pageFault(access, vaddr)
		}

		ppn := pte >> 10

		if pte&(PteR|PteX) == 0 {
			// Pointer to the next level.
			tableAddr = ppn << PageShift
			continue
		}

		// Leaf PTE.
		if level > 0 {
			mask := uint64(1)<<(uint(level)*geom.vpnBits) - 1
			if ppn&mask != 0 {
				return 0, 0, 0, pageFault(access, vaddr) // misaligned superpage
			}
			pageSize = uint64(1) << (uint(PageShift) + uint(level)*geom.vpnBits)
			ppn |= (vaddr >> PageShift) & mask
		}

		if err := mmu.checkPermissions(pte, access, priv, vaddr); err != nil {
			return 0, 0, 0, err
		}

		if pte&PteA == 0 || (access == AccessWrite && pte&PteD == 0) {
			newPte := pte | PteA
			if access == AccessWrite {
				newPte |= PteD
			}
			if err := mmu.writePTE(pteAddr, geom.pteSize, newPte); err != nil {
				return 0, 0, 0, accessFault(access, vaddr)
			}
			pte = newPte
		}

		paddr := ppn<<PageShift | vaddr&(pageSize-1)
		if !mmu.cpu.Pmp.Check(paddr, 1, priv, pmpAccess(access)) {
			return 0, 0, 0, accessFault(access, vaddr)
		}
		return paddr, pte, pageSize, nil
	}

	return 0, 0, 0, pageFault(access, vaddr)
}

func (mmu *MMU) readPTE(addr, size uint64) (uint64, error) {
	if size == 4 {
		v, err := mmu.mem.Read32(addr)
		return uint64(v), err
	}
	return mmu.mem.Read64(addr)
}

func (mmu *MMU) writePTE(addr, size, val uint64) error {
	if size == 4 {
		return mmu.mem.Write32(addr, uint32(val))
	}
	return mmu.mem.Write64(addr, val)
}

// checkPermissions applies the U/SUM/MXR rules and the R/W/X bits.
func (mmu *MMU) checkPermissions(pte uint64, access int, priv uint8, vaddr uint64) error {
	if priv == PrivUser {
		if pte&PteU == 0 {
			return pageFault(access, vaddr)
		}
	} else if pte&PteU != 0 {
		if access == AccessFetch || mmu.cpu.Mstatus&MstatusSUM == 0 {
			return pageFault(access, vaddr)
		}
	}

	switch access {
	case AccessRead:
		if pte&PteR == 0 {
			if mmu.cpu.Mstatus&MstatusMXR != 0 && pte&PteX != 0 {
				return nil
			}
			return pageFault(access, vaddr)
		}
	case AccessWrite:
		if pte&PteW == 0 {
			return pageFault(access, vaddr)
		}
	case AccessFetch:
		if pte&PteX == 0 {
			return pageFault(access, vaddr)
		}
	}
	return nil
}

func pmpAccess(access int) int {
	switch access {
	case AccessWrite:
		return PmpAccessWrite
	case AccessFetch:
		return PmpAccessExec
	}
	return PmpAccessRead
}

func pageFault(access int, vaddr uint64) error {
	switch access {
	case AccessWrite:
		return Exception(CauseStorePageFault, vaddr)
	case AccessFetch:
		return Exception(CauseInsnPageFault, vaddr)
	}
	return Exception(CauseLoadPageFault, vaddr)
}

func accessFault(access int, vaddr uint64) error {
	switch access {
	case AccessWrite:
		return Exception(CauseStoreAccessFault, vaddr)
	case AccessFetch:
		return Exception(CauseInsnAccessFault, vaddr)
	}
	return Exception(CauseLoadAccessFault, vaddr)
}
