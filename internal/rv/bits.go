package rv

// Privilege levels
const (
	PrivUser       uint8 = 0
	PrivSupervisor uint8 = 1
	PrivHypervisor uint8 = 2 // never taken
	PrivMachine    uint8 = 3
)

// Privileged spec versions, fixed at hart creation
const (
	PrivVersion1_09_1 uint64 = 0x00010901
	PrivVersion1_10_0 uint64 = 0x00011000
)

// User spec version
const UserVersion2_02_0 uint64 = 0x00020200

// ISA extension bits for misa, indexed by letter
const (
	MisaA uint64 = 1 << 0  // Atomic
	MisaC uint64 = 1 << 2  // Compressed
	MisaD uint64 = 1 << 3  // Double-precision float
	MisaF uint64 = 1 << 5  // Single-precision float
	MisaI uint64 = 1 << 8  // Base integer ISA
	MisaM uint64 = 1 << 12 // Multiply/Divide
	MisaN uint64 = 1 << 13 // User-level interrupts
	MisaS uint64 = 1 << 18 // Supervisor mode
	MisaU uint64 = 1 << 20 // User mode
)

// MXL values for the top two bits of misa
const (
	MXL32 uint64 = 1
	MXL64 uint64 = 2
)

// mstatus bits
const (
	MstatusUIE  uint64 = 1 << 0
	MstatusSIE  uint64 = 1 << 1
	MstatusHIE  uint64 = 1 << 2
	MstatusMIE  uint64 = 1 << 3
	MstatusUPIE uint64 = 1 << 4
	MstatusSPIE uint64 = 1 << 5
	MstatusHPIE uint64 = 1 << 6
	MstatusMPIE uint64 = 1 << 7
	MstatusSPP  uint64 = 1 << 8
	MstatusHPP  uint64 = 3 << 9
	MstatusMPP  uint64 = 3 << 11
	MstatusFS   uint64 = 3 << 13
	MstatusXS   uint64 = 3 << 15
	MstatusMPRV uint64 = 1 << 17
	MstatusSUM  uint64 = 1 << 18 // PUM before priv-1.10
	MstatusMXR  uint64 = 1 << 19
	MstatusTVM  uint64 = 1 << 20
	MstatusTW   uint64 = 1 << 21
	MstatusTSR  uint64 = 1 << 22
	MstatusVM   uint64 = 0x1f << 24 // until priv-1.9.1
)

// mstatus field positions
const (
	MstatusSPPShift = 8
	MstatusMPPShift = 11
	MstatusFSShift  = 13
	MstatusXSShift  = 15
	MstatusVMShift  = 24
)

// FS/XS field states
const (
	ExtStatusOff     uint64 = 0
	ExtStatusInitial uint64 = 1
	ExtStatusClean   uint64 = 2
	ExtStatusDirty   uint64 = 3
)

// sstatus bits (the mstatus bits visible through the sstatus window)
const (
	SstatusUIE  = MstatusUIE
	SstatusSIE  = MstatusSIE
	SstatusUPIE = MstatusUPIE
	SstatusSPIE = MstatusSPIE
	SstatusSPP  = MstatusSPP
	SstatusFS   = MstatusFS
	SstatusXS   = MstatusXS
	SstatusSUM  = MstatusSUM
	SstatusMXR  = MstatusMXR
)

// mip/mie bits
const (
	MipUSIP uint64 = 1 << 0
	MipSSIP uint64 = 1 << 1  // Supervisor software interrupt pending
	MipHSIP uint64 = 1 << 2
	MipMSIP uint64 = 1 << 3  // Machine software interrupt pending
	MipUTIP uint64 = 1 << 4
	MipSTIP uint64 = 1 << 5  // Supervisor timer interrupt pending
	MipHTIP uint64 = 1 << 6
	MipMTIP uint64 = 1 << 7  // Machine timer interrupt pending
	MipUEIP uint64 = 1 << 8
	MipSEIP uint64 = 1 << 9  // Supervisor external interrupt pending
	MipHEIP uint64 = 1 << 10
	MipMEIP uint64 = 1 << 11 // Machine external interrupt pending
)

// Interrupts that machine mode may delegate to supervisor mode, and the full
// set of interrupts the mie register implements.
const (
	DelegableInts = MipSSIP | MipSTIP | MipSEIP
	AllInts       = MipSSIP | MipSTIP | MipSEIP | MipMSIP | MipMTIP
)

// Exception causes
const (
	CauseInsnAddrMisaligned  uint64 = 0
	CauseInsnAccessFault     uint64 = 1
	CauseIllegalInsn         uint64 = 2
	CauseBreakpoint          uint64 = 3
	CauseLoadAddrMisaligned  uint64 = 4
	CauseLoadAccessFault     uint64 = 5
	CauseStoreAddrMisaligned uint64 = 6
	CauseStoreAccessFault    uint64 = 7
	CauseEcallFromU          uint64 = 8
	CauseEcallFromS          uint64 = 9
	CauseEcallFromH          uint64 = 10
	CauseEcallFromM          uint64 = 11
	CauseInsnPageFault       uint64 = 12
	CauseLoadPageFault       uint64 = 13
	CauseStorePageFault      uint64 = 15
)

// Exceptions that machine mode may delegate to supervisor mode.
const DelegableExcps uint64 = 1<<CauseInsnAddrMisaligned |
	1<<CauseInsnAccessFault |
	1<<CauseIllegalInsn |
	1<<CauseBreakpoint |
	1<<CauseLoadAddrMisaligned |
	1<<CauseLoadAccessFault |
	1<<CauseStoreAddrMisaligned |
	1<<CauseStoreAccessFault |
	1<<CauseEcallFromU |
	1<<CauseEcallFromS |
	1<<CauseEcallFromH |
	1<<CauseEcallFromM |
	1<<CauseInsnPageFault |
	1<<CauseLoadPageFault |
	1<<CauseStorePageFault

// Interrupt causes (top bit of xcause set)
const (
	IntSSoftware uint64 = 1
	IntMSoftware uint64 = 3
	IntSTimer    uint64 = 5
	IntMTimer    uint64 = 7
	IntSExternal uint64 = 9
	IntMExternal uint64 = 11
)

// fcsr layout: accrued exception flags in [4:0], rounding mode in [7:5]
const (
	FcsrFlagsMask  uint64 = 0x1f
	FcsrRoundShift        = 5
	FcsrRoundMask  uint64 = 0x7 << FcsrRoundShift
)

// satp layout, priv-1.10
const (
	Satp64ModeShift = 60
	Satp64ModeMask  uint64 = 0xf << 60
	Satp64AsidShift = 44
	Satp64AsidMask  uint64 = 0xffff << 44
	Satp64PpnMask   uint64 = (1 << 44) - 1

	Satp32ModeShift = 31
	Satp32ModeMask  uint64 = 1 << 31
	Satp32AsidShift = 22
	Satp32AsidMask  uint64 = 0x1ff << 22
	Satp32PpnMask   uint64 = (1 << 22) - 1
)

// satp.MODE values, priv-1.10
const (
	SatpModeBare uint64 = 0
	SatpModeSv32 uint64 = 1 // RV32 only
	SatpModeSv39 uint64 = 8 // RV64 only
	SatpModeSv48 uint64 = 9
	SatpModeSv57 uint64 = 10
)

// mstatus.VM values, priv-1.9.1
const (
	VM109Mbare uint64 = 0
	VM109Sv32  uint64 = 8
	VM109Sv39  uint64 = 9
	VM109Sv48  uint64 = 10
)

// Physical address widths (paging root truncation on priv-1.9.1)
const (
	PhysAddrBits64 = 50
	PhysAddrBits32 = 34
)

// CSR addresses
const (
	// User floating point
	CSRFflags uint16 = 0x001
	CSRFrm    uint16 = 0x002
	CSRFcsr   uint16 = 0x003

	// User counters
	CSRCycle         uint16 = 0xc00
	CSRTime          uint16 = 0xc01
	CSRInstret       uint16 = 0xc02
	CSRHpmcounter3   uint16 = 0xc03
	CSRHpmcounter31  uint16 = 0xc1f
	CSRCycleh        uint16 = 0xc80
	CSRTimeh         uint16 = 0xc81
	CSRInstreth      uint16 = 0xc82
	CSRHpmcounter3h  uint16 = 0xc83
	CSRHpmcounter31h uint16 = 0xc9f

	// Supervisor trap setup
	CSRSstatus    uint16 = 0x100
	CSRSie        uint16 = 0x104
	CSRStvec      uint16 = 0x105
	CSRScounteren uint16 = 0x106

	// Supervisor trap handling
	CSRSscratch uint16 = 0x140
	CSRSepc     uint16 = 0x141
	CSRScause   uint16 = 0x142
	CSRSbadaddr uint16 = 0x143 // stval since priv-1.10
	CSRSip      uint16 = 0x144

	// Supervisor protection and translation
	CSRSatp uint16 = 0x180 // sptbr until priv-1.9.1

	// Machine information
	CSRMvendorid uint16 = 0xf11
	CSRMarchid   uint16 = 0xf12
	CSRMimpid    uint16 = 0xf13
	CSRMhartid   uint16 = 0xf14

	// Machine trap setup
	CSRMstatus    uint16 = 0x300
	CSRMisa       uint16 = 0x301
	CSRMedeleg    uint16 = 0x302
	CSRMideleg    uint16 = 0x303
	CSRMie        uint16 = 0x304
	CSRMtvec      uint16 = 0x305
	CSRMcounteren uint16 = 0x306

	// Legacy counter setup, priv-1.9.1
	CSRMucounteren uint16 = 0x320
	CSRMscounteren uint16 = 0x321

	// Machine trap handling
	CSRMscratch uint16 = 0x340
	CSRMepc     uint16 = 0x341
	CSRMcause   uint16 = 0x342
	CSRMbadaddr uint16 = 0x343 // mtval since priv-1.10
	CSRMip      uint16 = 0x344

	// Physical memory protection
	CSRPmpcfg0   uint16 = 0x3a0
	CSRPmpcfg3   uint16 = 0x3a3
	CSRPmpaddr0  uint16 = 0x3b0
	CSRPmpaddr15 uint16 = 0x3bf

	// Machine counters
	CSRMcycle         uint16 = 0xb00
	CSRMinstret       uint16 = 0xb02
	CSRMhpmcounter3   uint16 = 0xb03
	CSRMhpmcounter31  uint16 = 0xb1f
	CSRMcycleh        uint16 = 0xb80
	CSRMinstreth      uint16 = 0xb82
	CSRMhpmcounter3h  uint16 = 0xb83
	CSRMhpmcounter31h uint16 = 0xb9f

	// Machine counter event selectors
	CSRMhpmevent3  uint16 = 0x323
	CSRMhpmevent31 uint16 = 0x33f
)
