package rv

import "fmt"

// CSR name tables for the monitor and diagnostics.

var csrNames = map[uint16]string{
	CSRFflags:      "fflags",
	CSRFrm:         "frm",
	CSRFcsr:        "fcsr",
	CSRCycle:       "cycle",
	CSRTime:        "time",
	CSRInstret:     "instret",
	CSRCycleh:      "cycleh",
	CSRTimeh:       "timeh",
	CSRInstreth:    "instreth",
	CSRSstatus:     "sstatus",
	CSRSie:         "sie",
	CSRStvec:       "stvec",
	CSRScounteren:  "scounteren",
	CSRSscratch:    "sscratch",
	CSRSepc:        "sepc",
	CSRScause:      "scause",
	CSRSbadaddr:    "sbadaddr",
	CSRSip:         "sip",
	CSRSatp:        "satp",
	CSRMvendorid:   "mvendorid",
	CSRMarchid:     "marchid",
	CSRMimpid:      "mimpid",
	CSRMhartid:     "mhartid",
	CSRMstatus:     "mstatus",
	CSRMisa:        "misa",
	CSRMedeleg:     "medeleg",
	CSRMideleg:     "mideleg",
	CSRMie:         "mie",
	CSRMtvec:       "mtvec",
	CSRMcounteren:  "mcounteren",
	CSRMucounteren: "mucounteren",
	CSRMscounteren: "mscounteren",
	CSRMscratch:    "mscratch",
	CSRMepc:        "mepc",
	CSRMcause:      "mcause",
	CSRMbadaddr:    "mbadaddr",
	CSRMip:         "mip",
	CSRMcycle:      "mcycle",
	CSRMinstret:    "minstret",
	CSRMcycleh:     "mcycleh",
	CSRMinstreth:   "minstreth",
}

var csrNumbers map[string]uint16

func init() {
	csrNumbers = make(map[string]uint16, len(csrNames)+64)
	for no, name := range csrNames {
		csrNumbers[name] = no
	}

	// Aliases introduced or renamed across privileged spec versions
	csrNumbers["stval"] = CSRSbadaddr
	csrNumbers["mtval"] = CSRMbadaddr
	csrNumbers["sptbr"] = CSRSatp

	for i := uint16(0); i < 4; i++ {
		csrNumbers[fmt.Sprintf("pmpcfg%d", i)] = CSRPmpcfg0 + i
	}
	for i := uint16(0); i < 16; i++ {
		csrNumbers[fmt.Sprintf("pmpaddr%d", i)] = CSRPmpaddr0 + i
	}
	for i := uint16(3); i <= 31; i++ {
		csrNumbers[fmt.Sprintf("hpmcounter%d", i)] = CSRHpmcounter3 + i - 3
		csrNumbers[fmt.Sprintf("mhpmcounter%d", i)] = CSRMhpmcounter3 + i - 3
		csrNumbers[fmt.Sprintf("mhpmevent%d", i)] = CSRMhpmevent3 + i - 3
	}
}

// CSRName returns the canonical name of a CSR number, or a hex form for
// numbers without one.
func CSRName(csrno uint16) string {
	if name, ok := csrNames[csrno]; ok {
		return name
	}
	if name := rangeName(csrno); name != "" {
		return name
	}
	return fmt.Sprintf("csr_0x%03x", csrno)
}

func rangeName(csrno uint16) string {
	switch {
	case csrno >= CSRPmpcfg0 && csrno <= CSRPmpcfg3:
		return fmt.Sprintf("pmpcfg%d", csrno-CSRPmpcfg0)
	case csrno >= CSRPmpaddr0 && csrno <= CSRPmpaddr15:
		return fmt.Sprintf("pmpaddr%d", csrno-CSRPmpaddr0)
	case csrno >= CSRHpmcounter3 && csrno <= CSRHpmcounter31:
		return fmt.Sprintf("hpmcounter%d", csrno-CSRHpmcounter3+3)
	case csrno >= CSRMhpmcounter3 && csrno <= CSRMhpmcounter31:
		return fmt.Sprintf("mhpmcounter%d", csrno-CSRMhpmcounter3+3)
	case csrno >= CSRMhpmevent3 && csrno <= CSRMhpmevent31:
		return fmt.Sprintf("mhpmevent%d", csrno-CSRMhpmevent3+3)
	}
	return ""
}

// LookupCSR resolves a CSR name to its number.
func LookupCSR(name string) (uint16, bool) {
	no, ok := csrNumbers[name]
	return no, ok
}
