// Package hartconfig loads machine descriptions from yaml files.
package hartconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/openhart/rvemu/internal/rv"
	"gopkg.in/yaml.v3"
)

// Config describes a machine. Default gives a single-hart rv64imafdcsu
// machine on privileged spec 1.10; Parse starts from Default, so fields a
// file leaves out keep those values. The zero value has no ISA string and
// is rejected by MachineOptions.
type Config struct {
	// ISA is a RISC-V ISA string such as "rv64imafdcsu".
	ISA string `yaml:"isa"`

	// PrivVersion selects the privileged spec: "1.9.1" or "1.10".
	PrivVersion string `yaml:"priv_version"`

	Harts  int    `yaml:"harts"`
	RAMMiB uint64 `yaml:"ram_mib"`

	// MMU is a pointer to distinguish unset from false: unset follows the
	// S extension.
	MMU *bool `yaml:"mmu"`

	// DeterministicCounters backs cycle/time/instret with the retired
	// instruction count instead of host time.
	DeterministicCounters bool `yaml:"deterministic_counters"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ISA:         "rv64imafdcsu",
		PrivVersion: "1.10",
		Harts:       1,
		RAMMiB:      16,
	}
}

// Load reads and parses a machine description file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse decodes a machine description. Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing machine config: %w", err)
	}
	return cfg, nil
}

// parseISA decodes an ISA string into an XLEN and misa extension bits.
func parseISA(isa string) (xlen int, misa uint64, err error) {
	s := strings.ToLower(strings.TrimSpace(isa))
	switch {
	case strings.HasPrefix(s, "rv32"):
		xlen = 32
	case strings.HasPrefix(s, "rv64"):
		xlen = 64
	default:
		return 0, 0, fmt.Errorf("ISA string %q: must start with rv32 or rv64", isa)
	}

	for _, c := range s[4:] {
		switch {
		case c == 'g':
			misa |= rv.MisaI | rv.MisaM | rv.MisaA | rv.MisaF | rv.MisaD
		case c >= 'a' && c <= 'z':
			misa |= 1 << (c - 'a')
		default:
			return 0, 0, fmt.Errorf("ISA string %q: bad extension letter %q", isa, c)
		}
	}
	if misa&rv.MisaI == 0 {
		return 0, 0, fmt.Errorf("ISA string %q: base extension i is required", isa)
	}
	if misa&rv.MisaS != 0 && misa&rv.MisaU == 0 {
		return 0, 0, fmt.Errorf("ISA string %q: s requires u", isa)
	}
	return xlen, misa, nil
}

func parsePrivVersion(v string) (uint64, error) {
	switch strings.TrimSpace(v) {
	case "", "1.10", "1.10.0":
		return rv.PrivVersion1_10_0, nil
	case "1.9.1", "1.9":
		return rv.PrivVersion1_09_1, nil
	}
	return 0, fmt.Errorf("unsupported privileged spec version %q", v)
}

// MachineOptions converts the configuration into machine options,
// validating every field.
func (c Config) MachineOptions() (rv.MachineOptions, error) {
	xlen, misa, err := parseISA(c.ISA)
	if err != nil {
		return rv.MachineOptions{}, err
	}
	privVer, err := parsePrivVersion(c.PrivVersion)
	if err != nil {
		return rv.MachineOptions{}, err
	}
	harts := c.Harts
	if harts == 0 {
		harts = 1
	}
	if harts < 1 || harts > 64 {
		return rv.MachineOptions{}, fmt.Errorf("hart count %d out of range", harts)
	}
	ramMiB := c.RAMMiB
	if ramMiB == 0 {
		ramMiB = 16
	}

	hasMMU := misa&rv.MisaS != 0
	if c.MMU != nil {
		hasMMU = *c.MMU
	}

	return rv.MachineOptions{
		XLen:          xlen,
		Misa:          misa,
		PrivVer:       privVer,
		Harts:         harts,
		RAMSize:       ramMiB << 20,
		HasMMU:        hasMMU,
		Deterministic: c.DeterministicCounters,
	}, nil
}
