package stack

/*-------------------------------------------------------------
 *
 * Purpose:	TOML configuration loading: stack mode, PHY backend
 *		selection, cell parameters, and SSI ranges.
 *
 *--------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// StackMode selects which side of the air interface this process runs.
// Only Bs is implemented by this core; Ms is rejected at load time
// (mobile-station mode is an explicit non-goal) and Monitor runs a
// read-only diagnostic view alongside a Bs stack.
type StackMode string

const (
	ModeBs      StackMode = "bs"
	ModeMs      StackMode = "ms"
	ModeMonitor StackMode = "monitor"
)

// PHYConfig selects and parameterises the SDR backend. Driver is one of
// {uhd, lime, sx, loopback}; uhd, lime and sx name external hardware
// collaborators that are not implemented here — only their config shape
// is represented — while loopback (or an empty driver) selects the
// in-process LoopbackDevice.
type PHYConfig struct {
	Driver string `toml:"driver"`
	Args   string `toml:"args"`
	// PTT GPIO line keying an external PA or antenna relay around TX
	// bursts; empty chip means no PTT control.
	PTTChip string `toml:"ptt_gpio_chip"`
	PTTLine int    `toml:"ptt_gpio_line"`
}

// CellConfig carries the parameters that identify and scramble this
// cell's transmissions.
type CellConfig struct {
	MCC              uint16 `toml:"mcc"`
	MNC              uint16 `toml:"mnc"`
	LocationArea     uint16 `toml:"location_area"`
	ColourCode       uint8  `toml:"colour_code"`
	Band             uint8  `toml:"band"`
	Carrier          uint16 `toml:"carrier"`
	OffsetHz         int32  `toml:"offset_hz"`
	DuplexSpacingID  uint8  `toml:"duplex_spacing_id"`
	DuplexSpacingVal uint32 `toml:"duplex_spacing_val"`
}

// SsiRangesConfig is the three named range lists configuration admits.
type SsiRangesConfig struct {
	Local     []SsiRangeConfig `toml:"local"`
	Whitelist []SsiRangeConfig `toml:"whitelist"`
	Blacklist []SsiRangeConfig `toml:"blacklist"`
}

// SsiRangeConfig is the TOML-friendly mirror of SsiRange.
type SsiRangeConfig struct {
	Start uint32 `toml:"start"`
	End   uint32 `toml:"end"`
}

func (c SsiRangeConfig) toRange() SsiRange {
	return SsiRange{Start: c.Start, End: c.End}
}

// Config is the single document bluestation-bs loads at startup.
type Config struct {
	Mode StackMode       `toml:"mode"`
	PHY  PHYConfig       `toml:"phy"`
	Cell CellConfig      `toml:"cell"`
	SSI  SsiRangesConfig `toml:"ssi"`
}

// LocalRanges returns the configured local SSI ranges, sorted disjoint.
func (c *Config) LocalRanges() []SsiRange {
	return toSortedRanges(c.SSI.Local)
}

// WhitelistRanges returns the configured whitelist SSI ranges, sorted
// disjoint.
func (c *Config) WhitelistRanges() []SsiRange {
	return toSortedRanges(c.SSI.Whitelist)
}

// BlacklistRanges returns the configured blacklist SSI ranges, sorted
// disjoint.
func (c *Config) BlacklistRanges() []SsiRange {
	return toSortedRanges(c.SSI.Blacklist)
}

func toSortedRanges(cfgs []SsiRangeConfig) []SsiRange {
	out := make([]SsiRange, len(cfgs))
	for i, c := range cfgs {
		out[i] = c.toRange()
	}
	SortDisjoint(out)
	return out
}

// LoadConfig reads and parses a TOML configuration document from path,
// the single entry point into the configuration subsystem. Mobile-station
// mode is rejected: this core implements base-station mode only.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeBs
	}
	if cfg.Mode == ModeMs {
		return nil, fmt.Errorf("config: mobile-station mode is not supported by this stack")
	}
	return &cfg, nil
}
