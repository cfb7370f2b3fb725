/* Run the TETRA base-station protocol stack */
package main

import (
	"fmt"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/tetra-oss/bluestation-bs/internal/stack"
)

/*-------------------------------------------------------------
 *
 * Purpose:	bluestation-bs <config.toml> [--ticks N] [--verbose] --
 *		loads config, wires the PHY/LMAC/UMAC/LLC/MLE/MM/CMCE/
 *		SNDCP entities per the config's stack mode, and runs the
 *		router's per-tick protocol until the optional tick budget
 *		is exhausted. No device or entity ends the run on its own
 *		(there is no end-of-data signal), so without --ticks it
 *		runs indefinitely.
 *
 *--------------------------------------------------------------*/

func main() {
	var ticks int
	var verbose bool
	pflag.IntVarP(&ticks, "ticks", "t", 0, "stop after N ticks (0 = no tick limit)")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pflag.Parse()

	if pflag.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	log := stack.NewLogger(verbose)

	cfg, err := stack.LoadConfig(pflag.Arg(0))
	if err != nil {
		log.Fatal("loading config", "err", err)
	}

	banner, err := strftime.New("%Y-%m-%d %H:%M:%S")
	if err != nil {
		log.Fatal("compiling startup banner pattern", "err", err)
	}
	log.Info("bluestation-bs starting", "at", banner.FormatString(time.Now()), "mode", cfg.Mode, "mcc", cfg.Cell.MCC, "mnc", cfg.Cell.MNC)

	freq := stack.FreqInfo{
		Band:             cfg.Cell.Band,
		Carrier:          cfg.Cell.Carrier,
		OffsetHz:         cfg.Cell.OffsetHz,
		DuplexSpacingID:  cfg.Cell.DuplexSpacingID,
		DuplexSpacingVal: cfg.Cell.DuplexSpacingVal,
	}
	if ul, err := freq.UplinkHz(); err != nil {
		log.Warn("duplex spacing unresolved, uplink frequency unknown", "err", err)
	} else {
		log.Info("carrier", "dl_hz", freq.DownlinkHz(), "ul_hz", ul)
	}

	device, err := buildDevice(cfg)
	if err != nil {
		log.Fatal("unsupported phy backend", "err", err)
	}

	router := buildRouter(log, cfg, device)

	var tickBudget *int
	if ticks > 0 {
		tickBudget = &ticks
	}
	router.RunStack(tickBudget)
}

// buildDevice selects the PHY backend named by config. The real SoapySDR
// drivers (uhd/lime/sx) are external hardware collaborators out of scope
// for this core; only the loopback test device is actually
// constructed here, so any other driver key is treated as unsupported.
func buildDevice(cfg *stack.Config) (stack.Device, error) {
	var device stack.Device
	switch cfg.PHY.Driver {
	case "uhd", "lime", "sx":
		return nil, fmt.Errorf("phy driver %q requires the out-of-scope SoapySDR backend", cfg.PHY.Driver)
	case "loopback", "":
		device = stack.NewLoopbackDevice(stack.LoopbackConfig{})
	default:
		return nil, fmt.Errorf("unknown phy driver %q", cfg.PHY.Driver)
	}

	if cfg.PHY.PTTChip != "" {
		return stack.OpenGPIOPTTDevice(device, cfg.PHY.PTTChip, cfg.PHY.PTTLine)
	}
	return device, nil
}

// buildRouter wires every entity the stack mode calls for around a
// fresh Router, bottom (PHY) to top (SNDCP).
func buildRouter(log *charmlog.Logger, cfg *stack.Config, device stack.Device) *stack.Router {
	r := stack.NewRouter(log)

	scramblerInit := stack.ScramblerInit(uint32(cfg.Cell.MCC), uint32(cfg.Cell.MNC), uint32(cfg.Cell.ColourCode))

	r.RegisterEntity(stack.NewPhyEntity(log, device))
	r.RegisterEntity(stack.NewLmacEntity(log, scramblerInit))
	r.RegisterEntity(stack.NewUmacEntity(log, cfg.Cell))
	r.RegisterEntity(stack.NewLlcEntity(log))
	r.RegisterEntity(stack.NewMleEntity(log))
	r.RegisterEntity(stack.NewMmEntity(log))
	r.RegisterEntity(stack.NewCmceEntity(log))
	r.RegisterEntity(stack.NewSndcpEntity(log))

	if cfg.Mode == stack.ModeMonitor {
		r.RegisterEntity(stack.NewMonitorEntity(log, os.Stdout))
	}

	return r
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n\tbluestation-bs [--ticks N] [--verbose] <config.toml>\n")
}
