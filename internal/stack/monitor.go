package stack

/*-------------------------------------------------------------
 *
 * Purpose:	Monitor stack mode: a read-only interactive terminal view
 *		of AACH usage markers and logical-channel traffic, run
 *		alongside a BS stack, using pkg/term to read single
 *		keystrokes without line buffering.
 *
 *--------------------------------------------------------------*/

import (
	"bufio"
	"fmt"
	"io"

	charmlog "github.com/charmbracelet/log"
	"github.com/pkg/term"
)

// MonitorEntity is a passive observer Entity: it never emits primitives.
// It renders one line per LMAC indication handed to Report; its tick
// callbacks only record the current slot and count ticks.
type MonitorEntity struct {
	log    *charmlog.Logger
	out    io.Writer
	ticks  int
	lastTs TdmaTime
}

// NewMonitorEntity constructs a Monitor entity writing its report to out.
func NewMonitorEntity(log *charmlog.Logger, out io.Writer) *MonitorEntity {
	return &MonitorEntity{log: log, out: out}
}

func (m *MonitorEntity) EntityKind() EntityKind { return EntityMonitor }

// RxPrim is never driven by the router's own traffic (nothing addresses
// the Monitor SAP), but Report lets a Monitor-mode stack feed it
// observed LMAC indications directly for display.
func (m *MonitorEntity) RxPrim(q *Queue, msg SapMsg) {}

// Report renders one observed LMAC indication to the monitor's output.
// The router and the entities do not call it themselves.
func (m *MonitorEntity) Report(ts TdmaTime, ind *TmvRxInd) {
	fmt.Fprintf(m.out, "%s %-8s crc=%v bits=%d\n", ts, ind.LogicalChannel, ind.CrcPass, ind.MacBlock.Len())
}

func (m *MonitorEntity) TickStart(q *Queue, ts TdmaTime) {
	m.lastTs = ts
	m.ticks++
}

func (m *MonitorEntity) TickEnd(q *Queue, ts TdmaTime) bool { return false }

// RunInteractiveMonitor puts the controlling terminal into raw mode and
// reads single keystrokes until 'q' is pressed or stop is closed,
// rather than waiting on buffered line input.
func RunInteractiveMonitor(stop <-chan struct{}) error {
	t, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		return fmt.Errorf("monitor: opening tty: %w", err)
	}
	defer t.Restore()
	defer t.Close()

	r := bufio.NewReader(t)
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		b, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("monitor: reading keystroke: %w", err)
		}
		if b == 'q' {
			return nil
		}
	}
}
