package stack

/*-------------------------------------------------------------
 *
 * Purpose:	Structured logging setup, threaded as a field rather than
 *		held globally.
 *
 *--------------------------------------------------------------*/

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// NewLogger returns a charmbracelet/log logger writing to stderr at the
// given level, used by cmd/bluestation-bs and cmd/pdu-tool as the single
// construction point for the whole stack's logging.
func NewLogger(verbose bool) *charmlog.Logger {
	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	return charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
	})
}
