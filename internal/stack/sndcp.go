package stack

/*-------------------------------------------------------------
 *
 * Purpose:	SNDCP entity stub: packet-data convergence is out of scope
 *		beyond presenting the Entity shape on the TLPD SAP, so the
 *		router's registry and dispatch don't need a special case
 *		for an absent layer.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// SndcpEntity is a stub Entity: it accepts TLPD-SAP primitives and logs
// them at Debug, implementing no packet-data convergence logic (circuit
// data beyond traffic-channel framing is a non-goal).
type SndcpEntity struct {
	log *charmlog.Logger
}

// NewSndcpEntity constructs the stub SNDCP entity.
func NewSndcpEntity(log *charmlog.Logger) *SndcpEntity {
	return &SndcpEntity{log: log}
}

func (s *SndcpEntity) EntityKind() EntityKind { return EntitySndcp }

func (s *SndcpEntity) RxPrim(q *Queue, msg SapMsg) {
	s.log.Debug("sndcp: unimplemented, dropping primitive", "sap", msg.SapID)
}

func (s *SndcpEntity) TickStart(q *Queue, ts TdmaTime) {}
func (s *SndcpEntity) TickEnd(q *Queue, ts TdmaTime) bool { return false }
