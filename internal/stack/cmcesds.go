package stack

/*-------------------------------------------------------------
 *
 * Purpose:	CMCE SDS sub-entity: U-SDS-DATA is delivered without
 *		further decoding — the PDU-field family for individual SDS
 *		message types is out of scope — so this layer only
 *		validates the envelope and returns no response body (SDS
 *		is unacknowledged at this level; acknowledgement, if any,
 *		is an upper-layer SDS-TL concern this core doesn't model).
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// CmceSds is the SDS sub-entity.
type CmceSds struct {
	log *charmlog.Logger
}

func newCmceSds(log *charmlog.Logger) *CmceSds {
	return &CmceSds{log: log}
}

// Handle accepts a U-SDS-DATA body; b is the short-data payload
// following the CMCE group's own 2-bit selector, already stripped by the
// caller.
func (s *CmceSds) Handle(addr TetraAddress, b *BitBuffer) *BitBuffer {
	s.log.Debug("cmce sds: received short data", "ssi", addr.Ssi, "bits", b.Len())
	return nil
}
