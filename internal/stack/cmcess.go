package stack

/*-------------------------------------------------------------
 *
 * Purpose:	CMCE Supplementary Services sub-entity: entirely
 *		unimplemented, so every U-FACILITY is answered with
 *		CMCE-FUNCTION-NOT-SUPPORTED — the same "don't stall the
 *		MS" pattern MM uses for its own NOT-SUPPORTED response.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// DCmceFunctionNotSupported is the Supplementary Services NOT-SUPPORTED
// response PDU type.
const DCmceFunctionNotSupported = 15

// CmceSupplementary is the Supplementary Services sub-entity.
type CmceSupplementary struct {
	log *charmlog.Logger
}

func newCmceSupplementary(log *charmlog.Logger) *CmceSupplementary {
	return &CmceSupplementary{log: log}
}

// Handle answers every U-FACILITY with CMCE-FUNCTION-NOT-SUPPORTED.
func (s *CmceSupplementary) Handle(b *BitBuffer) *BitBuffer {
	resp := NewBitBuffer()
	_ = resp.WriteBits(DCmceFunctionNotSupported, 4)
	return resp
}
