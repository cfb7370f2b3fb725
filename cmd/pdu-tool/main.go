/* Decode a single MAC PDU from a literal bit-string, in isolation */
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/tetra-oss/bluestation-bs/internal/stack"
)

/*-------------------------------------------------------------
 *
 * Purpose:	pdu-tool <ul|dl> <sap> <dest> <bitstring> [--channel ...] --
 *		decodes one MAC PDU from a literal "0"/"1" bit-string
 *		using the LMAC/UMAC parse path directly, with no router
 *		and no PHY.
 *
 *--------------------------------------------------------------*/

func main() {
	var channel string
	pflag.StringVar(&channel, "channel", "schf", "logical channel: schf|schhu|schhd|stch|bnch|bsch|aach")
	pflag.Parse()

	args := pflag.Args()
	if len(args) != 4 {
		usage()
		os.Exit(1)
	}
	direction, sap, dest, bitstring := args[0], args[1], args[2], args[3]

	if direction != "ul" && direction != "dl" {
		fmt.Fprintf(os.Stderr, "pdu-tool: unknown direction %q\n", direction)
		os.Exit(1)
	}
	if sap != "tmv" {
		fmt.Fprintf(os.Stderr, "pdu-tool: unknown sap %q\n", sap)
		os.Exit(1)
	}
	if dest != "umac" {
		fmt.Fprintf(os.Stderr, "pdu-tool: unknown destination %q\n", dest)
		os.Exit(1)
	}

	logChan, ok := channelByName(channel)
	if !ok {
		fmt.Fprintf(os.Stderr, "pdu-tool: unknown channel %q\n", channel)
		os.Exit(1)
	}

	buf, err := stack.NewBitBufferFromString(bitstring)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdu-tool: %v\n", err)
		os.Exit(1)
	}

	log := stack.NewLogger(false)
	lmac := stack.NewLmacEntity(log, stack.ScramblerInit(0, 0, 0))

	bits := make([]byte, buf.Len())
	copy(bits, buf.Bits())
	ind, ok := lmac.Decode(logChan, bits)
	if !ok {
		fmt.Println("pdu-tool: block dropped (CRC/Viterbi/depuncture failure)")
		os.Exit(1)
	}

	hdr, _, err := stack.ParseMacHeader(ind.MacBlock)
	if err != nil {
		fmt.Printf("pdu-tool: mac header parse failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("channel=%s crc_pass=%v pdu_type=%d form=%d addr_ssi=%d label=%d\n",
		logChan, ind.CrcPass, hdr.PduType, hdr.Form, hdr.Addr.Ssi, hdr.Label)
}

func channelByName(name string) (stack.LogicalChannel, bool) {
	switch name {
	case "schf":
		return stack.ChanSCHF, true
	case "schhu":
		return stack.ChanSCHHU, true
	case "schhd":
		return stack.ChanSCHHD, true
	case "stch":
		return stack.ChanSTCH, true
	case "bnch":
		return stack.ChanBNCH, true
	case "bsch":
		return stack.ChanBSCH, true
	case "aach":
		return stack.ChanAACH, true
	default:
		return 0, false
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n\tpdu-tool <ul|dl> <sap> <dest> <bitstring> [--channel schf|schhu|schhd|stch|bnch|bsch|aach]\n")
}
