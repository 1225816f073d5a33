package rdt

import "time"

// Packet kinds carried in the first header byte.
const (
	kindData byte = 0
	kindAck  byte = 1
	kindNak  byte = 2
)

// Sequence field widths for the three wire layouts. Every layout carries
// kind (1B), an optional sequence number, and a 16-bit checksum.
const (
	seqSizeNone   = 0 // stop-and-wait without sequence numbers
	seqSizeByte   = 1 // alternating-bit and 8-bit modulo stop-and-wait
	seqSizeUint32 = 4 // Go-Back-N
)

const (
	defaultRetransmissionTimeout = 2 * time.Second
	defaultPollInterval          = 50 * time.Millisecond
	defaultWindowSize            = 4
	defaultMaxSegmentSize        = 1024
)

// maxDatagramSize bounds a single receive. Anything larger is truncated by
// the socket read and subsequently rejected by the checksum.
const maxDatagramSize = 4096
