package rdt

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrShortDatagram reports a datagram too short to contain its fixed header.
// It is a framing error, distinct from a checksum failure: a checksum failure
// is routine channel corruption, a short datagram is a malformed read.
var ErrShortDatagram = errors.New("datagram shorter than fixed header")

// ErrPayloadTooLarge reports a payload exceeding the maximum segment size.
var ErrPayloadTooLarge = errors.New("payload exceeds maximum segment size")

// checksum16 returns the 16-bit one's-complement additive checksum of the
// given byte ranges: the byte sum truncated to 16 bits, complemented.
func checksum16(parts ...[]byte) uint16 {
	var total uint16
	for _, part := range parts {
		for _, b := range part {
			total += uint16(b)
		}
	}
	return ^total
}

// packet is the decoded view of a wire datagram. kind and seq must only be
// interpreted when checksumOK is set; a packet failing its checksum is noise.
type packet struct {
	kind       byte
	seq        uint32
	checksumOK bool
	payload    []byte
}

// codec serializes packets for one of the three header layouts. seqSize is
// the width of the sequence field in bytes: seqSizeNone, seqSizeByte or
// seqSizeUint32. The checksum always covers kind, sequence and payload.
type codec struct {
	seqSize int
}

func (c codec) headerSize() int {
	return 1 + c.seqSize + 2
}

func (c codec) checksumOffset() int {
	return 1 + c.seqSize
}

func (c codec) encode(kind byte, seq uint32, payload []byte) []byte {
	buffer := make([]byte, c.headerSize()+len(payload))
	buffer[0] = kind
	c.putSeq(buffer, seq)
	copy(buffer[c.headerSize():], payload)
	sum := checksum16(buffer[:c.checksumOffset()], payload)
	binary.BigEndian.PutUint16(buffer[c.checksumOffset():], sum)
	return buffer
}

// decode parses a datagram. A checksum mismatch is not an error; callers
// must check checksumOK before trusting kind or seq. Only a buffer shorter
// than the fixed header fails, wrapping ErrShortDatagram.
func (c codec) decode(raw []byte) (packet, error) {
	if len(raw) < c.headerSize() {
		return packet{}, errors.Wrapf(ErrShortDatagram, "got %d bytes, header is %d", len(raw), c.headerSize())
	}
	payload := raw[c.headerSize():]
	received := binary.BigEndian.Uint16(raw[c.checksumOffset():])
	computed := checksum16(raw[:c.checksumOffset()], payload)
	return packet{
		kind:       raw[0],
		seq:        c.getSeq(raw),
		checksumOK: received == computed,
		payload:    payload,
	}, nil
}

func (c codec) putSeq(buffer []byte, seq uint32) {
	switch c.seqSize {
	case seqSizeByte:
		buffer[1] = byte(seq)
	case seqSizeUint32:
		binary.BigEndian.PutUint32(buffer[1:5], seq)
	}
}

func (c codec) getSeq(raw []byte) uint32 {
	switch c.seqSize {
	case seqSizeByte:
		return uint32(raw[1])
	case seqSizeUint32:
		return binary.BigEndian.Uint32(raw[1:5])
	}
	return 0
}

func (c codec) data(seq uint32, payload []byte) []byte {
	return c.encode(kindData, seq, payload)
}

func (c codec) ack(seq uint32) []byte {
	return c.encode(kindAck, seq, nil)
}

func (c codec) nak(seq uint32) []byte {
	return c.encode(kindNak, seq, nil)
}
