package rdt

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type PacketCodecTestSuite struct {
	rdtTestSuite
}

func (suite *PacketCodecTestSuite) TestRoundTripAllLayouts() {
	payload := []byte("Hello, World!")
	for _, seqSize := range []int{seqSizeNone, seqSizeByte, seqSizeUint32} {
		c := codec{seqSize: seqSize}
		pkt, err := c.decode(c.data(7, payload))
		suite.handleTestError(err)
		suite.True(pkt.checksumOK)
		suite.Equal(kindData, pkt.kind)
		suite.Equal(payload, pkt.payload)
		if seqSize != seqSizeNone {
			suite.Equal(uint32(7), pkt.seq)
		}
	}
}

func (suite *PacketCodecTestSuite) TestControlPacketsCarryNoPayload() {
	c := codec{seqSize: seqSizeByte}
	ack, err := c.decode(c.ack(3))
	suite.handleTestError(err)
	suite.True(ack.checksumOK)
	suite.Equal(kindAck, ack.kind)
	suite.Equal(uint32(3), ack.seq)
	suite.Empty(ack.payload)

	nak, err := c.decode(c.nak(3))
	suite.handleTestError(err)
	suite.True(nak.checksumOK)
	suite.Equal(kindNak, nak.kind)
}

func (suite *PacketCodecTestSuite) TestEmptyPayloadRoundTrip() {
	c := codec{seqSize: seqSizeUint32}
	pkt, err := c.decode(c.data(0xFFFFFFFF, nil))
	suite.handleTestError(err)
	suite.True(pkt.checksumOK)
	suite.Equal(uint32(0xFFFFFFFF), pkt.seq)
	suite.Empty(pkt.payload)
}

func (suite *PacketCodecTestSuite) TestSingleByteFlipIsDetected() {
	for _, seqSize := range []int{seqSizeNone, seqSizeByte, seqSizeUint32} {
		c := codec{seqSize: seqSize}
		original := c.data(42, []byte("payload bytes"))
		for i := range original {
			mangled := make([]byte, len(original))
			copy(mangled, original)
			mangled[i] ^= 0xFF
			pkt, err := c.decode(mangled)
			suite.handleTestError(err)
			suite.Falsef(pkt.checksumOK, "flip of byte %d went undetected", i)
		}
	}
}

func (suite *PacketCodecTestSuite) TestShortDatagramIsFramingError() {
	c := codec{seqSize: seqSizeUint32}
	_, err := c.decode([]byte{kindData, 0, 0})
	suite.Error(err)
	suite.True(errors.Is(err, ErrShortDatagram))
}

func (suite *PacketCodecTestSuite) TestChecksumIsOnesComplementByteSum() {
	// kind 0, seq 1, payload {2, 3}: sum is 6, complement 0xFFF9.
	c := codec{seqSize: seqSizeByte}
	encoded := c.data(1, []byte{2, 3})
	suite.Equal(byte(0xFF), encoded[2])
	suite.Equal(byte(0xF9), encoded[3])
}

func TestPacketCodec(t *testing.T) {
	suite.Run(t, new(PacketCodecTestSuite))
}
