package rdt

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type ChannelTestSuite struct {
	rdtTestSuite
	alpha *endpoint
	beta  *endpoint
}

func (suite *ChannelTestSuite) SetupTest() {
	alpha, err := newEndpoint("127.0.0.1:0", "")
	suite.handleTestError(err)
	beta, err := newEndpoint("127.0.0.1:0", "")
	suite.handleTestError(err)
	alpha.remote = beta.localAddr()
	suite.alpha = alpha
	suite.beta = beta
}

func (suite *ChannelTestSuite) TearDownTest() {
	suite.handleTestError(suite.alpha.close())
	suite.handleTestError(suite.beta.close())
}

func (suite *ChannelTestSuite) TestTotalLossDeliversNothing() {
	channel := NewSeededUnreliableChannel(1.0, 0, 0, 0, 1)
	stats := NewStats()
	channel.Stats = stats
	for i := 0; i < 5; i++ {
		suite.handleTestError(channel.Send([]byte("lost"), suite.alpha.conn, suite.alpha.remote))
	}
	_, _, ok, err := suite.beta.receive(50 * time.Millisecond)
	suite.handleTestError(err)
	suite.False(ok)
	suite.Equal(float64(5), testutil.ToFloat64(stats.PacketsDropped))
}

func (suite *ChannelTestSuite) TestCorruptionFlipsOneByteOfACopy() {
	channel := NewSeededUnreliableChannel(0, 1.0, 0, 0, 1)
	channel.CorruptFlips = 1
	original := []byte("do not mutate me")
	pristine := append([]byte(nil), original...)

	suite.handleTestError(channel.Send(original, suite.alpha.conn, suite.alpha.remote))
	raw, _, ok, err := suite.beta.receive(time.Second)
	suite.handleTestError(err)
	suite.True(ok)

	suite.Equal(pristine, original, "sender-owned buffer must stay intact for retransmission")
	suite.Equal(len(original), len(raw))
	differing := 0
	for i := range raw {
		if raw[i] != original[i] {
			differing++
		}
	}
	suite.Equal(1, differing)
}

func (suite *ChannelTestSuite) TestDelayedDeliveryStillArrives() {
	channel := NewSeededUnreliableChannel(0, 0, 5*time.Millisecond, 20*time.Millisecond, 1)
	suite.handleTestError(channel.Send([]byte("later"), suite.alpha.conn, suite.alpha.remote))
	raw, _, ok, err := suite.beta.receive(time.Second)
	suite.handleTestError(err)
	suite.True(ok)
	suite.Equal("later", string(raw))
}

func (suite *ChannelTestSuite) TestDirectChannelForwardsIntact() {
	channel := DirectChannel{}
	payload := []byte("intact")
	suite.handleTestError(channel.Send(payload, suite.alpha.conn, suite.alpha.remote))
	raw, _, ok, err := suite.beta.receive(time.Second)
	suite.handleTestError(err)
	suite.True(ok)
	suite.Equal(payload, raw)
}

func TestChannel(t *testing.T) {
	suite.Run(t, new(ChannelTestSuite))
}
