package rdt

import (
	"net"
	"strconv"
	"sync"

	"github.com/stretchr/testify/suite"
)

type rdtTestSuite struct {
	suite.Suite
}

func (suite *rdtTestSuite) handleTestError(err error) {
	suite.Require().NoError(err)
}

func (suite *rdtTestSuite) startReceiver(r Receiver) {
	go r.Loop()
}

// messages returns payloads "msg_0" .. "msg_<n-1>".
func messages(n int) []string {
	result := make([]string, n)
	for i := range result {
		result[i] = "msg_" + strconv.Itoa(i)
	}
	return result
}

// deliveryRecorder stands in for the application layer, collecting every
// payload the receiver delivers.
type deliveryRecorder struct {
	mu        sync.Mutex
	delivered []string
}

func (r *deliveryRecorder) deliver(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, string(payload))
}

func (r *deliveryRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.delivered...)
}

// countingChannel counts transmissions by packet kind before forwarding.
type countingChannel struct {
	inner Channel

	mu     sync.Mutex
	byKind map[byte]int
	total  int
}

func newCountingChannel(inner Channel) *countingChannel {
	return &countingChannel{inner: inner, byKind: make(map[byte]int)}
}

func (ch *countingChannel) Send(packet []byte, conn *net.UDPConn, remote *net.UDPAddr) error {
	ch.mu.Lock()
	ch.byKind[packet[0]]++
	ch.total++
	ch.mu.Unlock()
	return ch.inner.Send(packet, conn, remote)
}

func (ch *countingChannel) sent(kind byte) int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.byKind[kind]
}

func (ch *countingChannel) totalSent() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.total
}

// kindChannel routes packets of one kind through an impaired channel and
// everything else through a perfect one, so tests can corrupt only DATA or
// only control packets.
type kindChannel struct {
	kind     byte
	impaired Channel
	perfect  Channel
}

func (ch kindChannel) Send(packet []byte, conn *net.UDPConn, remote *net.UDPAddr) error {
	if packet[0] == ch.kind {
		return ch.impaired.Send(packet, conn, remote)
	}
	return ch.perfect.Send(packet, conn, remote)
}

const (
	actDrop      = "drop"
	actCorrupt   = "corrupt"
	actDuplicate = "duplicate"
)

// onceChannel applies a single impairment to the first packet of the given
// kind and forwards everything else intact.
type onceChannel struct {
	inner  Channel
	kind   byte
	action string

	mu   sync.Mutex
	done bool
}

func (ch *onceChannel) Send(packet []byte, conn *net.UDPConn, remote *net.UDPAddr) error {
	ch.mu.Lock()
	trigger := !ch.done && packet[0] == ch.kind
	if trigger {
		ch.done = true
	}
	ch.mu.Unlock()
	if !trigger {
		return ch.inner.Send(packet, conn, remote)
	}
	switch ch.action {
	case actDrop:
		return nil
	case actCorrupt:
		mangled := make([]byte, len(packet))
		copy(mangled, packet)
		mangled[len(mangled)-1] ^= 0xFF
		return ch.inner.Send(mangled, conn, remote)
	case actDuplicate:
		if err := ch.inner.Send(packet, conn, remote); err != nil {
			return err
		}
		return ch.inner.Send(packet, conn, remote)
	}
	return ch.inner.Send(packet, conn, remote)
}

// fastConfig keeps retransmission tests quick.
func fastConfig() *Config {
	config := DefaultConfig()
	config.RetransmissionTimeoutMs = 50
	config.PollIntervalMs = 5
	return config
}

// localAddrOf formats a bound receiver's address for a sender constructor.
func localAddrOf(r Receiver) string {
	return r.LocalAddr().String()
}
