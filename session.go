package rdt

import (
	"net"

	"github.com/pkg/errors"
)

// DeliverFunc receives the payload of each validated, in-order DATA packet.
// It is never invoked for corrupted packets or discarded duplicates.
type DeliverFunc func(payload []byte)

// session bundles the endpoint, channel and codec every protocol engine
// needs. Engines embed it; its state is mutated only by the owning engine's
// goroutine.
type session struct {
	endpoint   *endpoint
	channel    Channel
	codec      codec
	maxSegment int
	stats      *Stats
	errors     chan error
}

func newSession(localAddr, remoteAddr string, channel Channel, seqSize int) (session, error) {
	ep, err := newEndpoint(localAddr, remoteAddr)
	if err != nil {
		return session{}, err
	}
	if channel == nil {
		channel = DirectChannel{}
	}
	return session{
		endpoint:   ep,
		channel:    channel,
		codec:      codec{seqSize: seqSize},
		maxSegment: defaultMaxSegmentSize,
	}, nil
}

// checkPayload rejects payloads the wire format is not sized for.
func (s *session) checkPayload(data []byte) error {
	if len(data) > s.maxSegment {
		return errors.Wrapf(ErrPayloadTooLarge, "%d bytes, limit %d", len(data), s.maxSegment)
	}
	return nil
}

// transmit hands a packet to the channel, addressed to the session's fixed
// remote unless an explicit destination is given.
func (s *session) transmit(packet []byte, to *net.UDPAddr) error {
	if to == nil {
		to = s.endpoint.remote
	}
	if err := s.channel.Send(packet, s.endpoint.conn, to); err != nil {
		return errors.Wrap(err, "channel send")
	}
	s.stats.countTransmission()
	return nil
}

// UseStats attaches a counter set. Pass nil to detach.
func (s *session) UseStats(stats *Stats) {
	s.stats = stats
}

// NotifyErrors directs asynchronous errors, such as reply failures inside a
// receiver loop, to the given channel instead of discarding them.
func (s *session) NotifyErrors(errs chan error) {
	s.errors = errs
}

func (s *session) reportError(err error) {
	if err != nil && s.errors != nil {
		s.errors <- err
	}
}

// LocalAddr returns the bound address, useful after binding to port 0.
func (s *session) LocalAddr() *net.UDPAddr {
	return s.endpoint.localAddr()
}

// Close tears the session down. A receiver loop blocked on the socket
// observes the close and returns.
func (s *session) Close() error {
	return s.endpoint.close()
}

// closedSocket reports whether err is the read failure produced by Close.
func closedSocket(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

// Sender is the public shape shared by all four sending engines.
type Sender interface {
	Send(data []byte) error
	LocalAddr() *net.UDPAddr
	Close() error
}

// Receiver is the public shape shared by all four receiving engines.
type Receiver interface {
	Loop()
	LocalAddr() *net.UDPAddr
	Close() error
}
