package rdt

import (
	"time"

	"github.com/pkg/errors"
)

// Variant C: stop-and-wait driven by a retransmission timer, with an 8-bit
// modulo sequence counter.
//
// Once the channel may lose or badly delay control packets, NAK-driven retry
// breaks down and a single sequence bit turns ambiguous: a stale ACK can
// masquerade as the current one if two full round trips fit into one timeout
// window. This variant widens the counter to modulo 256 and retransmits on
// timeout alone; every invalid, mistyped or mismatched inbound packet is
// silently discarded. NAK is not used.

// TimedSender sends payloads reliably over a channel that may drop, corrupt
// or delay packets in both directions. Not safe for concurrent Send calls.
type TimedSender struct {
	session
	seq     uint32 // 8-bit modulo counter
	timeout time.Duration
	poll    time.Duration
}

func NewTimedSender(localAddr, remoteAddr string, channel Channel, config *Config) (*TimedSender, error) {
	if config == nil {
		config = DefaultConfig()
	}
	s, err := newSession(localAddr, remoteAddr, channel, seqSizeByte)
	if err != nil {
		return nil, err
	}
	s.maxSegment = config.MaxSegmentSize
	return &TimedSender{
		session: s,
		timeout: config.RetransmissionTimeout(),
		poll:    config.PollInterval(),
	}, nil
}

// Send transmits data and retries on timeout until the matching ACK arrives.
// There is no retry bound; wrap the sender in a RetrySender to get one.
func (s *TimedSender) Send(data []byte) error {
	return s.SendAttempts(data, 0)
}

// SendAttempts is Send with an optional transmission budget. maxAttempts
// counts every transmission of the packet, the first one included; zero
// means unbounded. When the budget runs out the payload is reported
// undelivered by an error wrapping ErrRetriesExhausted.
func (s *TimedSender) SendAttempts(data []byte, maxAttempts int) error {
	if err := s.checkPayload(data); err != nil {
		return err
	}
	pkt := s.codec.data(s.seq, data)
	attempts := 0
	for {
		if maxAttempts > 0 && attempts >= maxAttempts {
			return errors.Wrapf(ErrRetriesExhausted, "sequence %d unacknowledged after %d attempts", s.seq, attempts)
		}
		if attempts > 0 {
			s.stats.countRetransmission()
		}
		if err := s.transmit(pkt, nil); err != nil {
			return err
		}
		attempts++
		acked, err := s.awaitAck()
		if err != nil {
			return err
		}
		if acked {
			s.seq = (s.seq + 1) & 0xFF
			return nil
		}
		// Deadline passed, retransmit.
	}
}

// awaitAck polls for the matching ACK until the retransmission deadline.
// The deadline is a monotonic instant checked by the poll loop itself, so
// no timer callback races with the sender.
func (s *TimedSender) awaitAck() (bool, error) {
	deadline := time.Now().Add(s.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		wait := s.poll
		if remaining < wait {
			wait = remaining
		}
		raw, _, ok, err := s.endpoint.receive(wait)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		response, err := s.codec.decode(raw)
		if err != nil {
			continue
		}
		if !response.checksumOK {
			s.stats.countChecksumFailure()
			continue
		}
		if response.kind != kindAck || response.seq != s.seq {
			continue
		}
		return true, nil
	}
}

// TimedReceiver delivers DATA packets in order, exactly once, acknowledging
// the last correctly received sequence on any out-of-order or corrupted
// arrival.
type TimedReceiver struct {
	session
	deliver  DeliverFunc
	expected uint32
}

func NewTimedReceiver(localAddr string, deliver DeliverFunc, channel Channel) (*TimedReceiver, error) {
	s, err := newSession(localAddr, "", channel, seqSizeByte)
	if err != nil {
		return nil, err
	}
	return &TimedReceiver{session: s, deliver: deliver}, nil
}

// Loop processes inbound packets until the receiver is closed.
func (r *TimedReceiver) Loop() {
	for {
		raw, from, _, err := r.endpoint.receive(0)
		if err != nil {
			if !closedSocket(err) {
				r.reportError(err)
			}
			return
		}
		pkt, err := r.codec.decode(raw)
		if err != nil {
			continue
		}
		if !pkt.checksumOK {
			r.stats.countChecksumFailure()
			r.reportError(r.transmit(r.codec.ack(r.lastGood()), from))
			continue
		}
		if pkt.kind != kindData {
			continue
		}
		if pkt.seq != r.expected {
			r.stats.countDuplicateDropped()
			r.reportError(r.transmit(r.codec.ack(r.lastGood()), from))
			continue
		}
		r.deliver(pkt.payload)
		r.stats.countDelivery()
		r.reportError(r.transmit(r.codec.ack(r.expected), from))
		r.expected = (r.expected + 1) & 0xFF
	}
}

func (r *TimedReceiver) lastGood() uint32 {
	return (r.expected - 1) & 0xFF
}
