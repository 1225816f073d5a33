package rdt

import (
	"sort"
	"time"
)

// Variant D: pipelined Go-Back-N with a sliding window and cumulative ACKs.
//
// The sender keeps up to windowSize DATA packets in flight, buffered by
// sequence number until acknowledged. One retransmission deadline is bound
// to the oldest outstanding packet; when it passes, every buffered packet is
// resent in ascending sequence order. An ACK for sequence s inside the
// window acknowledges everything up to and including s. The receiver never
// buffers out-of-order data: anything but the next in-order sequence draws
// a duplicate ACK for the last good packet.

// GoBackNSender pipelines payloads over a lossy channel. The in-flight
// buffer is owned exclusively by the sender until packets are acknowledged.
// Not safe for concurrent Send calls.
type GoBackNSender struct {
	session
	base       uint32 // oldest unacknowledged sequence
	nextSeq    uint32
	windowSize uint32
	inFlight   map[uint32][]byte

	timeout    time.Duration
	poll       time.Duration
	deadline   time.Time
	timerArmed bool
}

func NewGoBackNSender(localAddr, remoteAddr string, channel Channel, config *Config) (*GoBackNSender, error) {
	if config == nil {
		config = DefaultConfig()
	}
	s, err := newSession(localAddr, remoteAddr, channel, seqSizeUint32)
	if err != nil {
		return nil, err
	}
	s.maxSegment = config.MaxSegmentSize
	return &GoBackNSender{
		session:    s,
		windowSize: config.WindowSize,
		inFlight:   make(map[uint32][]byte),
		timeout:    config.RetransmissionTimeout(),
		poll:       config.PollInterval(),
	}, nil
}

// Send blocks while the window is full, transmits data under the next
// sequence number, and returns once that sequence has been cumulatively
// acknowledged. ACK processing and timeout retransmissions for earlier
// packets happen inside the same call.
func (s *GoBackNSender) Send(data []byte) error {
	if err := s.checkPayload(data); err != nil {
		return err
	}
	for s.nextSeq-s.base >= s.windowSize {
		if err := s.service(); err != nil {
			return err
		}
	}

	seq := s.nextSeq
	pkt := s.codec.data(seq, data)
	s.inFlight[seq] = pkt
	if err := s.transmit(pkt, nil); err != nil {
		return err
	}
	if s.base == s.nextSeq {
		s.armTimer()
	}
	s.nextSeq++

	for {
		if _, outstanding := s.inFlight[seq]; !outstanding {
			return nil
		}
		if err := s.service(); err != nil {
			return err
		}
	}
}

// Outstanding returns how many transmitted packets await acknowledgment.
func (s *GoBackNSender) Outstanding() int {
	return len(s.inFlight)
}

// service performs one step of the sender's poll loop: retransmit the whole
// window if the deadline passed, otherwise wait briefly for an ACK and apply
// it. The deadline is checked here, in the same goroutine that owns the
// buffer, so no lock is needed around the in-flight map.
func (s *GoBackNSender) service() error {
	if s.timerArmed && !time.Now().Before(s.deadline) {
		return s.retransmitWindow()
	}
	raw, _, ok, err := s.endpoint.receive(s.poll)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	response, err := s.codec.decode(raw)
	if err != nil {
		return nil
	}
	if !response.checksumOK {
		s.stats.countChecksumFailure()
		return nil
	}
	if response.kind != kindAck || !s.inWindow(response.seq) {
		return nil
	}
	s.advance(response.seq)
	return nil
}

// inWindow reports whether seq lies in [base, nextSeq) of the 32-bit modulo
// sequence space.
func (s *GoBackNSender) inWindow(seq uint32) bool {
	return seq-s.base < s.nextSeq-s.base
}

// advance applies the cumulative ACK for acked: every buffered sequence up
// to and including it is released, and the timer is rebound to the new
// oldest outstanding packet, or cancelled when nothing is outstanding.
func (s *GoBackNSender) advance(acked uint32) {
	s.base = acked + 1
	span := s.nextSeq - s.base
	for seq := range s.inFlight {
		if seq-s.base >= span {
			delete(s.inFlight, seq)
		}
	}
	if s.base == s.nextSeq {
		s.timerArmed = false
	} else {
		s.armTimer()
	}
}

// retransmitWindow resends every unacknowledged packet in ascending sequence
// order, leaving base and nextSeq untouched, and rearms the timer.
func (s *GoBackNSender) retransmitWindow() error {
	seqs := make([]uint32, 0, len(s.inFlight))
	for seq := range s.inFlight {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool {
		return seqs[i]-s.base < seqs[j]-s.base
	})
	for _, seq := range seqs {
		s.stats.countRetransmission()
		if err := s.transmit(s.inFlight[seq], nil); err != nil {
			return err
		}
	}
	s.armTimer()
	return nil
}

func (s *GoBackNSender) armTimer() {
	s.deadline = time.Now().Add(s.timeout)
	s.timerArmed = true
}

// GoBackNReceiver accepts only the next in-order DATA packet. It holds a
// single expected-sequence counter and no buffer; the sender re-sends the
// whole window after a gap.
type GoBackNReceiver struct {
	session
	deliver  DeliverFunc
	expected uint32
}

func NewGoBackNReceiver(localAddr string, deliver DeliverFunc, channel Channel) (*GoBackNReceiver, error) {
	s, err := newSession(localAddr, "", channel, seqSizeUint32)
	if err != nil {
		return nil, err
	}
	return &GoBackNReceiver{session: s, deliver: deliver}, nil
}

// Loop processes inbound packets until the receiver is closed. Corrupted or
// out-of-order arrivals draw a duplicate ACK for the last in-order packet.
func (r *GoBackNReceiver) Loop() {
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
			r.reportError(r.transmit(r.codec.ack(r.expected-1), from))
			continue
		}
		if pkt.kind != kindData {
			continue
		}
		if pkt.seq != r.expected {
			r.stats.countDuplicateDropped()
			r.reportError(r.transmit(r.codec.ack(r.expected-1), from))
			continue
		}
		r.deliver(pkt.payload)
		r.stats.countDelivery()
		r.reportError(r.transmit(r.codec.ack(r.expected), from))
		r.expected++
	}
}
