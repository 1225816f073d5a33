package rdt

// Variant A: stop-and-wait without sequence numbers.
//
// The sender transmits one DATA packet and blocks until the receiver answers.
// A NAK or a corrupted response triggers retransmission of the very same
// encoded packet. Because packets carry no sequence number, a retransmission
// after a corrupted ACK makes the receiver deliver the payload a second time;
// that duplicate delivery is the documented behavior of this variant, not a
// defect. Control packets are assumed to never get lost.

// StopWaitSender sends payloads reliably, one at a time, with unbounded
// retry and no duplicate suppression.
type StopWaitSender struct {
	session
}

func NewStopWaitSender(localAddr, remoteAddr string, channel Channel) (*StopWaitSender, error) {
	s, err := newSession(localAddr, remoteAddr, channel, seqSizeNone)
	if err != nil {
		return nil, err
	}
	return &StopWaitSender{session: s}, nil
}

// Send transmits data and returns once the receiver acknowledged it. It
// retries indefinitely; bounding the retries is the caller's concern.
func (s *StopWaitSender) Send(data []byte) error {
	if err := s.checkPayload(data); err != nil {
		return err
	}
	pkt := s.codec.data(0, data)
	first := true
	for {
		if !first {
			s.stats.countRetransmission()
		}
		first = false
		if err := s.transmit(pkt, nil); err != nil {
			return err
		}
		raw, _, _, err := s.endpoint.receive(0)
		if err != nil {
			return err
		}
		response, err := s.codec.decode(raw)
		if err != nil {
			continue // malformed datagram, retransmit
		}
		if !response.checksumOK {
			s.stats.countChecksumFailure()
			continue
		}
		if response.kind == kindAck {
			return nil
		}
		// NAK or anything unexpected: retransmit.
	}
}

// StopWaitReceiver delivers every validated DATA packet unconditionally.
// It keeps no state between deliveries.
type StopWaitReceiver struct {
	session
	deliver DeliverFunc
}

func NewStopWaitReceiver(localAddr string, deliver DeliverFunc, channel Channel) (*StopWaitReceiver, error) {
	s, err := newSession(localAddr, "", channel, seqSizeNone)
	if err != nil {
		return nil, err
	}
	return &StopWaitReceiver{session: s, deliver: deliver}, nil
}

// Loop processes inbound packets until the receiver is closed. Run it on its
// own goroutine.
func (r *StopWaitReceiver) Loop() {
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
			continue // framing error, drop the datagram
		}
		if !pkt.checksumOK {
			r.stats.countChecksumFailure()
			r.reportError(r.transmit(r.codec.nak(0), from))
			continue
		}
		if pkt.kind != kindData {
			continue
		}
		r.deliver(pkt.payload)
		r.stats.countDelivery()
		r.reportError(r.transmit(r.codec.ack(0), from))
	}
}
