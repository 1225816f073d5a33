package rdt

import "github.com/pkg/errors"

// ErrRetriesExhausted reports that a bounded-retry send gave up before the
// payload was acknowledged. Errors returned by RetrySender.Send wrap it;
// test with errors.Is.
var ErrRetriesExhausted = errors.New("retry budget exhausted")

// AttemptSender is implemented by senders whose retransmission loop can be
// bounded to a fixed number of transmission attempts.
type AttemptSender interface {
	SendAttempts(data []byte, maxAttempts int) error
}

// RetrySender bounds a sender's otherwise unbounded retransmission loop.
// The bound is a demonstration policy layered on top of the protocol, not
// part of it: the wrapped sender left alone retries forever.
type RetrySender struct {
	Sender AttemptSender
	Budget int
}

func (r *RetrySender) Send(data []byte) error {
	return r.Sender.SendAttempts(data, r.Budget)
}
