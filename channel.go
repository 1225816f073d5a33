package rdt

import (
	"log"
	"math/rand"
	"net"
	"sync"
	"time"
)

// Channel is the transport every protocol engine sends through. An
// implementation may drop the datagram, corrupt it, or deliver it later
// and out of order; the engines must tolerate all of it.
type Channel interface {
	Send(packet []byte, conn *net.UDPConn, remote *net.UDPAddr) error
}

// DirectChannel forwards every datagram immediately and intact.
type DirectChannel struct{}

func (DirectChannel) Send(packet []byte, conn *net.UDPConn, remote *net.UDPAddr) error {
	_, err := conn.WriteToUDP(packet, remote)
	return err
}

// UnreliableChannel simulates a lossy network path. Each Send independently
// rolls for loss, corruption and delay: a lost datagram is silently dropped,
// a corrupted one has 1 to 5 random bytes inverted, and a delayed one is
// written asynchronously after a uniform random wait, which also reorders it
// against later sends.
type UnreliableChannel struct {
	LossRate    float64
	CorruptRate float64
	MinDelay    time.Duration
	MaxDelay    time.Duration

	// CorruptFlips pins the number of inverted bytes per corruption event.
	// Zero keeps the default of 1 to 5 random bytes.
	CorruptFlips int

	// Logger, when set, records every impairment decision.
	Logger *log.Logger

	// Stats, when set, counts drops and corruptions.
	Stats *Stats

	// Errors, when set, receives write failures from delayed sends, which
	// have no caller left to return to.
	Errors chan error

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUnreliableChannel seeds the channel's random source from the clock.
// Tests that need reproducible impairment can use NewSeededUnreliableChannel.
func NewUnreliableChannel(lossRate, corruptRate float64, minDelay, maxDelay time.Duration) *UnreliableChannel {
	return NewSeededUnreliableChannel(lossRate, corruptRate, minDelay, maxDelay, time.Now().UnixNano())
}

func NewSeededUnreliableChannel(lossRate, corruptRate float64, minDelay, maxDelay time.Duration, seed int64) *UnreliableChannel {
	return &UnreliableChannel{
		LossRate:    lossRate,
		CorruptRate: corruptRate,
		MinDelay:    minDelay,
		MaxDelay:    maxDelay,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (ch *UnreliableChannel) Send(packet []byte, conn *net.UDPConn, remote *net.UDPAddr) error {
	ch.mu.Lock()
	dropped := ch.rng.Float64() < ch.LossRate
	corrupted := !dropped && ch.rng.Float64() < ch.CorruptRate
	delay := time.Duration(0)
	if !dropped && ch.MaxDelay > ch.MinDelay {
		delay = ch.MinDelay + time.Duration(ch.rng.Int63n(int64(ch.MaxDelay-ch.MinDelay)))
	} else if !dropped {
		delay = ch.MinDelay
	}
	if corrupted {
		packet = ch.corrupt(packet)
	}
	ch.mu.Unlock()

	if dropped {
		ch.logf("packet dropped")
		ch.Stats.countPacketDropped()
		return nil
	}
	if corrupted {
		ch.logf("packet corrupted")
		ch.Stats.countPacketCorrupted()
	}
	if delay <= 0 {
		_, err := conn.WriteToUDP(packet, remote)
		return err
	}
	ch.logf("packet delayed by %v", delay)
	time.AfterFunc(delay, func() {
		if _, err := conn.WriteToUDP(packet, remote); err != nil && ch.Errors != nil {
			ch.Errors <- err
		}
	})
	return nil
}

// corrupt inverts a few random bytes of a copy of the packet. The copy
// matters: senders keep the original buffer around for retransmission.
// Callers must hold ch.mu.
func (ch *UnreliableChannel) corrupt(packet []byte) []byte {
	mangled := make([]byte, len(packet))
	copy(mangled, packet)
	flips := ch.CorruptFlips
	if flips <= 0 {
		flips = 1 + ch.rng.Intn(5)
	}
	for i := 0; i < flips; i++ {
		mangled[ch.rng.Intn(len(mangled))] ^= 0xFF
	}
	return mangled
}

func (ch *UnreliableChannel) logf(format string, args ...interface{}) {
	if ch.Logger != nil {
		ch.Logger.Printf(format, args...)
	}
}
