package rdt

import (
	"net"
	"time"

	"github.com/pkg/errors"
)

// endpoint owns one datagram socket bound to a local address. Senders
// additionally hold the remote address their packets are directed at;
// receivers reply to whichever address a datagram arrived from.
type endpoint struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
}

func newEndpoint(localAddr, remoteAddr string) (*endpoint, error) {
	local, err := net.ResolveUDPAddr("udp4", localAddr)
	if err != nil {
		return nil, errors.Wrap(err, "resolve local address")
	}
	conn, err := net.ListenUDP("udp4", local)
	if err != nil {
		return nil, errors.Wrap(err, "bind local address")
	}
	var remote *net.UDPAddr
	if remoteAddr != "" {
		remote, err = net.ResolveUDPAddr("udp4", remoteAddr)
		if err != nil {
			_ = conn.Close()
			return nil, errors.Wrap(err, "resolve remote address")
		}
	}
	return &endpoint{conn: conn, remote: remote}, nil
}

// receive blocks for one datagram. A positive wait bounds the blocking time;
// ok is false when the wait elapsed without a datagram arriving. A zero wait
// blocks until a datagram arrives or the socket is closed.
func (e *endpoint) receive(wait time.Duration) (raw []byte, from *net.UDPAddr, ok bool, err error) {
	var deadline time.Time
	if wait > 0 {
		deadline = time.Now().Add(wait)
	}
	if err := e.conn.SetReadDeadline(deadline); err != nil {
		return nil, nil, false, errors.Wrap(err, "set read deadline")
	}
	buffer := make([]byte, maxDatagramSize)
	n, from, err := e.conn.ReadFromUDP(buffer)
	if err != nil {
		if netErr, isNetErr := err.(net.Error); isNetErr && netErr.Timeout() {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	return buffer[:n], from, true, nil
}

func (e *endpoint) localAddr() *net.UDPAddr {
	return e.conn.LocalAddr().(*net.UDPAddr)
}

func (e *endpoint) close() error {
	return e.conn.Close()
}
