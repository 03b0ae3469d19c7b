// Package transport implements the single request/response UDP exchange
// the protocol core builds on: one datagram out, one matching datagram
// in, correlated by packet_id. There is no retransmission at this layer —
// a response that never arrives, or arrives for the wrong packet_id, is
// the caller's problem to retry or give up on.
package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/wip-client/wip/internal/logging"
	"github.com/wip-client/wip/pkg/wiperrors"
	"github.com/wip-client/wip/pkg/wipproto"

	"github.com/cenkalti/backoff/v4"
)

// DefaultRecvTimeout bounds a single recvfrom call; a read that times out
// without data just means the loop should check the overall deadline and
// try again.
const DefaultRecvTimeout = 500 * time.Millisecond

// DefaultDeadline bounds the whole transaction: once it elapses without a
// packet_id match, Send returns ErrTimeout.
const DefaultDeadline = 10 * time.Second

// MaxDatagramSize is larger than any packet this protocol defines; it
// exists only to size the receive buffer.
const MaxDatagramSize = 2048

// Transactor issues request/response exchanges. It holds no per-endpoint
// state: every Send call resolves its destination and opens a fresh
// socket for the duration of that one transaction, matching the protocol
// spec's "a single datagram socket owned for the duration of one
// transaction" and "concurrent transactions use distinct sockets, never
// sharing one." A Client reuses a single Transactor value across calls to
// multiple endpoints (location resolver, query generator, proxy, report)
// since the type itself carries no connection to close.
type Transactor struct {
	log *logging.Logger
}

// New returns a ready-to-use Transactor.
func New() *Transactor {
	return &Transactor{log: logging.Default()}
}

// resolve looks up addr with exponential backoff, since a transient DNS
// hiccup should not immediately fail every request.
func resolve(ctx context.Context, addr string) (*net.UDPAddr, error) {
	var raddr *net.UDPAddr
	lookup := func() error {
		a, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			return err
		}
		raddr = a
		return nil
	}
	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(lookup, b); err != nil {
		return nil, fmt.Errorf("%w: resolving %s: %v", wiperrors.ErrIO, addr, err)
	}
	return raddr, nil
}

// Send opens a socket to addr, transmits request once, and reads datagrams
// — each bounded by recvTimeout — until one's packet_id matches wantID or
// deadline elapses since the call began. recvTimeout and deadline fall
// back to DefaultRecvTimeout/DefaultDeadline when zero.
//
// A datagram whose id does not match wantID is discarded without being
// decoded any further than the bits needed to read that id. Once an id
// matches, Send returns its raw bytes regardless of whether the rest of
// the packet is well formed — checksum and decode failures on the
// matched datagram are the caller's (DecodePacket's) concern, not
// something this layer silently retries past.
func (t *Transactor) Send(ctx context.Context, addr string, request []byte, wantID uint16, recvTimeout, deadline time.Duration) ([]byte, error) {
	if recvTimeout <= 0 {
		recvTimeout = DefaultRecvTimeout
	}
	if deadline <= 0 {
		deadline = DefaultDeadline
	}

	raddr, err := resolve(ctx, addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", wiperrors.ErrIO, addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(request); err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", wiperrors.ErrIO, err)
	}

	overall := time.Now().Add(deadline)
	buf := make([]byte, MaxDatagramSize)

	for {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", wiperrors.ErrTimeout, ctx.Err())
		}
		remaining := time.Until(overall)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: no matching response for packet_id %d within %s", wiperrors.ErrTimeout, wantID, deadline)
		}

		readFor := remaining
		if readFor > recvTimeout {
			readFor = recvTimeout
		}
		if err := conn.SetReadDeadline(time.Now().Add(readFor)); err != nil {
			return nil, fmt.Errorf("%w: setting read deadline: %v", wiperrors.ErrIO, err)
		}

		n, err := conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return nil, fmt.Errorf("%w: reading response: %v", wiperrors.ErrIO, err)
		}

		if n < wipproto.FixedHeaderSize {
			t.log.WithField("bytes", n).Debug("transport: discarding runt datagram")
			continue
		}

		received := make([]byte, n)
		copy(received, buf[:n])

		gotID, ok := wipproto.PeekPacketID(received)
		if !ok || gotID != wantID {
			t.log.WithField("got_packet_id", gotID).WithField("want_packet_id", wantID).Debug("transport: discarding response for a different packet_id")
			continue
		}
		return received, nil
	}
}
