package aog

import (
	"errors"
	"net"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/agopengps/tc-bridge/internal/framebuf"
)

// rxBufferSize is the fixed accumulation buffer per socket (spec.md §4.2:
// "appending into a 512-byte buffer").
const rxBufferSize = 512

// broadcastListenConfig sets SO_BROADCAST on the listening socket before
// bind, the way the teacher's SocketCAN adapters reach for raw socket
// options (golang.org/x/sys/unix) rather than stdlib alone.
var broadcastListenConfig = net.ListenConfig{
	Control: func(network, address string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
		})
		if err != nil {
			return err
		}
		return sockErr
	},
}

// dispatcher handles one fully decoded frame.
type dispatcher func(Frame)

// socket pumps one UDP connection: non-blocking receive, frame
// accumulation, and dispatch, per spec.md §9's "one codec, one dispatcher
// function per socket purpose" factoring.
type socket struct {
	conn             *net.UDPConn
	buf              *framebuf.Buffer
	dispatch         dispatcher
	validateChecksum bool
	logger           *log.Entry
	scratch          [rxBufferSize]byte
	dropped          uint64
}

func newSocket(conn *net.UDPConn, dispatch dispatcher, validateChecksum bool, logger *log.Entry) *socket {
	return &socket{
		conn:             conn,
		buf:              framebuf.New(rxBufferSize),
		dispatch:         dispatch,
		validateChecksum: validateChecksum,
		logger:           logger,
	}
}

// Pump performs one non-blocking receive attempt plus however many complete
// frames can now be decoded from the buffer.
func (s *socket) Pump() {
	if err := s.conn.SetReadDeadline(time.Now()); err != nil {
		s.logger.WithError(err).Warn("failed to arm non-blocking read")
		return
	}

	n, _, err := s.conn.ReadFromUDP(s.scratch[:])
	switch {
	case err == nil:
		if appendErr := s.buf.Append(s.scratch[:n]); appendErr != nil {
			s.logger.WithError(appendErr).Warn("rx buffer overflow, dropping datagram")
			s.dropped++
		}
	case errors.Is(err, syscall.EWOULDBLOCK):
		// no datagram pending this tick
	default:
		var netErr net.Error
		if !(errors.As(err, &netErr) && netErr.Timeout()) {
			s.logger.WithError(err).Warn("udp read error")
		}
	}

	s.drain()
}

// drain decodes and dispatches every complete frame currently buffered.
func (s *socket) drain() {
	for {
		frame, consumed, ok, err := TryDecode(s.buf.Bytes(), s.validateChecksum)
		if err != nil {
			s.logger.WithError(err).Warn("dropping malformed frame")
			s.dropped++
		}
		if consumed == 0 && !ok {
			return
		}
		s.buf.Compact(consumed)
		if ok {
			s.dispatch(frame)
		}
	}
}
