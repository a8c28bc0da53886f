package ingest

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"purifygate/pkg/engine"
)

// maxDatagram is the largest UDP payload.
const maxDatagram = 65535

// UDPIngestor listens for UDP packets and pushes each one to the buffer.
type UDPIngestor struct {
	addr   string
	buffer *engine.RingBuffer
	logger *zap.Logger
}

func NewUDPIngestor(addr string, buffer *engine.RingBuffer, logger *zap.Logger) *UDPIngestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UDPIngestor{
		addr:   addr,
		buffer: buffer,
		logger: logger.Named("udp"),
	}
}

// Start reads packets until ctx is done. Blocking call.
func (u *UDPIngestor) Start(ctx context.Context) error {
	conn, err := u.listen()
	if err != nil {
		return err
	}
	return u.serve(ctx, conn)
}

func (u *UDPIngestor) listen() (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp", u.addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve udp %s", u.addr)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen udp %s", u.addr)
	}
	u.logger.Info("UDP ingestor listening", zap.Stringer("addr", conn.LocalAddr()))
	return conn, nil
}

func (u *UDPIngestor) serve(ctx context.Context, conn *net.UDPConn) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	// Reuse a buffer for reading packets to minimize allocations.
	buf := make([]byte, maxDatagram)

	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			u.logger.Warn("UDP read error", zap.Error(err))
			continue
		}
		if n == 0 {
			continue
		}

		// Copy the data because 'buf' is reused in the next loop iteration.
		packet := make([]byte, n)
		copy(packet, buf[:n])
		push(u.buffer, packet)
	}
}
