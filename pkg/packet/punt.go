package packet

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/veesix-networks/unicastdhcp/pkg/connectpoint"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
)

const maxPuntDatagram = 2 + 256 + 4 + 9216

var (
	errShortPunt = errors.New("punt datagram too short")

	ErrEmptyDeviceID   = errors.New("punt datagram: empty device id")
	ErrDeviceIDTooLong = errors.New("punt datagram: device id longer than 65535 bytes")
)

// EncodePunt builds a punt datagram:
//
//	[u16 device id length][device id][u32 port][ethernet frame]
//
// all integers big endian. The device id must fit the length field.
func EncodePunt(from connectpoint.ConnectPoint, frame []byte) ([]byte, error) {
	dev := []byte(from.DeviceID)
	switch {
	case len(dev) == 0:
		return nil, ErrEmptyDeviceID
	case len(dev) > math.MaxUint16:
		return nil, fmt.Errorf("%w: %d bytes", ErrDeviceIDTooLong, len(dev))
	}

	buf := make([]byte, 2+len(dev)+4+len(frame))
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(dev)))
	copy(buf[2:], dev)
	binary.BigEndian.PutUint32(buf[2+len(dev):], uint32(from.Port))
	copy(buf[2+len(dev)+4:], frame)
	return buf, nil
}

// DecodePunt splits a punt datagram into its ingress point and frame. The
// returned frame is a copy.
func DecodePunt(buf []byte) (connectpoint.ConnectPoint, []byte, error) {
	if len(buf) < 2 {
		return connectpoint.ConnectPoint{}, nil, errShortPunt
	}

	devLen := int(binary.BigEndian.Uint16(buf[0:2]))
	if devLen == 0 {
		return connectpoint.ConnectPoint{}, nil, ErrEmptyDeviceID
	}
	if len(buf) < 2+devLen+4 {
		return connectpoint.ConnectPoint{}, nil, fmt.Errorf("%w: %d bytes, header needs %d", errShortPunt, len(buf), 2+devLen+4)
	}

	dev := connectpoint.DeviceID(buf[2 : 2+devLen])
	port := connectpoint.PortNumber(binary.BigEndian.Uint32(buf[2+devLen : 2+devLen+4]))

	frame := make([]byte, len(buf)-(2+devLen+4))
	copy(frame, buf[2+devLen+4:])

	return connectpoint.New(dev, port), frame, nil
}

// PuntListener reads punted frames from a unixgram socket and dispatches
// them to a Service.
type PuntListener struct {
	path    string
	service *Service
	logger  *slog.Logger
	conn    *net.UnixConn
}

func NewPuntListener(path string, service *Service) *PuntListener {
	return &PuntListener{
		path:    path,
		service: service,
		logger:  logger.Get(logger.Punt),
	}
}

func (l *PuntListener) Path() string {
	return l.path
}

func (l *PuntListener) Listen() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		l.logger.Warn("Failed to remove existing socket", "error", err)
	}

	addr, err := net.ResolveUnixAddr("unixgram", l.path)
	if err != nil {
		return fmt.Errorf("resolve unix addr: %w", err)
	}

	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return fmt.Errorf("listen on unix socket: %w", err)
	}

	if err := os.Chmod(l.path, 0666); err != nil {
		conn.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	l.conn = conn
	return nil
}

// Serve reads until ctx is done. Each datagram is dispatched on the reading
// goroutine.
func (l *PuntListener) Serve(ctx context.Context) {
	buf := make([]byte, maxPuntDatagram)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.conn.SetReadDeadline(time.Now().Add(1 * time.Second))

		n, err := l.conn.Read(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
				l.logger.Warn("Error reading from socket", "error", err)
				continue
			}
		}

		from, frame, err := DecodePunt(buf[:n])
		if err != nil {
			l.logger.Debug("Dropping punt datagram", "size", n, "error", err)
			continue
		}

		l.service.Dispatch(NewInboundPacket(from, frame))
	}
}

func (l *PuntListener) Close() error {
	var err error
	if l.conn != nil {
		err = l.conn.Close()
	}
	os.Remove(l.path)
	return err
}
